/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
toyquery-discover finds ToyQuery servers on the local network using mDNS.

Usage:

	toyquery-discover                 # Browse for 3 seconds
	toyquery-discover -timeout 10     # Custom timeout in seconds
	toyquery-discover -json           # Output as JSON
	toyquery-discover -quiet          # Only output addresses (for scripting)
*/
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"toyquery/internal/banner"
	"toyquery/internal/discovery"
)

func main() {
	timeout := flag.Int("timeout", int(discovery.DefaultTimeout/time.Second), "Discovery timeout in seconds")
	jsonOutput := flag.Bool("json", false, "Output as JSON")
	quiet := flag.Bool("quiet", false, "Only output server addresses")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("toyquery-discover version %s\n", banner.Version)
		return
	}

	// The mDNS library logs non-critical IPv6 errors through the standard logger.
	log.SetOutput(io.Discard)

	human := !*quiet && !*jsonOutput
	if human {
		banner.PrintTo(os.Stdout, "ToyQuery Discover")
		fmt.Printf("Scanning for ToyQuery servers (timeout: %ds)...\n\n", *timeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	servers, err := discovery.Browse(ctx, time.Duration(*timeout)*time.Second)
	if err != nil {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Discovery failed: %v\n", err)
		}
		os.Exit(1)
	}

	switch {
	case *jsonOutput:
		if servers == nil {
			servers = []discovery.Server{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(servers); err != nil {
			os.Exit(1)
		}
	case *quiet:
		for _, s := range servers {
			fmt.Println(s.Addr)
		}
	case len(servers) == 0:
		fmt.Println("No ToyQuery servers found on the network.")
		fmt.Println()
		fmt.Println("  Servers advertise only when started with -discover.")
		fmt.Println("  mDNS needs UDP port 5353 open on this network segment.")
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INSTANCE\tADDRESS\tHTTP\tVERSION")
		for _, s := range servers {
			httpAddr := s.HTTPAddr
			if httpAddr == "" {
				httpAddr = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Instance, s.Addr, httpAddr, s.Version)
		}
		w.Flush()
		fmt.Printf("\nFound %d server(s).\n", len(servers))
	}
}
