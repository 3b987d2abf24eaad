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
toyquery-shell is the interactive client for a ToyQuery server.

Usage:

	toyquery-shell [-H host] [-p port] [-P] [-d database] [-e command]

Commands end with ";" and may span several lines. PING, AUTH and QUIT are
sent as they are. Local commands:

	\q      quit
	\h      help
	\ping   measure the round trip to the server

When stdin is not a terminal the shell reads commands line by line without
line editing, so scripts can be piped in:

	toyquery-dump -db school | toyquery-shell -H backup-host
*/
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/term"

	"toyquery/internal/banner"
	"toyquery/internal/client"
)

func main() {
	host := flag.String("H", "localhost", "Server host")
	port := flag.Int("p", 8888, "Server port")
	askPassword := flag.Bool("P", false, "Prompt for the server password")
	database := flag.String("d", "", "Database to use after connecting")
	execute := flag.String("e", "", "Execute one command and exit")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "Connect and response timeout")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("toyquery-shell version %s\n", banner.Version)
		return
	}

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	conn, err := client.Dial(addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *askPassword {
		fmt.Fprint(os.Stderr, "Password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := conn.Auth(string(password)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	sh := newShell(conn, os.Stdout)
	if *database != "" {
		sh.execute("USE " + *database + ";")
	}

	if *execute != "" {
		if !sh.execute(*execute) {
			os.Exit(1)
		}
		return
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		banner.PrintTo(os.Stdout, "ToyQuery Shell")
		fmt.Printf("Connected to %s. Type \\h for help, \\q to quit.\n\n", addr)
		err := sh.runReadline()
		if err == nil {
			return
		}
		fmt.Fprintf(os.Stderr, "Line editing unavailable: %v\n", err)
	}
	start := time.Now()
	sh.runScanner(os.Stdin)
	if !interactive && sh.failed > 0 {
		fmt.Fprintf(os.Stderr, "%d command(s) failed in %s\n", sh.failed, time.Since(start).Round(time.Millisecond))
		os.Exit(1)
	}
}
