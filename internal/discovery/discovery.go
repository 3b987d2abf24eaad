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
Package discovery provides mDNS/DNS-SD advertisement and lookup of ToyQuery
servers on the local network.

SERVICE TYPE:
=============
ToyQuery advertises itself as: _toyquery._tcp.local.

Each server publishes:
  - Instance name: <instance>._toyquery._tcp.local.
  - Port: line protocol port (default 8888)
  - TXT records: version, http (gateway address, empty when disabled)

USAGE:
======

	adv := discovery.NewAdvertiser(discovery.Config{Instance: "db1", Port: 8888})
	if err := adv.Start(); err != nil { ... }
	defer adv.Stop()

	servers, err := discovery.Browse(ctx, 3*time.Second)
*/
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"

	"toyquery/internal/logging"
)

const (
	// ServiceType is the mDNS service type for ToyQuery.
	ServiceType = "_toyquery._tcp"

	// DefaultTimeout is the default browse timeout.
	DefaultTimeout = 3 * time.Second
)

var log = logging.NewLogger("discovery")

// Config describes the advertised server.
type Config struct {
	Instance string
	Port     int
	HTTPAddr string
	Version  string
}

// Server is a ToyQuery server found on the network.
type Server struct {
	Instance     string    `json:"instance"`
	Host         string    `json:"host"`
	Addr         string    `json:"addr"`
	HTTPAddr     string    `json:"http,omitempty"`
	Version      string    `json:"version,omitempty"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Advertiser publishes one server over mDNS.
type Advertiser struct {
	config  Config
	mu      sync.Mutex
	server  *mdns.Server
	running bool
}

// NewAdvertiser creates an advertiser for config.
func NewAdvertiser(config Config) *Advertiser {
	return &Advertiser{config: config}
}

// TXTRecords returns the TXT records advertised for config.
func TXTRecords(config Config) []string {
	return []string{
		"version=" + config.Version,
		"http=" + config.HTTPAddr,
	}
}

// Start begins answering mDNS queries.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	if a.config.Instance == "" {
		return fmt.Errorf("discovery instance name cannot be empty")
	}
	if a.config.Port < 1 || a.config.Port > 65535 {
		return fmt.Errorf("invalid discovery port: %d", a.config.Port)
	}

	service, err := mdns.NewMDNSService(
		a.config.Instance,
		ServiceType,
		"",
		"",
		a.config.Port,
		localIPs(),
		TXTRecords(a.config),
	)
	if err != nil {
		return fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mDNS server: %w", err)
	}
	a.server = server
	a.running = true

	log.Info("Service discovery started",
		"instance", a.config.Instance,
		"port", a.config.Port,
		"service_type", ServiceType)
	return nil
}

// Stop withdraws the advertisement.
func (a *Advertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	err := a.server.Shutdown()
	a.server = nil
	a.running = false
	log.Info("Service discovery stopped")
	return err
}

// IsRunning reports whether the advertiser is active.
func (a *Advertiser) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Browse looks for ToyQuery servers until timeout expires or ctx is done.
// Servers are returned sorted by instance name, each at most once.
func Browse(ctx context.Context, timeout time.Duration) ([]Server, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(map[string]Server)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			if s, ok := parseServiceEntry(entry); ok {
				found[s.Instance] = s
			}
		}
	}()

	params := &mdns.QueryParam{
		Service:             ServiceType,
		Domain:              "local",
		Timeout:             timeout,
		Entries:             entries,
		WantUnicastResponse: true,
		DisableIPv6:         true,
	}

	queryErr := make(chan error, 1)
	go func() { queryErr <- mdns.Query(params) }()

	var err error
	select {
	case err = <-queryErr:
	case <-ctx.Done():
		err = ctx.Err()
		// mdns.Query sends on entries until its own timeout.
		go func() {
			<-queryErr
			close(entries)
		}()
		return nil, err
	}
	close(entries)
	<-done

	if err != nil {
		return nil, fmt.Errorf("mDNS query failed: %w", err)
	}

	servers := make([]Server, 0, len(found))
	for _, s := range found {
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].Instance < servers[j].Instance })
	return servers, nil
}

// parseServiceEntry converts an mDNS entry into a Server. Entries without
// an address are ignored.
func parseServiceEntry(entry *mdns.ServiceEntry) (Server, bool) {
	if entry == nil {
		return Server{}, false
	}

	var ip net.IP
	if entry.AddrV4 != nil {
		ip = entry.AddrV4
	} else if entry.AddrV6 != nil {
		ip = entry.AddrV6
	}
	if ip == nil {
		return Server{}, false
	}

	s := Server{
		Instance:     instanceName(entry.Name),
		Host:         strings.TrimSuffix(entry.Host, "."),
		Addr:         net.JoinHostPort(ip.String(), fmt.Sprint(entry.Port)),
		DiscoveredAt: time.Now(),
	}
	for _, txt := range entry.InfoFields {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "version":
			s.Version = value
		case "http":
			s.HTTPAddr = value
		}
	}
	return s, true
}

// instanceName strips the service suffix from a fully qualified name:
// "db1._toyquery._tcp.local." becomes "db1".
func instanceName(name string) string {
	if i := strings.Index(name, "."+ServiceType); i >= 0 {
		return strings.ReplaceAll(name[:i], `\ `, " ")
	}
	return strings.TrimSuffix(name, ".")
}

// localIPs returns all non-loopback IPv4 addresses.
func localIPs() []net.IP {
	var ips []net.IP
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ips
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok {
			if ipnet.IP.IsLoopback() {
				continue
			}
			if ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}
	return ips
}
