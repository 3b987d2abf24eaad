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

package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestParseServiceEntry(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "db1._toyquery._tcp.local.",
		Host:       "host1.local.",
		AddrV4:     net.ParseIP("192.168.1.20"),
		Port:       8888,
		InfoFields: []string{"version=1.0.0", "http=:8080", "garbage"},
	}
	s, ok := parseServiceEntry(entry)
	if !ok {
		t.Fatal("entry should parse")
	}
	if s.Instance != "db1" || s.Host != "host1.local" {
		t.Errorf("unexpected names %+v", s)
	}
	if s.Addr != "192.168.1.20:8888" {
		t.Errorf("Expected 192.168.1.20:8888, got %s", s.Addr)
	}
	if s.Version != "1.0.0" || s.HTTPAddr != ":8080" {
		t.Errorf("TXT records not parsed: %+v", s)
	}
}

func TestParseServiceEntryIPv6(t *testing.T) {
	s, ok := parseServiceEntry(&mdns.ServiceEntry{
		Name:   "db2._toyquery._tcp.local.",
		AddrV6: net.ParseIP("fe80::1"),
		Port:   9000,
	})
	if !ok || s.Addr != "[fe80::1]:9000" {
		t.Errorf("unexpected server %+v", s)
	}
}

func TestParseServiceEntryWithoutAddress(t *testing.T) {
	if _, ok := parseServiceEntry(&mdns.ServiceEntry{Name: "x"}); ok {
		t.Error("entry without address should be ignored")
	}
	if _, ok := parseServiceEntry(nil); ok {
		t.Error("nil entry should be ignored")
	}
}

func TestInstanceName(t *testing.T) {
	tests := map[string]string{
		"db1._toyquery._tcp.local.":      "db1",
		`my\ host._toyquery._tcp.local.`: "my host",
		"other.local.":                   "other.local",
	}
	for in, expected := range tests {
		if got := instanceName(in); got != expected {
			t.Errorf("instanceName(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestTXTRecords(t *testing.T) {
	records := TXTRecords(Config{Version: "2.0", HTTPAddr: ":8080"})
	if len(records) != 2 || records[0] != "version=2.0" || records[1] != "http=:8080" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestAdvertiserValidation(t *testing.T) {
	if err := NewAdvertiser(Config{Port: 8888}).Start(); err == nil {
		t.Error("empty instance should be rejected")
	}
	if err := NewAdvertiser(Config{Instance: "db", Port: 0}).Start(); err == nil {
		t.Error("invalid port should be rejected")
	}
	a := NewAdvertiser(Config{Instance: "db", Port: 8888})
	if a.IsRunning() {
		t.Error("advertiser should not run before Start")
	}
	if err := a.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op: %v", err)
	}
}
