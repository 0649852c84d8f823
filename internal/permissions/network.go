// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package permissions

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// DefaultBlockedNetworks are refused by the fetch tool unless private
// access is enabled.
var DefaultBlockedNetworks = []netip.Prefix{
	netip.MustParsePrefix("169.254.0.0/16"), // link-local, cloud metadata
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("::/128"),
}

var blockedHostnames = []string{"localhost", "metadata.google.internal"}

// IsBlockedAddr reports whether addr falls in a default-blocked network.
func IsBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range DefaultBlockedNetworks {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// CheckHost rejects hosts that are, or resolve to, private addresses.
// host may include a port.
func CheckHost(ctx context.Context, r Resolver, host string) error {
	hostname := stripPort(host)
	lower := strings.ToLower(strings.TrimSuffix(hostname, "."))

	for _, h := range blockedHostnames {
		if lower == h || strings.HasSuffix(lower, "."+h) {
			return &PermissionError{Type: "network.blocked", Resource: host, Message: "host is in blocked list"}
		}
	}

	if addr, err := netip.ParseAddr(strings.Trim(hostname, "[]")); err == nil {
		if IsBlockedAddr(addr) {
			return &PermissionError{Type: "network.blocked", Resource: host, Message: "address is private, loopback or link-local"}
		}
		return nil
	}

	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupNetIP(ctx, "ip", hostname)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", hostname, err)
	}
	for _, a := range addrs {
		if IsBlockedAddr(a) {
			return &PermissionError{
				Type:     "network.blocked",
				Resource: host,
				Message:  fmt.Sprintf("host resolves to blocked address %s", a),
			}
		}
	}
	return nil
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
