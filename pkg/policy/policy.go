// Package policy decides which remote addresses receive a privileged session.
package policy

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Policy classifies a remote address.
type Policy interface {
	IsPrivileged(addr net.Addr) bool
}

// Func adapts an ordinary function to Policy.
type Func func(addr net.Addr) bool

// IsPrivileged calls f(addr).
func (f Func) IsPrivileged(addr net.Addr) bool {
	return f(addr)
}

// AllowList grants privilege to addresses matching any configured IP or prefix.
type AllowList struct {
	prefixes []netip.Prefix
}

// NewAllowList parses entries as IP addresses ("127.0.0.1", "::1") or CIDR
// prefixes ("10.0.0.0/8"). An empty list privileges nobody.
func NewAllowList(entries []string) (*AllowList, error) {
	a := &AllowList{prefixes: make([]netip.Prefix, 0, len(entries))}
	for _, raw := range entries {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid allow-list prefix %q: %w", entry, err)
			}
			a.prefixes = append(a.prefixes, p.Masked())
			continue
		}

		ip, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-list address %q: %w", entry, err)
		}
		ip = ip.Unmap()
		a.prefixes = append(a.prefixes, netip.PrefixFrom(ip, ip.BitLen()))
	}
	return a, nil
}

// IsPrivileged reports whether addr matches the allow-list.
func (a *AllowList) IsPrivileged(addr net.Addr) bool {
	ip, ok := AddrIP(addr)
	if !ok {
		return false
	}
	for _, p := range a.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (a *AllowList) Len() int {
	return len(a.prefixes)
}

// AddrIP extracts the IP from a net.Addr, unmapping IPv4-in-IPv6 addresses.
func AddrIP(addr net.Addr) (netip.Addr, bool) {
	if addr == nil {
		return netip.Addr{}, false
	}

	switch a := addr.(type) {
	case *net.TCPAddr:
		ip, ok := netip.AddrFromSlice(a.IP)
		return ip.Unmap(), ok
	default:
		host, _, err := net.SplitHostPort(addr.String())
		if err != nil {
			host = addr.String()
		}
		ip, err := netip.ParseAddr(host)
		if err != nil {
			return netip.Addr{}, false
		}
		return ip.Unmap(), true
	}
}
