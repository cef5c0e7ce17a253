// Package resolve turns a destination host name into an IPv4 address.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

const pkgName = "Resolver. "

var (
	ErrNoAddress = errors.New("no IPv4 address found")
	ErrNotIPv4   = errors.New("IPv6 destinations are not supported")
)

type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// ResolveError reports the host that could not be resolved.
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %s", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// literal handles hosts given as IP addresses, no lookup needed.
func literal(host string) (netip.Addr, bool, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false, nil
	}
	addr = addr.Unmap()
	if !addr.Is4() {
		return netip.Addr{}, true, &ResolveError{Host: host, Err: ErrNotIPv4}
	}
	return addr, true, nil
}

// System resolves through the Go resolver (hosts file, system DNS).
type System struct {
	resolver *net.Resolver
}

func NewSystem() *System {
	return &System{resolver: net.DefaultResolver}
}

func (s *System) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, ok, err := literal(host); ok {
		return addr, err
	}

	addrs, err := s.resolver.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return netip.Addr{}, &ResolveError{Host: host, Err: err}
	}
	for _, a := range addrs {
		if a = a.Unmap(); a.Is4() {
			return a, nil
		}
	}
	return netip.Addr{}, &ResolveError{Host: host, Err: ErrNoAddress}
}
