// netcfg is a stateless helper to look up routing state: default route,
// egress interface and the source address the kernel will use.
package netcfg

import (
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

var (
	ErrNotFound = errors.New("default route not found")
	ErrNoSource = errors.New("no source address")
)

func ifnameFromIndex(idx int) (string, error) {
	l, err := netlink.LinkByIndex(idx)
	if err != nil {
		return "", err
	}

	return l.Attrs().Name, nil
}

// IsDefaultRoute returns true if addr == 0.0.0.0/0
func IsDefaultRoute(addr *netip.Prefix) bool {
	return addr.Addr().IsUnspecified() && addr.Bits() == 0
}

func isDefaultNet(n *net.IPNet) bool {
	addr, ok := netip.AddrFromSlice(n.IP)
	if !ok {
		return false
	}
	ones, _ := n.Mask.Size()
	prefix := netip.PrefixFrom(addr.Unmap(), ones)
	return IsDefaultRoute(&prefix)
}

// DefaultRoute returns gateway and interface name of the IPv4 default route
// with the best (lowest) priority.
func DefaultRoute() (netip.Addr, string, error) {
	var defaultRoute *netlink.Route

	routes, err := netlink.RouteList(nil, unix.AF_INET)
	if err != nil {
		return netip.IPv4Unspecified(), "", err
	}

	for idx, r := range routes {
		if r.Dst == nil || isDefaultNet(r.Dst) {
			if defaultRoute == nil || defaultRoute.Priority > r.Priority {
				defaultRoute = &routes[idx]
			}
		}
	}

	if defaultRoute == nil {
		return netip.IPv4Unspecified(), "", ErrNotFound
	}

	ifname, err := ifnameFromIndex(defaultRoute.LinkIndex)
	if err != nil {
		return netip.IPv4Unspecified(), "", err
	}
	addr, ok := netip.AddrFromSlice(defaultRoute.Gw)
	if !ok {
		return netip.IPv4Unspecified(), "", fmt.Errorf("Failed parsing IP address %s", defaultRoute.Gw)
	}

	return addr.Unmap(), ifname, nil
}
