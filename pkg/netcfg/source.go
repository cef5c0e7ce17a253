package netcfg

import (
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// SourceAddr asks the kernel which route reaches dst and returns the
// preferred source address and egress interface of that route.
func SourceAddr(dst netip.Addr) (netip.Addr, string, error) {
	routes, err := netlink.RouteGet(dst.AsSlice())
	if err != nil {
		return netip.Addr{}, "", fmt.Errorf("route to %s: %w", dst, err)
	}

	for _, r := range routes {
		ifname, _ := ifnameFromIndex(r.LinkIndex)

		if src, ok := netip.AddrFromSlice(r.Src); ok && src.Unmap().Is4() {
			return src.Unmap(), ifname, nil
		}

		// Route without preferred source: take the interface address
		if ifname != "" {
			src, err := InterfaceAddr(ifname)
			if err == nil {
				return src, ifname, nil
			}
		}
	}

	return netip.Addr{}, "", fmt.Errorf("route to %s: %w", dst, ErrNoSource)
}

// InterfaceAddr returns the first IPv4 address configured on ifname.
func InterfaceAddr(ifname string) (netip.Addr, error) {
	iface, err := netlink.LinkByName(ifname)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("failed to lookup interface %v", ifname)
	}

	addrs, err := netlink.AddrList(iface, netlink.FAMILY_V4)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, a := range addrs {
		if a.IPNet == nil {
			continue
		}
		if ip, ok := netip.AddrFromSlice(a.IPNet.IP); ok && ip.Unmap().Is4() {
			return ip.Unmap(), nil
		}
	}

	return netip.Addr{}, fmt.Errorf("interface %s: %w", ifname, ErrNoSource)
}
