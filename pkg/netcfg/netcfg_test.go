package netcfg

import (
	"errors"
	"net"
	"net/netip"
	"runtime"
	"testing"
)

func TestIsDefaultRoute(t *testing.T) {
	tests := []struct {
		prefix string
		want   bool
	}{
		{"0.0.0.0/0", true},
		{"0.0.0.0/8", false},
		{"10.0.0.0/0", false},
		{"192.168.1.0/24", false},
	}

	for _, tt := range tests {
		p := netip.MustParsePrefix(tt.prefix)
		if got := IsDefaultRoute(&p); got != tt.want {
			t.Errorf("IsDefaultRoute(%s) = %v, want %v", tt.prefix, got, tt.want)
		}
	}
}

func TestIsDefaultNet(t *testing.T) {
	_, all, _ := net.ParseCIDR("0.0.0.0/0")
	_, lan, _ := net.ParseCIDR("192.168.0.0/16")
	if !isDefaultNet(all) {
		t.Errorf("%s not detected as default", all)
	}
	if isDefaultNet(lan) {
		t.Errorf("%s detected as default", lan)
	}
}

func TestSourceAddrLoopback(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("netlink is linux only")
	}

	loopback := netip.MustParseAddr("127.0.0.1")
	src, ifname, err := SourceAddr(loopback)
	if err != nil {
		t.Skip("route lookup unavailable:", err)
	}
	if src != loopback {
		t.Errorf("SourceAddr(%s) = %s via %s", loopback, src, ifname)
	}
}

func TestInterfaceAddrUnknown(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("netlink is linux only")
	}

	if _, err := InterfaceAddr("no-such-if0"); err == nil {
		t.Errorf("InterfaceAddr on missing interface succeeded")
	} else if errors.Is(err, ErrNoSource) {
		t.Errorf("missing interface reported as %v", err)
	}
}
