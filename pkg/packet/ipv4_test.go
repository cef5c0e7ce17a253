package packet

import (
	"errors"
	"net"
	"net/netip"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/ipv4"
)

var addrCmp = cmp.Comparer(func(a, b netip.Addr) bool { return a == b })

func TestIPv4Marshal(t *testing.T) {
	h := NewIPv4Header(netip.MustParseAddr("1.2.3.4"), netip.MustParseAddr("5.6.7.8"), 64, UDPHeaderLen)

	got, err := h.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}

	want := []byte{
		0x45, 0x00, 0x00, 0x1c, // ver/ihl, tos, total length 28
		0x00, 0x00, 0x00, 0x00, // id, flags/offset
		0x40, 0x11, 0x6a, 0xbe, // ttl 64, udp, checksum
		0x01, 0x02, 0x03, 0x04,
		0x05, 0x06, 0x07, 0x08,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Marshal mismatch (-want +got):\n%s", diff)
	}
	if !ChecksumValid(got) {
		t.Errorf("encoded header does not validate")
	}
}

func TestIPv4RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		hdr  IPv4Header
	}{
		{"zero addresses", NewIPv4Header(netip.Addr{}, netip.Addr{}, 1, UDPHeaderLen)},
		{"max ttl", NewIPv4Header(netip.MustParseAddr("192.0.2.1"), netip.MustParseAddr("198.51.100.9"), 255, 1000)},
		{
			"all fields",
			IPv4Header{
				Version:  4,
				IHL:      5,
				TOS:      0xb8,
				TotalLen: 1500,
				ID:       0xbeef,
				Flags:    0x2,
				FragOff:  0x1234,
				TTL:      17,
				Protocol: ProtocolUDP,
				Src:      netip.MustParseAddr("10.1.2.3"),
				Dst:      netip.MustParseAddr("172.16.254.1"),
			},
		},
		{"mapped addresses", NewIPv4Header(netip.MustParseAddr("::ffff:10.0.0.1"), netip.MustParseAddr("::ffff:10.0.0.2"), 3, UDPHeaderLen)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.hdr.Marshal()
			if err != nil {
				t.Fatalf("Marshal: %s", err)
			}
			if len(b) != IPv4HeaderLen {
				t.Fatalf("encoded %d bytes, want %d", len(b), IPv4HeaderLen)
			}

			got, err := ParseIPv4(b)
			if err != nil {
				t.Fatalf("ParseIPv4: %s", err)
			}

			want := tt.hdr
			want.Checksum = Checksum(append(append([]byte{}, b[:10]...), append([]byte{0, 0}, b[12:]...)...))
			want.Src = netip.AddrFrom4(as4(tt.hdr.Src))
			want.Dst = netip.AddrFrom4(as4(tt.hdr.Dst))
			if diff := cmp.Diff(want, got, addrCmp); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIPv4ChecksumFollowsFields(t *testing.T) {
	h := NewIPv4Header(netip.MustParseAddr("1.2.3.4"), netip.MustParseAddr("5.6.7.8"), 1, UDPHeaderLen)

	seen := make(map[uint16]uint8)
	for ttl := 1; ttl <= 255; ttl++ {
		h.TTL = uint8(ttl)
		h.Checksum = 0xdead // stale value must be ignored
		b, err := h.Marshal()
		if err != nil {
			t.Fatalf("Marshal ttl %d: %s", ttl, err)
		}
		if !ChecksumValid(b) {
			t.Fatalf("ttl %d: stale checksum", ttl)
		}
		parsed, _ := ParseIPv4(b)
		if prev, ok := seen[parsed.Checksum]; ok {
			t.Fatalf("ttl %d and %d share checksum %#04x", prev, ttl, parsed.Checksum)
		}
		seen[parsed.Checksum] = uint8(ttl)
	}
}

func TestIPv4MarshalErrors(t *testing.T) {
	valid := NewIPv4Header(netip.MustParseAddr("1.2.3.4"), netip.MustParseAddr("5.6.7.8"), 1, UDPHeaderLen)

	tests := []struct {
		name   string
		mutate func(h *IPv4Header)
		want   error
	}{
		{"options", func(h *IPv4Header) { h.IHL = 6 }, ErrHeaderLength},
		{"version", func(h *IPv4Header) { h.Version = 6 }, ErrVersion},
		{"short total", func(h *IPv4Header) { h.TotalLen = 19 }, ErrTotalLength},
		{"v6 source", func(h *IPv4Header) { h.Src = netip.MustParseAddr("2001:db8::1") }, ErrNotIPv4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := valid
			tt.mutate(&h)
			_, err := h.Marshal()
			if !errors.Is(err, tt.want) {
				t.Fatalf("Marshal error = %v, want %v", err, tt.want)
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Errorf("error %T is not an *EncodingError", err)
			}
		})
	}

	if err := valid.MarshalTo(make([]byte, 10)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("MarshalTo short buffer error = %v", err)
	}
}

func TestParseIPv4Errors(t *testing.T) {
	if _, err := ParseIPv4(make([]byte, 19)); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer error = %v", err)
	}

	b := make([]byte, IPv4HeaderLen)
	b[0] = 0x65
	if _, err := ParseIPv4(b); !errors.Is(err, ErrVersion) {
		t.Errorf("version error = %v", err)
	}

	b[0] = 0x46
	if _, err := ParseIPv4(b); !errors.Is(err, ErrHeaderLength) {
		t.Errorf("ihl error = %v", err)
	}
}

// x/net parses TotalLen in host order on BSD flavours, compare on Linux only.
func TestIPv4MatchesXNet(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("header byte order differs on", runtime.GOOS)
	}

	h := NewIPv4Header(netip.MustParseAddr("192.0.2.10"), netip.MustParseAddr("203.0.113.5"), 7, UDPHeaderLen+12)
	h.ID = 4242

	b, err := h.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}

	x, err := ipv4.ParseHeader(b)
	if err != nil {
		t.Fatalf("ipv4.ParseHeader: %s", err)
	}

	got, _ := ParseIPv4(b)
	switch {
	case x.Version != int(h.Version), x.Len != IPv4HeaderLen:
		t.Errorf("version/len mismatch: %v", x)
	case x.TotalLen != int(h.TotalLen), x.ID != int(h.ID), x.TTL != int(h.TTL):
		t.Errorf("length/id/ttl mismatch: %v", x)
	case x.Protocol != ProtocolUDP, x.Checksum != int(got.Checksum):
		t.Errorf("protocol/checksum mismatch: %v", x)
	case !x.Src.Equal(net.IP(h.Src.AsSlice())), !x.Dst.Equal(net.IP(h.Dst.AsSlice())):
		t.Errorf("address mismatch: %v", x)
	}
}
