package packet

import (
	"bytes"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func TestBuild(t *testing.T) {
	p := Probe{
		Src:     netip.MustParseAddr("192.0.2.1"),
		Dst:     netip.MustParseAddr("198.51.100.2"),
		SrcPort: 4243,
		DstPort: 33434,
		TTL:     5,
		ID:      77,
	}

	b, err := Build(p)
	if err != nil {
		t.Fatalf("Build: %s", err)
	}
	if len(b) != ProbeLen {
		t.Fatalf("Build returned %d bytes, want %d", len(b), ProbeLen)
	}

	ip, err := ParseIPv4(b)
	if err != nil {
		t.Fatalf("ParseIPv4: %s", err)
	}
	udp, err := ParseUDP(b[IPv4HeaderLen:])
	if err != nil {
		t.Fatalf("ParseUDP: %s", err)
	}

	if ip.TTL != 5 || ip.TotalLen != ProbeLen || ip.ID != 77 || ip.Protocol != ProtocolUDP {
		t.Errorf("unexpected ip header %s", ip)
	}
	if !ChecksumValid(b[:IPv4HeaderLen]) {
		t.Errorf("ip checksum does not validate")
	}
	want := UDPHeader{SrcPort: 4243, DstPort: 33434, Length: UDPHeaderLen}
	if diff := cmp.Diff(want, udp); diff != "" {
		t.Errorf("udp header mismatch (-want +got):\n%s", diff)
	}
}

// Packets built here must be byte identical to what gopacket serializes for
// the same fields.
func TestBuildMatchesGopacket(t *testing.T) {
	tests := []struct {
		name  string
		probe Probe
	}{
		{"empty payload", Probe{TTL: 1, SrcPort: 4243, DstPort: 33434}},
		{"payload", Probe{TTL: 30, ID: 9, SrcPort: 5000, DstPort: 33500, Payload: []byte("syntropy")}},
		{"odd payload", Probe{TTL: 255, ID: 0xffff, SrcPort: 1, DstPort: 65535, Payload: []byte{1, 2, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.probe.Src = netip.MustParseAddr("10.10.0.1")
			tt.probe.Dst = netip.MustParseAddr("10.20.0.2")
			tt.probe.UDPChecksum = true

			got, err := Build(tt.probe)
			if err != nil {
				t.Fatalf("Build: %s", err)
			}

			ip := &layers.IPv4{
				Version:  4,
				TTL:      tt.probe.TTL,
				Id:       tt.probe.ID,
				Protocol: layers.IPProtocolUDP,
				SrcIP:    tt.probe.Src.AsSlice(),
				DstIP:    tt.probe.Dst.AsSlice(),
			}
			udp := &layers.UDP{
				SrcPort: layers.UDPPort(tt.probe.SrcPort),
				DstPort: layers.UDPPort(tt.probe.DstPort),
			}
			if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
				t.Fatalf("SetNetworkLayerForChecksum: %s", err)
			}

			buf := gopacket.NewSerializeBuffer()
			opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
			if err := gopacket.SerializeLayers(buf, opts, ip, udp, gopacket.Payload(tt.probe.Payload)); err != nil {
				t.Fatalf("SerializeLayers: %s", err)
			}

			if !bytes.Equal(buf.Bytes(), got) {
				t.Errorf("packet mismatch\n got % x\nwant % x", got, buf.Bytes())
			}
		})
	}
}

func TestBuildTooLarge(t *testing.T) {
	_, err := Build(Probe{TTL: 1, Payload: make([]byte, MaxPacketLen)})
	if !errors.Is(err, ErrTotalLength) {
		t.Errorf("Build error = %v, want %v", err, ErrTotalLength)
	}
}

func TestBuildFreshHeaders(t *testing.T) {
	p := Probe{Dst: netip.MustParseAddr("192.0.2.99"), SrcPort: 1, DstPort: 2, TTL: 1}
	first, _ := Build(p)
	p.TTL = 2
	second, _ := Build(p)

	if first[8] != 1 || second[8] != 2 {
		t.Errorf("ttl bytes %d, %d; want 1, 2", first[8], second[8])
	}
}

func TestDump(t *testing.T) {
	b, err := Build(Probe{
		Src:     netip.MustParseAddr("192.0.2.1"),
		Dst:     netip.MustParseAddr("192.0.2.2"),
		SrcPort: 4243,
		DstPort: 33434,
		TTL:     3,
	})
	if err != nil {
		t.Fatalf("Build: %s", err)
	}

	if dump := Dump(b); !strings.Contains(dump, "IPv4") || !strings.Contains(dump, "UDP") {
		t.Errorf("unexpected dump:\n%s", dump)
	}

	want := "192.0.2.1:4243 > 192.0.2.2:33434 ttl=3 id=0 len=28"
	if got := Summary(b); !strings.HasPrefix(got, want) {
		t.Errorf("Summary = %q, want prefix %q", got, want)
	}
}
