package packet

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Dump returns a layer by layer description of an encoded IPv4 packet.
func Dump(b []byte) string {
	return gopacket.NewPacket(b, layers.LayerTypeIPv4, gopacket.Default).Dump()
}

// Summary returns a one line description of an encoded probe.
func Summary(b []byte) string {
	pkt := gopacket.NewPacket(b, layers.LayerTypeIPv4, gopacket.Default)

	ip, ok := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	if !ok {
		return fmt.Sprintf("undecodable packet (%d bytes)", len(b))
	}
	udp, ok := pkt.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return fmt.Sprintf("%s > %s ttl=%d id=%d len=%d proto=%s",
			ip.SrcIP, ip.DstIP, ip.TTL, ip.Id, ip.Length, ip.Protocol)
	}
	return fmt.Sprintf("%s:%d > %s:%d ttl=%d id=%d len=%d csum=%#04x",
		ip.SrcIP, udp.SrcPort, ip.DstIP, udp.DstPort, ip.TTL, ip.Id, ip.Length, ip.Checksum)
}
