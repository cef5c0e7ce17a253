package packet

import (
	"encoding/binary"
	"net/netip"
)

// Probe describes one UDP probe datagram.
type Probe struct {
	Src, Dst         netip.Addr
	SrcPort, DstPort uint16
	TTL              uint8
	ID               uint16
	Payload          []byte
	// UDPChecksum enables the pseudo-header checksum. Otherwise it is sent
	// as zero.
	UDPChecksum bool
}

// Build encodes p as one IPv4 + UDP + payload buffer, ready to be sent.
// Headers are constructed fresh on every call.
func Build(p Probe) ([]byte, error) {
	total := ProbeLen + len(p.Payload)
	if total > MaxPacketLen {
		return nil, &EncodingError{Field: "total length", Err: ErrTotalLength}
	}

	buf := make([]byte, total)

	ip := NewIPv4Header(p.Src, p.Dst, p.TTL, UDPHeaderLen+len(p.Payload))
	ip.ID = p.ID
	if err := ip.MarshalTo(buf[:IPv4HeaderLen]); err != nil {
		return nil, err
	}

	udp := UDPHeader{
		SrcPort: p.SrcPort,
		DstPort: p.DstPort,
		Length:  uint16(UDPHeaderLen + len(p.Payload)),
	}
	segment := buf[IPv4HeaderLen:]
	if err := udp.MarshalTo(segment); err != nil {
		return nil, err
	}
	copy(segment[UDPHeaderLen:], p.Payload)

	if p.UDPChecksum {
		binary.BigEndian.PutUint16(segment[6:8], UDPChecksum(p.Src, p.Dst, segment))
	}

	return buf, nil
}
