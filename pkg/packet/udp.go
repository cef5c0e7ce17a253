package packet

import (
	"encoding/binary"
	"fmt"
)

// UDPHeader is the 8 byte UDP header. A zero Checksum means "unused",
// which is valid over IPv4.
type UDPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16 // header + payload, at least 8
	Checksum uint16
}

func (h UDPHeader) String() string {
	return fmt.Sprintf("sport=%d dport=%d len=%d sum=%#04x", h.SrcPort, h.DstPort, h.Length, h.Checksum)
}

func (h UDPHeader) Marshal() ([]byte, error) {
	b := make([]byte, UDPHeaderLen)
	if err := h.MarshalTo(b); err != nil {
		return nil, err
	}
	return b, nil
}

func (h UDPHeader) MarshalTo(b []byte) error {
	if h.Length < UDPHeaderLen {
		return &EncodingError{Field: "udp length", Err: ErrTotalLength}
	}
	if len(b) < UDPHeaderLen {
		return &EncodingError{Field: "buffer", Err: ErrShortBuffer}
	}

	binary.BigEndian.PutUint16(b[0:2], h.SrcPort)
	binary.BigEndian.PutUint16(b[2:4], h.DstPort)
	binary.BigEndian.PutUint16(b[4:6], h.Length)
	binary.BigEndian.PutUint16(b[6:8], h.Checksum)
	return nil
}

func ParseUDP(b []byte) (UDPHeader, error) {
	if len(b) < UDPHeaderLen {
		return UDPHeader{}, ErrShortBuffer
	}

	return UDPHeader{
		SrcPort:  binary.BigEndian.Uint16(b[0:2]),
		DstPort:  binary.BigEndian.Uint16(b[2:4]),
		Length:   binary.BigEndian.Uint16(b[4:6]),
		Checksum: binary.BigEndian.Uint16(b[6:8]),
	}, nil
}
