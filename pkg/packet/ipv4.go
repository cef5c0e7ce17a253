package packet

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// IPv4Header is a fixed 20 byte IPv4 header without options.
type IPv4Header struct {
	Version  uint8  // always 4
	IHL      uint8  // header length in 32-bit words, always 5
	TOS      uint8  // DSCP + ECN
	TotalLen uint16 // header + payload
	ID       uint16
	Flags    uint8  // 3 bits
	FragOff  uint16 // 13 bits
	TTL      uint8
	Protocol uint8
	Checksum uint16 // filled in by Marshal
	Src      netip.Addr
	Dst      netip.Addr
}

// NewIPv4Header returns a UDP carrying header for a payload of payloadLen
// bytes (UDP header included).
func NewIPv4Header(src, dst netip.Addr, ttl uint8, payloadLen int) IPv4Header {
	return IPv4Header{
		Version:  ipv4Version,
		IHL:      ipv4IHL,
		TotalLen: uint16(IPv4HeaderLen + payloadLen),
		TTL:      ttl,
		Protocol: ProtocolUDP,
		Src:      src,
		Dst:      dst,
	}
}

func (h IPv4Header) String() string {
	return fmt.Sprintf("ver=%d ihl=%d tos=%#02x len=%d id=%d flags=%#x off=%d ttl=%d proto=%d sum=%#04x src=%s dst=%s",
		h.Version, h.IHL, h.TOS, h.TotalLen, h.ID, h.Flags, h.FragOff, h.TTL, h.Protocol, h.Checksum, h.Src, h.Dst)
}

func (h IPv4Header) validate() error {
	if h.Version != ipv4Version {
		return &EncodingError{Field: "version", Err: ErrVersion}
	}
	if h.IHL != ipv4IHL {
		return &EncodingError{Field: "ihl", Err: ErrHeaderLength}
	}
	if h.TotalLen < IPv4HeaderLen {
		return &EncodingError{Field: "total length", Err: ErrTotalLength}
	}
	if h.Src.IsValid() && !h.Src.Unmap().Is4() {
		return &EncodingError{Field: "source", Err: ErrNotIPv4}
	}
	if h.Dst.IsValid() && !h.Dst.Unmap().Is4() {
		return &EncodingError{Field: "destination", Err: ErrNotIPv4}
	}
	return nil
}

// Marshal serializes the header in network byte order. The checksum is
// always recomputed over the encoded bytes; the Checksum field is ignored.
func (h IPv4Header) Marshal() ([]byte, error) {
	b := make([]byte, IPv4HeaderLen)
	if err := h.MarshalTo(b); err != nil {
		return nil, err
	}
	return b, nil
}

// MarshalTo is Marshal writing into the first 20 bytes of b.
func (h IPv4Header) MarshalTo(b []byte) error {
	if err := h.validate(); err != nil {
		return err
	}
	if len(b) < IPv4HeaderLen {
		return &EncodingError{Field: "buffer", Err: ErrShortBuffer}
	}

	b[0] = h.Version<<4 | h.IHL&0x0f
	b[1] = h.TOS
	binary.BigEndian.PutUint16(b[2:4], h.TotalLen)
	binary.BigEndian.PutUint16(b[4:6], h.ID)
	binary.BigEndian.PutUint16(b[6:8], uint16(h.Flags&0x07)<<13|h.FragOff&0x1fff)
	b[8] = h.TTL
	b[9] = h.Protocol
	b[10], b[11] = 0, 0
	src := as4(h.Src)
	dst := as4(h.Dst)
	copy(b[12:16], src[:])
	copy(b[16:20], dst[:])

	binary.BigEndian.PutUint16(b[10:12], Checksum(b[:IPv4HeaderLen]))
	return nil
}

// ParseIPv4 decodes the first 20 bytes of b. Headers with options are
// rejected.
func ParseIPv4(b []byte) (IPv4Header, error) {
	var h IPv4Header
	if len(b) < IPv4HeaderLen {
		return h, ErrShortBuffer
	}

	h.Version = b[0] >> 4
	h.IHL = b[0] & 0x0f
	if h.Version != ipv4Version {
		return h, ErrVersion
	}
	if h.IHL != ipv4IHL {
		return h, ErrHeaderLength
	}

	h.TOS = b[1]
	h.TotalLen = binary.BigEndian.Uint16(b[2:4])
	h.ID = binary.BigEndian.Uint16(b[4:6])
	flagsOff := binary.BigEndian.Uint16(b[6:8])
	h.Flags = uint8(flagsOff >> 13)
	h.FragOff = flagsOff & 0x1fff
	h.TTL = b[8]
	h.Protocol = b[9]
	h.Checksum = binary.BigEndian.Uint16(b[10:12])
	h.Src = netip.AddrFrom4([4]byte{b[12], b[13], b[14], b[15]})
	h.Dst = netip.AddrFrom4([4]byte{b[16], b[17], b[18], b[19]})

	return h, nil
}
