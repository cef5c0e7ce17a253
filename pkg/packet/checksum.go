package packet

import (
	"encoding/binary"
	"net/netip"
)

// Checksum returns the Internet checksum (RFC 1071) of b.
// The checksum field inside b must be zeroed by the caller when computing,
// and left in place when validating.
func Checksum(b []byte) uint16 {
	return ^fold(sum(b, 0))
}

// ChecksumValid reports whether b, including its checksum field, sums to zero.
func ChecksumValid(b []byte) bool {
	return Checksum(b) == 0
}

// UDPChecksum computes the UDP checksum of segment (header + payload) over
// the IPv4 pseudo-header. The checksum field inside segment must be zero.
// A computed zero is returned as 0xffff since zero means "no checksum".
func UDPChecksum(src, dst netip.Addr, segment []byte) uint16 {
	s := pseudoHeaderSum(src, dst, len(segment))
	csum := ^fold(sum(segment, s))
	if csum == 0 {
		return 0xffff
	}
	return csum
}

func pseudoHeaderSum(src, dst netip.Addr, length int) uint32 {
	s4 := as4(src)
	d4 := as4(dst)

	var s uint32
	s += uint32(binary.BigEndian.Uint16(s4[0:2]))
	s += uint32(binary.BigEndian.Uint16(s4[2:4]))
	s += uint32(binary.BigEndian.Uint16(d4[0:2]))
	s += uint32(binary.BigEndian.Uint16(d4[2:4]))
	s += ProtocolUDP
	s += uint32(length)
	return s
}

func sum(b []byte, initial uint32) uint32 {
	s := initial
	for i := 0; i+1 < len(b); i += 2 {
		s += uint32(binary.BigEndian.Uint16(b[i : i+2]))
	}
	// odd trailing byte is padded with zero on the right
	if len(b)%2 == 1 {
		s += uint32(b[len(b)-1]) << 8
	}
	return s
}

func fold(s uint32) uint16 {
	for s>>16 != 0 {
		s = (s & 0xffff) + (s >> 16)
	}
	return uint16(s)
}

// as4 returns the 4 byte form of addr. Invalid (zero) addresses encode as
// 0.0.0.0, which lets the kernel pick the source on raw sockets.
func as4(addr netip.Addr) [4]byte {
	if !addr.IsValid() {
		return [4]byte{}
	}
	return addr.Unmap().As4()
}
