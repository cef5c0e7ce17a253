// Package packet builds IPv4 and UDP probe headers field by field in
// network byte order.
package packet

import (
	"errors"
	"fmt"
)

const (
	IPv4HeaderLen = 20
	UDPHeaderLen  = 8
	ProbeLen      = IPv4HeaderLen + UDPHeaderLen
	MaxPacketLen  = 0xffff

	ProtocolUDP = 17

	ipv4Version = 4
	ipv4IHL     = IPv4HeaderLen / 4
)

var (
	ErrVersion      = errors.New("invalid ip version")
	ErrHeaderLength = errors.New("invalid header length")
	ErrTotalLength  = errors.New("invalid total length")
	ErrShortBuffer  = errors.New("buffer too short")
	ErrNotIPv4      = errors.New("not an IPv4 address")
)

// EncodingError reports a header that violates the fixed 20 byte, no options
// layout. It is a caller bug, never a runtime condition.
type EncodingError struct {
	Field string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %s", e.Field, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}
