package sequencer

import (
	"errors"
	"net/netip"
	"time"
)

const (
	pkgName = "ProbeSequencer. "

	DefaultMaxTTL = 255
	DefaultDelay  = 100 * time.Millisecond

	maxTTL  = 255
	maxPort = 0xffff
)

var (
	ErrInvalidTTL   = errors.New("max ttl must be in range 1..255")
	ErrPortRange    = errors.New("destination port range overflows")
	ErrPayloadSize  = errors.New("payload too large")
	ErrInvalidDelay = errors.New("negative probe delay")
	ErrNilSender    = errors.New("nil sender")
)

// Sender transmits one encoded probe. It may block on socket buffer
// pressure; the sequencer waits rather than dropping the probe.
type Sender interface {
	Send(b []byte) (int, error)
}

// SenderFunc adapts a plain function to Sender.
type SenderFunc func(b []byte) (int, error)

func (f SenderFunc) Send(b []byte) (int, error) {
	return f(b)
}

// TTLSetter is implemented by senders whose own socket TTL must follow the
// probe TTL (e.g. when the crafted packet travels as a UDP payload).
type TTLSetter interface {
	SetTTL(ttl int) error
}

// Observer receives per probe events.
type Observer interface {
	ProbeSent(ttl int, n int)
	ProbeFailed(ttl int, err error)
}

type Config struct {
	Src netip.Addr // zero value lets the kernel fill in the source
	Dst netip.Addr

	SrcPort     uint16
	DstPortBase uint16
	// PerHopPorts makes destination port = base + ttl - 1, so replies can be
	// matched to the probe that triggered them.
	PerHopPorts bool

	MaxTTL int
	Delay  time.Duration

	PayloadSize int
	UDPChecksum bool

	// IPID is the identification of the first probe, incremented per probe.
	IPID uint16
}

// DefaultConfig returns a config with default sweep length and pacing.
func DefaultConfig(dst netip.Addr) Config {
	return Config{
		Dst:         dst,
		SrcPort:     4243,
		DstPortBase: 33434,
		PerHopPorts: true,
		MaxTTL:      DefaultMaxTTL,
		Delay:       DefaultDelay,
	}
}

type Stats struct {
	Sent    int // probes handed to the socket
	Failed  int // probes that could not be sent
	Bytes   int // bytes written
	LastTTL int // last ttl attempted
}
