// Package transport provides the sockets probes are written to.
package transport

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/sys/unix"
)

const pkgName = "Transport. "

var (
	ErrNotBound     = errors.New("socket not bound")
	ErrAlreadyBound = errors.New("socket already bound")
	ErrNotConnected = errors.New("socket not connected")
	ErrClosed       = errors.New("socket closed")
	ErrNotIPv4      = errors.New("not an IPv4 address")
	ErrUnknownMode  = errors.New("unknown socket mode")
)

// Socket is a connected datagram socket carrying encoded probes.
type Socket interface {
	Bind(local netip.AddrPort) error
	Connect(remote netip.AddrPort) error
	Send(b []byte) (int, error)
	// SetTTL sets the TTL of datagrams the kernel builds for this socket.
	SetTTL(ttl int) error
	// LocalAddr returns the address the kernel selected for this socket.
	LocalAddr() (netip.AddrPort, error)
	Close() error
}

// SocketError reports a failed socket setup step.
type SocketError struct {
	Op   string
	Addr netip.AddrPort
	Err  error
}

func (e *SocketError) Error() string {
	if e.Addr.IsValid() {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error {
	return e.Err
}

type Mode int

const (
	// ModeUDP sends the crafted packet as payload of a kernel UDP datagram.
	ModeUDP Mode = iota
	// ModeRaw puts the crafted packet on the wire as is. Requires root.
	ModeRaw
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "udp":
		return ModeUDP, nil
	case "raw":
		return ModeRaw, nil
	default:
		return ModeUDP, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeUDP:
		return "udp"
	case ModeRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Open creates an unbound socket of given mode.
func Open(m Mode) (Socket, error) {
	switch m {
	case ModeUDP:
		return NewUDPSocket(), nil
	case ModeRaw:
		return NewRawSocket()
	default:
		return nil, &SocketError{Op: "open", Err: ErrUnknownMode}
	}
}

func sockaddr4(ap netip.AddrPort) (*unix.SockaddrInet4, error) {
	addr := ap.Addr().Unmap()
	if !addr.Is4() {
		return nil, ErrNotIPv4
	}
	return &unix.SockaddrInet4{Port: int(ap.Port()), Addr: addr.As4()}, nil
}

func addrPortFromSockaddr(sa unix.Sockaddr) (netip.AddrPort, error) {
	sa4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return netip.AddrPort{}, ErrNotIPv4
	}
	return netip.AddrPortFrom(netip.AddrFrom4(sa4.Addr), uint16(sa4.Port)), nil
}
