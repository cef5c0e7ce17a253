package transport

import (
	"net/netip"

	"golang.org/x/sys/unix"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
)

// RawSocket writes complete IPv4 packets (IP_HDRINCL).
// The kernel still fills in the header checksum, total length and, when
// zero, the source address and identification.
type RawSocket struct {
	fd        int
	remote    *unix.SockaddrInet4
	bound     bool
	connected bool
	closed    bool
}

// NewRawSocket opens the raw socket. NOTE: this requires root or CAP_NET_RAW.
func NewRawSocket() (*RawSocket, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.IPPROTO_RAW)
	if err != nil {
		return nil, &SocketError{Op: "open raw", Err: err}
	}

	err = unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1)
	if err != nil {
		unix.Close(fd)
		return nil, &SocketError{Op: "setsockopt IP_HDRINCL", Err: err}
	}

	return &RawSocket{fd: fd}, nil
}

// Bind pins the local address. Raw sockets have no ports, so it is ignored.
func (s *RawSocket) Bind(local netip.AddrPort) error {
	if s.closed {
		return &SocketError{Op: "bind", Addr: local, Err: ErrClosed}
	}
	if s.bound {
		return &SocketError{Op: "bind", Addr: local, Err: ErrAlreadyBound}
	}
	sa, err := sockaddr4(netip.AddrPortFrom(local.Addr(), 0))
	if err != nil {
		return &SocketError{Op: "bind", Addr: local, Err: err}
	}

	if err := unix.Bind(s.fd, sa); err != nil {
		return &SocketError{Op: "bind", Addr: local, Err: err}
	}
	s.bound = true

	logger.Debug().Println(pkgName, "raw socket bound to", local.Addr())
	return nil
}

func (s *RawSocket) Connect(remote netip.AddrPort) error {
	if s.closed {
		return &SocketError{Op: "connect", Addr: remote, Err: ErrClosed}
	}
	sa, err := sockaddr4(netip.AddrPortFrom(remote.Addr(), 0))
	if err != nil {
		return &SocketError{Op: "connect", Addr: remote, Err: err}
	}

	if err := unix.Connect(s.fd, sa); err != nil {
		return &SocketError{Op: "connect", Addr: remote, Err: err}
	}
	s.remote = sa
	s.connected = true

	logger.Debug().Println(pkgName, "raw socket connected to", remote.Addr())
	return nil
}

func (s *RawSocket) Send(b []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.connected {
		return 0, ErrNotConnected
	}

	return writeRetry(func() (int, error) {
		if err := unix.Sendto(s.fd, b, 0, s.remote); err != nil {
			return 0, err
		}
		return len(b), nil
	})
}

// SetTTL is a no-op: the TTL travels in the crafted header.
func (s *RawSocket) SetTTL(ttl int) error {
	return nil
}

func (s *RawSocket) LocalAddr() (netip.AddrPort, error) {
	if s.closed {
		return netip.AddrPort{}, ErrClosed
	}
	sa, err := unix.Getsockname(s.fd)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortFromSockaddr(sa)
}

func (s *RawSocket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}
