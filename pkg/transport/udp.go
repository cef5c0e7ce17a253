package transport

import (
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
)

// UDPSocket is a kernel UDP socket. Probes travel as datagram payload,
// the outer datagram TTL follows the probe TTL through SetTTL.
type UDPSocket struct {
	conn      *net.UDPConn
	ipc       *ipv4.Conn
	remote    netip.AddrPort
	connected bool
	closed    bool
}

func NewUDPSocket() *UDPSocket {
	return &UDPSocket{}
}

func (s *UDPSocket) Bind(local netip.AddrPort) error {
	if s.closed {
		return &SocketError{Op: "bind", Addr: local, Err: ErrClosed}
	}
	if s.conn != nil {
		return &SocketError{Op: "bind", Addr: local, Err: ErrAlreadyBound}
	}
	if !local.Addr().Unmap().Is4() {
		return &SocketError{Op: "bind", Addr: local, Err: ErrNotIPv4}
	}

	conn, err := net.ListenUDP("udp4", net.UDPAddrFromAddrPort(local))
	if err != nil {
		return &SocketError{Op: "bind", Addr: local, Err: err}
	}
	s.conn = conn
	s.ipc = ipv4.NewConn(conn)

	logger.Debug().Println(pkgName, "udp socket bound to", conn.LocalAddr())
	return nil
}

// Connect fixes the remote address in the kernel, the same way connect(2)
// does on a bound socket.
func (s *UDPSocket) Connect(remote netip.AddrPort) error {
	if s.conn == nil {
		return &SocketError{Op: "connect", Addr: remote, Err: ErrNotBound}
	}
	sa, err := sockaddr4(remote)
	if err != nil {
		return &SocketError{Op: "connect", Addr: remote, Err: err}
	}

	rc, err := s.conn.SyscallConn()
	if err != nil {
		return &SocketError{Op: "connect", Addr: remote, Err: err}
	}
	var opErr error
	err = rc.Control(func(fd uintptr) {
		opErr = unix.Connect(int(fd), sa)
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		return &SocketError{Op: "connect", Addr: remote, Err: err}
	}

	s.remote = remote
	s.connected = true
	logger.Debug().Println(pkgName, "udp socket connected to", remote)
	return nil
}

func (s *UDPSocket) Send(b []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.connected {
		return 0, ErrNotConnected
	}

	return writeRetry(func() (int, error) {
		return s.conn.Write(b)
	})
}

func (s *UDPSocket) SetTTL(ttl int) error {
	if s.ipc == nil {
		return ErrNotBound
	}
	return s.ipc.SetTTL(ttl)
}

func (s *UDPSocket) LocalAddr() (netip.AddrPort, error) {
	if s.conn == nil {
		return netip.AddrPort{}, ErrNotBound
	}

	rc, err := s.conn.SyscallConn()
	if err != nil {
		return netip.AddrPort{}, err
	}
	var sa unix.Sockaddr
	var opErr error
	err = rc.Control(func(fd uintptr) {
		sa, opErr = unix.Getsockname(int(fd))
	})
	if err == nil {
		err = opErr
	}
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortFromSockaddr(sa)
}

func (s *UDPSocket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
