package resolve

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/miekg/dns"
)

// startServer runs a DNS server on loopback answering from records.
func startServer(t *testing.T, records map[string]string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %s", err)
	}

	handler := func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		for _, q := range r.Question {
			ip, ok := records[q.Name]
			if !ok {
				m.SetRcode(r, dns.RcodeNameError)
				continue
			}
			if ip == "" {
				continue
			}
			rr, err := dns.NewRR(q.Name + " 60 IN A " + ip)
			if err != nil {
				t.Errorf("NewRR: %s", err)
				continue
			}
			m.Answer = append(m.Answer, rr)
		}
		w.WriteMsg(m)
	}

	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(handler),
		NotifyStartedFunc: func() { close(started) },
	}
	go srv.ActivateAndServe()
	<-started
	t.Cleanup(func() { srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSResolve(t *testing.T) {
	server := startServer(t, map[string]string{
		"probe.example.": "192.0.2.7",
		"empty.example.": "",
	})
	r := NewDNS(server)

	addr, err := r.Resolve(context.Background(), "probe.example")
	if err != nil {
		t.Fatalf("Resolve: %s", err)
	}
	if want := netip.MustParseAddr("192.0.2.7"); addr != want {
		t.Errorf("Resolve = %s, want %s", addr, want)
	}

	_, err = r.Resolve(context.Background(), "missing.example")
	var resErr *ResolveError
	if !errors.As(err, &resErr) || resErr.Host != "missing.example" {
		t.Errorf("Resolve missing host error = %v", err)
	}

	_, err = r.Resolve(context.Background(), "empty.example")
	if !errors.Is(err, ErrNoAddress) {
		t.Errorf("Resolve empty answer error = %v", err)
	}
}

func TestNewDNSPort(t *testing.T) {
	if got := NewDNS("192.0.2.53").Server(); got != "192.0.2.53:53" {
		t.Errorf("server = %q", got)
	}
	if got := NewDNS("192.0.2.53:5353").Server(); got != "192.0.2.53:5353" {
		t.Errorf("server = %q", got)
	}
}

func TestLiteral(t *testing.T) {
	resolvers := map[string]Resolver{
		"system": NewSystem(),
		// unreachable server: literals must not hit the network
		"dns": NewDNS("192.0.2.1"),
	}

	for name, r := range resolvers {
		t.Run(name, func(t *testing.T) {
			addr, err := r.Resolve(context.Background(), "198.51.100.1")
			if err != nil || addr != netip.MustParseAddr("198.51.100.1") {
				t.Errorf("Resolve literal = %s, %v", addr, err)
			}

			addr, err = r.Resolve(context.Background(), "::ffff:10.0.0.1")
			if err != nil || addr != netip.MustParseAddr("10.0.0.1") {
				t.Errorf("Resolve mapped literal = %s, %v", addr, err)
			}

			_, err = r.Resolve(context.Background(), "2001:db8::1")
			if !errors.Is(err, ErrNotIPv4) {
				t.Errorf("Resolve v6 literal error = %v", err)
			}
		})
	}
}

func TestSystemResolveFailure(t *testing.T) {
	// .invalid is reserved and never resolves (RFC 2606)
	_, err := NewSystem().Resolve(context.Background(), "no-such-host.invalid")
	var resErr *ResolveError
	if !errors.As(err, &resErr) || resErr.Host != "no-such-host.invalid" {
		t.Errorf("Resolve error = %v", err)
	}
}
