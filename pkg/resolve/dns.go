package resolve

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/miekg/dns"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
)

const (
	dnsPort        = "53"
	defaultTimeout = 2 * time.Second
)

// DNS asks one explicit DNS server for A records, bypassing system
// resolver configuration.
type DNS struct {
	server string
	client *dns.Client
}

// NewDNS returns resolver querying server ("host" or "host:port").
func NewDNS(server string) *DNS {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, dnsPort)
	}

	return &DNS{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: defaultTimeout},
	}
}

func (r *DNS) Server() string {
	return r.server
}

func (r *DNS) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, ok, err := literal(host); ok {
		return addr, err
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	in, rtt, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return netip.Addr{}, &ResolveError{Host: host, Err: err}
	}
	logger.Debug().Println(pkgName, "query", host, "@", r.server, "took", rtt)

	if in.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, &ResolveError{Host: host, Err: fmt.Errorf("server %s: %s", r.server, dns.RcodeToString[in.Rcode])}
	}

	// Recursive servers put the CNAME chain first and A records after it
	for _, rr := range in.Answer {
		a, ok := rr.(*dns.A)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(a.A); ok && addr.Unmap().Is4() {
			return addr.Unmap(), nil
		}
	}

	return netip.Addr{}, &ResolveError{Host: host, Err: ErrNoAddress}
}
