// Package tracer drives one traceroute sweep: it resolves the target,
// prepares the socket and hands it to the probe sequencer.
package tracer

import (
	"context"
	"errors"
	"net/netip"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
	"github.com/SyntropyNet/syntropy-tracer/pkg/netcfg"
	"github.com/SyntropyNet/syntropy-tracer/pkg/packet"
	"github.com/SyntropyNet/syntropy-tracer/pkg/pubip"
	"github.com/SyntropyNet/syntropy-tracer/pkg/resolve"
	"github.com/SyntropyNet/syntropy-tracer/pkg/sequencer"
	"github.com/SyntropyNet/syntropy-tracer/pkg/transport"
)

const pkgName = "Tracer. "

var ErrNoHost = errors.New("destination host is empty")

type Options struct {
	Mode     transport.Mode
	BindPort uint16
	// Probe is the sweep configuration. Src and Dst are filled in by Run.
	Probe sequencer.Config
	// NATCheck compares the probe source with the public address.
	NATCheck bool
}

type Tracer struct {
	host     string
	resolver resolve.Resolver
	opts     Options
	observer sequencer.Observer

	open       func(transport.Mode) (transport.Socket, error)
	sourceAddr func(netip.Addr) (netip.Addr, string, error)
	nat        func(netip.Addr) (netip.Addr, bool, error)
}

func New(host string, resolver resolve.Resolver, opts Options) (*Tracer, error) {
	if host == "" {
		return nil, ErrNoHost
	}
	if resolver == nil {
		resolver = resolve.NewSystem()
	}

	return &Tracer{
		host:       host,
		resolver:   resolver,
		opts:       opts,
		open:       transport.Open,
		sourceAddr: netcfg.SourceAddr,
		nat:        pubip.NAT,
	}, nil
}

// SetObserver forwards per probe events (e.g. to the metrics collector).
func (t *Tracer) SetObserver(o sequencer.Observer) {
	t.observer = o
}

// Run resolves the host, binds and connects the socket and sends the probes.
// Resolve and socket errors are returned before any probe is sent.
func (t *Tracer) Run(ctx context.Context) (sequencer.Stats, error) {
	var stats sequencer.Stats

	dst, err := t.resolver.Resolve(ctx, t.host)
	if err != nil {
		return stats, err
	}

	cfg := t.opts.Probe
	cfg.Dst = dst
	logger.Info().Printf("%straceroute to %s (%s), %d hops max, %d byte packets\n",
		pkgName, t.host, dst, cfg.MaxTTL, probeLen(cfg))

	sock, err := t.open(t.opts.Mode)
	if err != nil {
		return stats, err
	}
	defer sock.Close()

	local := netip.AddrPortFrom(netip.IPv4Unspecified(), t.opts.BindPort)
	if err = sock.Bind(local); err != nil {
		return stats, err
	}
	remote := netip.AddrPortFrom(dst, cfg.DstPortBase)
	if err = sock.Connect(remote); err != nil {
		return stats, err
	}

	cfg.Src = t.source(dst, sock)
	logger.Info().Println(pkgName, t.opts.Mode, "socket connected to", remote, "probe source", cfg.Src)

	if t.opts.NATCheck {
		t.checkNAT(cfg.Src)
	}

	seq, err := sequencer.New(cfg)
	if err != nil {
		return stats, err
	}
	if t.observer != nil {
		seq.SetObserver(t.observer)
	}

	stats, err = seq.Run(ctx, sock)
	logger.Info().Println(pkgName, "done:", stats.Sent, "sent,", stats.Failed, "failed,",
		stats.Bytes, "bytes, last ttl", stats.LastTTL)
	return stats, err
}

// source picks the header source address: the kernel route source first,
// then whatever address the connected socket got.
func (t *Tracer) source(dst netip.Addr, sock transport.Socket) netip.Addr {
	src, ifname, err := t.sourceAddr(dst)
	if err == nil {
		logger.Debug().Println(pkgName, "route to", dst, "via", ifname, "src", src)
		return src
	}
	logger.Debug().Println(pkgName, "route lookup:", err)

	ap, err := sock.LocalAddr()
	if err != nil || !ap.Addr().IsValid() || ap.Addr().IsUnspecified() {
		logger.Warning().Println(pkgName, "could not select source address, leaving it to the kernel")
		return netip.IPv4Unspecified()
	}
	return ap.Addr()
}

func (t *Tracer) checkNAT(src netip.Addr) {
	if !src.IsValid() || src.IsUnspecified() {
		logger.Info().Println(pkgName, "NAT check skipped, probe source unknown")
		return
	}
	public, translated, err := t.nat(src)
	switch {
	case err != nil:
		logger.Warning().Println(pkgName, "NAT check failed:", err)
	case translated:
		logger.Warning().Println(pkgName, "source", src, "is translated to", public)
	default:
		logger.Info().Println(pkgName, "no NAT, public address", public)
	}
}

func probeLen(cfg sequencer.Config) int {
	return packet.ProbeLen + cfg.PayloadSize
}
