// Package sequencer sends one UDP probe per TTL, from 1 to a configured
// maximum, paced by a fixed delay.
package sequencer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
	"github.com/SyntropyNet/syntropy-tracer/pkg/packet"
)

type Sequencer struct {
	cfg      Config
	payload  []byte
	observer Observer
}

func New(cfg Config) (*Sequencer, error) {
	if cfg.MaxTTL < 1 || cfg.MaxTTL > maxTTL {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTTL, cfg.MaxTTL)
	}
	if cfg.Delay < 0 {
		return nil, ErrInvalidDelay
	}
	if cfg.PerHopPorts && int(cfg.DstPortBase)+cfg.MaxTTL-1 > maxPort {
		return nil, fmt.Errorf("%w: %d + %d", ErrPortRange, cfg.DstPortBase, cfg.MaxTTL-1)
	}
	if cfg.PayloadSize < 0 || packet.ProbeLen+cfg.PayloadSize > packet.MaxPacketLen {
		return nil, fmt.Errorf("%w: %d", ErrPayloadSize, cfg.PayloadSize)
	}

	s := &Sequencer{cfg: cfg}
	if cfg.PayloadSize > 0 {
		s.payload = bytes.Repeat([]byte{1}, cfg.PayloadSize)
	}
	return s, nil
}

// SetObserver registers per probe event receiver. Must be called before Run.
func (s *Sequencer) SetObserver(o Observer) {
	s.observer = o
}

func (s *Sequencer) Config() Config {
	return s.cfg
}

// DstPort returns the destination port used for the probe with given ttl.
func (s *Sequencer) DstPort(ttl int) uint16 {
	if !s.cfg.PerHopPorts {
		return s.cfg.DstPortBase
	}
	return s.cfg.DstPortBase + uint16(ttl-1)
}

func (s *Sequencer) probe(ttl int) packet.Probe {
	return packet.Probe{
		Src:         s.cfg.Src,
		Dst:         s.cfg.Dst,
		SrcPort:     s.cfg.SrcPort,
		DstPort:     s.DstPort(ttl),
		TTL:         uint8(ttl),
		ID:          s.cfg.IPID + uint16(ttl-1),
		Payload:     s.payload,
		UDPChecksum: s.cfg.UDPChecksum,
	}
}

// Run sends MaxTTL probes with ttl 1, 2, ... MaxTTL through sender.
// A failed send is logged and counted but does not stop the sweep.
// Cancellation is checked between probes; Run then returns ctx.Err().
// An encoding error means the probe layout is broken and is returned at once.
func (s *Sequencer) Run(ctx context.Context, sender Sender) (Stats, error) {
	var stats Stats
	if sender == nil {
		return stats, ErrNilSender
	}
	ttlSetter, _ := sender.(TTLSetter)

	for ttl := 1; ttl <= s.cfg.MaxTTL; ttl++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.LastTTL = ttl

		buf, err := packet.Build(s.probe(ttl))
		if err != nil {
			logger.Error().Println(pkgName, "ttl", ttl, "encoding failed:", err)
			return stats, err
		}
		if logger.Enabled(logger.DebugLevel) {
			logger.Debug().Println(pkgName, "probe", packet.Summary(buf))
		}

		n, err := s.send(ttlSetter, sender, ttl, buf)
		if err != nil {
			stats.Failed++
			logger.Warning().Println(pkgName, "ttl", ttl, "send to", s.cfg.Dst, "failed:", err)
			if s.observer != nil {
				s.observer.ProbeFailed(ttl, err)
			}
		} else {
			stats.Sent++
			stats.Bytes += n
			logger.Info().Println(pkgName, "ttl", ttl, "probe sent,", n, "bytes")
			if s.observer != nil {
				s.observer.ProbeSent(ttl, n)
			}
		}

		if ttl < s.cfg.MaxTTL {
			if err := sleep(ctx, s.cfg.Delay); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

func (s *Sequencer) send(ttlSetter TTLSetter, sender Sender, ttl int, buf []byte) (int, error) {
	if ttlSetter != nil {
		if err := ttlSetter.SetTTL(ttl); err != nil {
			return 0, fmt.Errorf("set ttl: %w", err)
		}
	}

	n, err := sender.Send(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
