package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/SyntropyNet/syntropy-tracer/internal/config"
	"github.com/SyntropyNet/syntropy-tracer/internal/exporter"
	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
	"github.com/SyntropyNet/syntropy-tracer/internal/tracer"
	"github.com/SyntropyNet/syntropy-tracer/pkg/netcfg"
	"github.com/SyntropyNet/syntropy-tracer/pkg/packet"
	"github.com/SyntropyNet/syntropy-tracer/pkg/resolve"
	"github.com/SyntropyNet/syntropy-tracer/pkg/sequencer"
	"github.com/SyntropyNet/syntropy-tracer/pkg/transport"
)

const fullAppName = "Syntropy Tracer. "

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] <host>\n", os.Args[0])
	flag.PrintDefaults()
}

func setupLogger() {
	var w io.Writer = os.Stdout
	if config.JSONLog() {
		w = logger.NewJSONWriter(os.Stdout)
	}
	logger.SetupGlobalLoger(config.GetDebugLevel(), w)
}

func newResolver() resolve.Resolver {
	if srv := config.DNSServer(); srv != "" {
		dns := resolve.NewDNS(srv)
		logger.Debug().Println(fullAppName, "using DNS server", dns.Server())
		return dns
	}
	return resolve.NewSystem()
}

func probeConfig() sequencer.Config {
	return sequencer.Config{
		SrcPort:     config.SrcPort(),
		DstPortBase: config.DstPortBase(),
		PerHopPorts: config.PerHopPorts(),
		MaxTTL:      config.MaxTTL(),
		Delay:       config.ProbeDelay(),
		PayloadSize: config.PayloadSize(),
		UDPChecksum: config.UDPChecksum(),
		IPID:        uint16(os.Getpid()),
	}
}

var errFlagRange = errors.New("out of range")

func checkRange(name string, val, min, max int) error {
	if val < min || val > max {
		return fmt.Errorf("-%s %d %w %d..%d", name, val, errFlagRange, min, max)
	}
	return nil
}

// serveMetrics keeps the exporter up after a sweep so the final values can
// be scraped. It returns at once if the sweep never started.
func serveMetrics(ctx context.Context, port uint16, stats sequencer.Stats, err error) {
	var encErr *packet.EncodingError
	if stats.LastTTL == 0 || errors.As(err, &encErr) || ctx.Err() != nil {
		return
	}
	logger.Info().Println(fullAppName, "serving metrics on port", port, "until interrupted")
	<-ctx.Done()
}

// errorExitCode maps run errors to errno.h style codes.
func errorExitCode(err error) int {
	var (
		resErr  *resolve.ResolveError
		sockErr *transport.SocketError
		encErr  *packet.EncodingError
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 0
	case errors.As(err, &resErr):
		return -6 // errno.h -ENXIO
	case errors.As(err, &sockErr):
		if errors.Is(err, os.ErrPermission) {
			return -13 // errno.h -EACCES
		}
		return -5 // errno.h -EIO
	case errors.As(err, &encErr):
		return -22 // errno.h -EINVAL
	default:
		return -22
	}
}

func main() {
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	execName := os.Args[0]

	showVersionAndExit := flag.Bool("version", false, "Show version and exit")
	verbose := flag.Bool("v", false, "Debug logging")
	maxTTL := flag.Int("m", config.DefaultMaxTTL, "Max number of hops (1..255)")
	delayMs := flag.Uint("z", uint(config.DefaultDelay/time.Millisecond), "Delay between probes in milliseconds")
	srcPort := flag.Uint("s", config.DefaultSrcPort, "UDP source port written in probe header")
	dstPort := flag.Uint("p", 0, "Base destination port (default 33434 + random 1..100)")
	payload := flag.Int("l", 0, "Probe payload size in bytes")
	raw := flag.Bool("raw", false, "Send probes through a raw IP socket (requires root)")
	flag.Usage = usage

	flag.Parse()
	if *showVersionAndExit {
		fmt.Printf("%s (%s):\t%s\n\n", fullAppName, execName, config.GetFullVersion())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return
	}
	host := flag.Arg(0)

	config.Init()
	defer config.Close()

	// Command line flags override environment
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if flagErr != nil {
			return
		}
		switch f.Name {
		case "v":
			if *verbose {
				config.SetDebugLevel(logger.DebugLevel)
			}
		case "m":
			if flagErr = checkRange("m", *maxTTL, 1, config.DefaultMaxTTL); flagErr == nil {
				config.SetMaxTTL(*maxTTL)
			}
		case "z":
			config.SetProbeDelay(time.Duration(*delayMs) * time.Millisecond)
		case "s":
			if flagErr = checkRange("s", int(*srcPort), 0, 0xffff); flagErr == nil {
				config.SetSrcPort(uint16(*srcPort))
			}
		case "p":
			if flagErr = checkRange("p", int(*dstPort), 1, 0xffff); flagErr == nil {
				config.SetDstPortBase(uint16(*dstPort))
			}
		case "l":
			if flagErr = checkRange("l", *payload, 0, packet.MaxPacketLen-packet.ProbeLen); flagErr == nil {
				config.SetPayloadSize(*payload)
			}
		case "raw":
			if *raw {
				config.SetMode(transport.ModeRaw.String())
			}
		}
	})
	if flagErr != nil {
		fmt.Fprintln(flag.CommandLine.Output(), flagErr)
		flag.Usage()
		exitCode = -22 // errno.h -EINVAL
		return
	}

	setupLogger()
	logger.Info().Println(fullAppName, execName, config.GetFullVersion(), "started.")

	mode, err := transport.ParseMode(config.Mode())
	if err != nil {
		logger.Error().Println(fullAppName, err)
		exitCode = -22 // errno.h -EINVAL
		return
	}

	if logger.Enabled(logger.DebugLevel) {
		if gw, ifname, err := netcfg.DefaultRoute(); err == nil {
			logger.Debug().Println(fullAppName, "default route via", gw, "dev", ifname)
		} else {
			logger.Debug().Println(fullAppName, "default route:", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	trace, err := tracer.New(host, newResolver(), tracer.Options{
		Mode:     mode,
		BindPort: config.BindPort(),
		Probe:    probeConfig(),
		NATCheck: config.NATCheck(),
	})
	if err != nil {
		logger.Error().Println(fullAppName, err)
		exitCode = -22 // errno.h -EINVAL
		return
	}

	exporting := false
	if config.MetricsExporterEnabled() {
		collector := exporter.NewProbeCollector(host)
		metrics, err := exporter.New(config.MetricsExporterPort(), collector)
		if err == nil {
			err = metrics.Run(ctx)
		}
		if err != nil {
			logger.Error().Println(fullAppName, "metrics exporter:", err)
		} else {
			trace.SetObserver(collector)
			exporting = true
		}
	}

	stats, err := trace.Run(ctx)
	if exporting {
		serveMetrics(ctx, config.MetricsExporterPort(), stats, err)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Println(fullAppName, "interrupted")
		} else {
			logger.Error().Println(fullAppName, err)
		}
		exitCode = errorExitCode(err)
	}
}
