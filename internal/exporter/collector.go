package exporter

import (
	"errors"
	"net"
	"os"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

// ProbeCollector counts probes reported by the sequencer and exposes them
// to prometheus. Safe for concurrent use.
type ProbeCollector struct {
	sync.Mutex
	target string
	sent   map[int]float64
	failed map[string]float64
	bytes  float64
	ttl    int
}

func NewProbeCollector(target string) *ProbeCollector {
	return &ProbeCollector{
		target: target,
		sent:   make(map[int]float64),
		failed: make(map[string]float64),
	}
}

func (pc *ProbeCollector) ProbeSent(ttl int, n int) {
	pc.Lock()
	defer pc.Unlock()

	pc.sent[ttl]++
	pc.bytes += float64(n)
	pc.ttl = ttl
}

func (pc *ProbeCollector) ProbeFailed(ttl int, err error) {
	pc.Lock()
	defer pc.Unlock()

	pc.failed[errorReason(err)]++
	pc.ttl = ttl
}

// errorReason maps send errors to a small fixed label set.
func errorReason(err error) string {
	var errno syscall.Errno
	switch {
	case errors.As(err, &errno):
		return errno.Error()
	case errors.Is(err, os.ErrDeadlineExceeded):
		return "timeout"
	case errors.Is(err, net.ErrClosed):
		return "closed"
	default:
		return "other"
	}
}

func (pc *ProbeCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(pc, ch)
}

var (
	descSent = prometheus.NewDesc(
		"sytrace_probes_sent_total",
		"Probes handed to the socket",
		[]string{"target", "ttl"}, nil,
	)
	descFailed = prometheus.NewDesc(
		"sytrace_probe_errors_total",
		"Probes that could not be sent",
		[]string{"target", "reason"}, nil,
	)
	descBytes = prometheus.NewDesc(
		"sytrace_probe_bytes_total",
		"Bytes written to the socket",
		[]string{"target"}, nil,
	)
	descTTL = prometheus.NewDesc(
		"sytrace_probe_ttl",
		"TTL of the last probe attempted",
		[]string{"target"}, nil,
	)
)

func (pc *ProbeCollector) Collect(ch chan<- prometheus.Metric) {
	pc.Lock()
	defer pc.Unlock()

	for ttl, count := range pc.sent {
		ch <- prometheus.MustNewConstMetric(
			descSent, prometheus.CounterValue, count,
			pc.target, strconv.Itoa(ttl),
		)
	}
	for reason, count := range pc.failed {
		ch <- prometheus.MustNewConstMetric(
			descFailed, prometheus.CounterValue, count,
			pc.target, reason,
		)
	}
	ch <- prometheus.MustNewConstMetric(descBytes, prometheus.CounterValue, pc.bytes, pc.target)
	ch <- prometheus.MustNewConstMetric(descTTL, prometheus.GaugeValue, float64(pc.ttl), pc.target)
}
