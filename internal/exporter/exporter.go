package exporter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/SyntropyNet/syntropy-tracer/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	pkgName = "PrometheusExporter. "
	cmd     = "EXPORTER"
)

type ProbeMetrics struct {
	port uint16
	reg  *prometheus.Registry
}

func New(port uint16, collector prometheus.Collector) (*ProbeMetrics, error) {
	obj := ProbeMetrics{
		port: port,
		reg:  prometheus.NewRegistry(),
	}

	err := obj.reg.Register(collector)
	if err != nil {
		return nil, err
	}

	return &obj, nil
}

func (obj *ProbeMetrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(obj.reg, promhttp.HandlerOpts{}))
	return mux
}

// Run starts serving /metrics in background. The listener is opened
// synchronously, so a busy port is reported here. Server stops when ctx is done.
func (obj *ProbeMetrics) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", obj.port))
	if err != nil {
		return fmt.Errorf("exporter listen: %w", err)
	}

	logger.Debug().Println(pkgName, "exporter starting on", ln.Addr())
	srv := http.Server{
		Handler:      obj.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Println(pkgName, err)
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Debug().Println(pkgName, "stopping", cmd)
		srv.Close()
	}()

	return nil
}
