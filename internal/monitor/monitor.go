// Package monitor serves Prometheus metrics for a running export, including
// the process memory and CPU usage.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Server exposes /metrics for a registry.
type Server struct {
	registry *prometheus.Registry
	memUsage prometheus.Gauge
	cpuUsage prometheus.Gauge
	proc     *process.Process
	interval time.Duration
	log      *zap.Logger
}

// New registers the process gauges on registry.
func New(registry *prometheus.Registry, log *zap.Logger) (*Server, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect own process: %w", err)
	}
	s := &Server{
		registry: registry,
		memUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pointadapt_memory_usage_megabytes",
			Help: "Resident memory in megabytes",
		}),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pointadapt_cpu_usage_percent",
			Help: "CPU usage in percent",
		}),
		proc:     proc,
		interval: 500 * time.Millisecond,
		log:      log,
	}
	registry.MustRegister(s.memUsage, s.cpuUsage)
	return s, nil
}

// Handler returns the /metrics handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	return mux
}

// Sample refreshes the process gauges once.
func (s *Server) Sample() {
	if mem, err := s.proc.MemoryInfo(); err == nil {
		s.memUsage.Set(float64(mem.RSS / 1024 / 1024))
	}
	if cpu, err := s.proc.CPUPercent(); err == nil {
		s.cpuUsage.Set(math.Round(cpu*100) / 100)
	}
}

// Serve listens on ln until ctx is done, refreshing the process gauges on
// every tick.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Sample()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if serveErr := <-errCh; err == nil {
		err = serveErr
	}
	if err != nil {
		s.log.Warn("metrics server shutdown", zap.Error(err))
		return err
	}
	return nil
}

// ListenAndServe binds addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.log.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}
