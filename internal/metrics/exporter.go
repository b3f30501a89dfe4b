package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostMetrics carries the host-level gauges refreshed before each scrape.
type HostMetrics struct {
	startTime time.Time

	cpuUsage prometheus.Gauge
	memUsed  prometheus.Gauge
	memPct   prometheus.Gauge
	uptime   prometheus.Gauge
}

// NewHostMetrics returns unregistered host gauges.
func NewHostMetrics() *HostMetrics {
	return &HostMetrics{
		startTime: time.Now(),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mountwrapper_host_cpu_usage",
			Help: "Host CPU usage percentage (0-100)",
		}),
		memUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mountwrapper_host_memory_used_bytes",
			Help: "Host memory in use in bytes",
		}),
		memPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mountwrapper_host_memory_used_percent",
			Help: "Host memory in use as a percentage (0-100)",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mountwrapper_exporter_uptime_seconds",
			Help: "Exporter uptime in seconds",
		}),
	}
}

func (h *HostMetrics) register(reg *prometheus.Registry) {
	reg.MustRegister(h.cpuUsage, h.memUsed, h.memPct, h.uptime)
}

// Refresh samples the host. The CPU sampling window runs inline, so each
// refresh takes about 100ms.
func (h *HostMetrics) Refresh() {
	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		h.cpuUsage.Set(percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		h.memUsed.Set(float64(vm.Used))
		h.memPct.Set(vm.UsedPercent)
	}
	h.uptime.Set(time.Since(h.startTime).Seconds())
}

// Exporter bundles the run-log collector and host gauges behind one
// registry, serving both the scrape endpoint and one-shot text rendering.
type Exporter struct {
	registry *prometheus.Registry
	host     *HostMetrics
}

// NewExporter builds the full registry for the run log at logPath.
func NewExporter(logPath string) *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewLogCollector(logPath))

	host := NewHostMetrics()
	host.register(reg)

	return &Exporter{registry: reg, host: host}
}

// Handler refreshes the host gauges, then serves the exposition.
func (e *Exporter) Handler() http.Handler {
	inner := promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.host.Refresh()
		inner.ServeHTTP(w, r)
	})
}

// RenderText writes the exposition in the Prometheus text format, for
// callers with no HTTP server in front.
func (e *Exporter) RenderText(w io.Writer) error {
	e.host.Refresh()

	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
