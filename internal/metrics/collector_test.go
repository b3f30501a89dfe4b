package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andrelucas/mountwrapper/internal/report"
)

func writeSampleLog(t *testing.T) string {
	t.Helper()

	t0 := time.Date(2021, 5, 18, 12, 0, 0, 0, time.UTC)
	line := func(at time.Time, msg string) string {
		return report.Timestamp(at) + " " + msg + "\n"
	}
	mk := func(offset time.Duration) report.Record {
		return report.NewRecord("/usr/bin/mount.real", []string{"m"}, nil, t0.Add(offset))
	}

	recOK, recFail := mk(0), mk(time.Minute)
	recSig, recActive := mk(2*time.Minute), mk(3*time.Minute)

	var b strings.Builder
	b.WriteString(line(t0, recOK.ExecuteLine()))
	b.WriteString(line(t0.Add(time.Second), recOK.CompletedLine("exit with code 0")))
	b.WriteString(line(t0.Add(time.Minute), recFail.ExecuteLine()))
	b.WriteString(line(t0.Add(time.Minute+time.Second), recFail.CompletedLine("exit with code 32")))
	b.WriteString(line(t0.Add(2*time.Minute), recSig.ExecuteLine()))
	b.WriteString(line(t0.Add(2*time.Minute+time.Second), recSig.CompletedLine("exit with signal 9")))
	b.WriteString(line(t0.Add(3*time.Minute), recActive.ExecuteLine()))

	path := filepath.Join(t.TempDir(), "mountwrapper.log")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write sample log: %v", err)
	}
	return path
}

func scrape(t *testing.T, e *Exporter) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func TestScrapeExposesRunMetrics(t *testing.T) {
	e := NewExporter(writeSampleLog(t))
	body := scrape(t, e)

	for _, want := range []string{
		`mountwrapper_log_present 1`,
		`mountwrapper_runs_total{disposition="exited"} 2`,
		`mountwrapper_runs_total{disposition="signaled"} 1`,
		`mountwrapper_runs_total{disposition="exec-failed"} 0`,
		`mountwrapper_runs_total{disposition="unknown"} 0`,
		`mountwrapper_runs_active 1`,
		`mountwrapper_runs_by_exit_code{code="0"} 1`,
		`mountwrapper_runs_by_exit_code{code="32"} 1`,
		`mountwrapper_runs_by_signal{signal="9"} 1`,
		`mountwrapper_run_duration_seconds 1`,
		`mountwrapper_log_skipped_lines 0`,
		`# TYPE mountwrapper_runs_total counter`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
}

func TestScrapeExposesHostMetrics(t *testing.T) {
	e := NewExporter(writeSampleLog(t))
	body := scrape(t, e)

	for _, want := range []string{
		"mountwrapper_host_cpu_usage",
		"mountwrapper_host_memory_used_bytes",
		"mountwrapper_host_memory_used_percent",
		"mountwrapper_exporter_uptime_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestScrapeMissingLog(t *testing.T) {
	e := NewExporter(filepath.Join(t.TempDir(), "absent.log"))
	body := scrape(t, e)

	if !strings.Contains(body, "mountwrapper_log_present 0") {
		t.Errorf("exposition missing absence marker\n%s", body)
	}
	if strings.Contains(body, "mountwrapper_runs_total{") {
		t.Errorf("run series exported for a missing log\n%s", body)
	}
}

func TestRenderText(t *testing.T) {
	e := NewExporter(writeSampleLog(t))

	var buf bytes.Buffer
	if err := e.RenderText(&buf); err != nil {
		t.Fatalf("RenderText: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "# TYPE mountwrapper_runs_total counter") {
		t.Errorf("missing TYPE header:\n%s", out)
	}
	if !strings.Contains(out, `mountwrapper_runs_total{disposition="exited"} 2`) {
		t.Errorf("missing run series:\n%s", out)
	}
}
