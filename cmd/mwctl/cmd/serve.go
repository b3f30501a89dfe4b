package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/andrelucas/mountwrapper/internal/logging"
	"github.com/andrelucas/mountwrapper/internal/metrics"
	"github.com/andrelucas/mountwrapper/internal/shutdown"
)

var (
	serveAddr       string
	serveJSONLogs   bool
	shutdownTimeout time.Duration
)

// serveCmd runs the Prometheus exporter for the run log
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve run log metrics for Prometheus",
	Long: `Run a small HTTP exporter with GET /metrics and GET /health.

Every scrape re-reads the run log, so the endpoint always reflects the
file as it is on disk. There is no state to drift and nothing to reset
when the log rotates.

Examples:
  mwctl serve
  mwctl serve --addr :9091 --log /var/lib/storageos/logs/mountwrapper.log`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":9091", "Listen address for the exporter")
	serveCmd.Flags().BoolVar(&serveJSONLogs, "log-json", false, "Log in JSON format")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.NewLogger(logging.ParseLevel(logLevel), serveJSONLogs)

	exporter := metrics.NewExporter(runLogPath())

	router := mux.NewRouter()
	router.Handle("/metrics", exporter.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         serveAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	mgr := shutdown.New(log, shutdownTimeout)
	mgr.Register("metrics server", shutdown.StopHTTPServer(srv))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	stopped := make(chan struct{})
	go func() {
		mgr.Wait()
		mgr.Shutdown()
		close(stopped)
	}()

	log.Info("serving metrics", map[string]interface{}{
		"addr": serveAddr,
		"log":  runLogPath(),
	})

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	if errors.Is(err, http.ErrServerClosed) {
		<-stopped
		log.Info("server stopped")
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	_, statErr := os.Stat(runLogPath())

	status := map[string]interface{}{
		"status":      "ok",
		"log":         runLogPath(),
		"log_present": statErr == nil,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}
