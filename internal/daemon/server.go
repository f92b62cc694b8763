package daemon

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the daemon's HTTP surface: Prometheus metrics, liveness
// and readiness checks, the manual scan trigger, and a plain-text status
// page at the root.
func (d *Daemon) Handler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", d.handleHealth)
	mux.HandleFunc("/-/healthy", d.handleHealth)
	mux.HandleFunc("/-/ready", d.handleReady)
	mux.HandleFunc("/scan", d.handleTrigger)
	mux.HandleFunc("/", d.handleRoot)

	return mux
}

// handleHealth reports liveness. A failed last cycle surfaces as 503 with
// the error text; metrics keep serving the previous snapshot regardless.
func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	state := d.State()
	if state.LastError != "" {
		http.Error(w, fmt.Sprintf("Unhealthy: last scan failed - %s", state.LastError), http.StatusServiceUnavailable)
		return
	}
	if !state.LastScanTime.IsZero() {
		fmt.Fprintf(w, "OK - last scan: %s (%.0fs ago)\n",
			state.LastScanTime.Format(time.RFC3339),
			time.Since(state.LastScanTime).Seconds())
		return
	}
	fmt.Fprintln(w, "OK - initializing")
}

// handleReady reports readiness: 200 only after the first successful
// publish.
func (d *Daemon) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !d.State().Ready {
		http.Error(w, "Not ready: no successful scan yet", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "Ready")
}

// handleTrigger requests an immediate scan. 202 when accepted, 409 when a
// scan is already in flight. The request does not wait for the cycle.
func (d *Daemon) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := d.TriggerScan(); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintln(w, "scan triggered")
}

func (d *Daemon) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	state := d.State()
	fmt.Fprintln(w, "Leima - AWS Tag Compliance Exporter")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  GET  /metrics   - Prometheus metrics")
	fmt.Fprintln(w, "  GET  /health    - Health check (liveness)")
	fmt.Fprintln(w, "  GET  /-/ready   - Readiness check")
	fmt.Fprintln(w, "  POST /scan      - Trigger a scan now")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Status:")

	switch {
	case state.Scanning:
		fmt.Fprintln(w, "  Scan: IN PROGRESS")
	case !state.LastScanTime.IsZero():
		fmt.Fprintf(w, "  Last scan: %s (%.0fs ago)\n",
			state.LastScanTime.Format(time.RFC3339),
			time.Since(state.LastScanTime).Seconds())
	default:
		fmt.Fprintln(w, "  Last scan: never")
	}

	if state.LastError != "" {
		fmt.Fprintf(w, "  Last error: %s\n", state.LastError)
	} else {
		fmt.Fprintln(w, "  Status: OK")
	}
}
