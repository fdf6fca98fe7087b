// Package metrics exposes a Prometheus histogram and gauges for the build
// pipeline: phase durations, classified file counts, and patch counts,
// served over HTTP when cfg.Env.MetricsAddr is set.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu  sync.RWMutex
	reg *prometheus.Registry

	phaseDuration *prometheus.HistogramVec
	fileCounts    *prometheus.GaugeVec
	patchCount    prometheus.Gauge
	buildInfo     *prometheus.GaugeVec
)

// Phase names recorded by ObservePhase.
const (
	PhasePrepare  = "prepare"
	PhaseGenerate = "generate"
	PhasePackage  = "package"
	PhasePost     = "post"
)

// File classification labels recorded by SetFileCounts.
const (
	ClassAdded     = "added"
	ClassChanged   = "changed"
	ClassUnchanged = "unchanged"
	ClassRemoved   = "removed"
)

func init() {
	resetLocked()
}

// Reset clears and reinitializes all collectors. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resetLocked()
}

func resetLocked() {
	registry := prometheus.NewRegistry()

	phase := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bouf",
		Name:      "phase_duration_seconds",
		Help:      "Duration of each build pipeline phase.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}, []string{"phase"})

	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bouf",
		Name:      "generate_files_total",
		Help:      "Number of files in the most recent generate run, by classification.",
	}, []string{"class"})

	patches := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "bouf",
		Name:      "generate_patches_total",
		Help:      "Number of delta patches created by the most recent generate run.",
	})

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bouf",
		Name:      "build_info",
		Help:      "Always 1; labeled with the version of the most recent build.",
	}, []string{"version", "branch"})

	registry.MustRegister(phase, files, patches, info)

	reg = registry
	phaseDuration = phase
	fileCounts = files
	patchCount = patches
	buildInfo = info
}

// Handler returns an HTTP handler serving metrics in Prometheus format.
func Handler() http.Handler {
	mu.RLock()
	registry := reg
	mu.RUnlock()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr and returns
// immediately; the server runs until ctx is cancelled.
func Serve(ctx context.Context, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe()
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return srv
}

// ObservePhase records how long a pipeline phase took.
func ObservePhase(phase string, d time.Duration) {
	mu.RLock()
	defer mu.RUnlock()
	if phaseDuration != nil {
		phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	}
}

// SetFileCounts records the classified file counts from a generate run.
func SetFileCounts(added, changed, unchanged, removed int) {
	mu.RLock()
	defer mu.RUnlock()
	if fileCounts == nil {
		return
	}
	fileCounts.WithLabelValues(ClassAdded).Set(float64(added))
	fileCounts.WithLabelValues(ClassChanged).Set(float64(changed))
	fileCounts.WithLabelValues(ClassUnchanged).Set(float64(unchanged))
	fileCounts.WithLabelValues(ClassRemoved).Set(float64(removed))
}

// SetPatchCount records the number of delta patches created.
func SetPatchCount(n int) {
	mu.RLock()
	defer mu.RUnlock()
	if patchCount != nil {
		patchCount.Set(float64(n))
	}
}

// SetBuildInfo records the version/branch of the build just run.
func SetBuildInfo(version, branch string) {
	mu.RLock()
	defer mu.RUnlock()
	if buildInfo != nil {
		buildInfo.Reset()
		buildInfo.WithLabelValues(version, branch).Set(1)
	}
}
