package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObservePhaseRecordsDuration(t *testing.T) {
	Reset()
	ObservePhase(PhasePrepare, 2*time.Second)

	count := testutil.CollectAndCount(phaseDuration, "bouf_phase_duration_seconds")
	if count != 1 {
		t.Fatalf("expected one observed phase series, got %d", count)
	}
}

func TestSetFileCountsSetsAllClassifications(t *testing.T) {
	Reset()
	SetFileCounts(3, 2, 10, 1)

	if got := testutil.ToFloat64(fileCounts.WithLabelValues(ClassAdded)); got != 3 {
		t.Errorf("added: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(fileCounts.WithLabelValues(ClassChanged)); got != 2 {
		t.Errorf("changed: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(fileCounts.WithLabelValues(ClassUnchanged)); got != 10 {
		t.Errorf("unchanged: got %v, want 10", got)
	}
	if got := testutil.ToFloat64(fileCounts.WithLabelValues(ClassRemoved)); got != 1 {
		t.Errorf("removed: got %v, want 1", got)
	}
}

func TestSetBuildInfoReplacesPreviousLabel(t *testing.T) {
	Reset()
	SetBuildInfo("31.0.0", "stable")
	SetBuildInfo("31.0.1", "beta")

	if got := testutil.ToFloat64(buildInfo.WithLabelValues("31.0.1", "beta")); got != 1 {
		t.Errorf("expected current build info set, got %v", got)
	}
	if got := testutil.CollectAndCount(buildInfo); got != 1 {
		t.Errorf("expected stale build info label cleared, got %d series", got)
	}
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	Reset()
	SetPatchCount(5)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bouf_generate_patches_total 5") {
		t.Errorf("expected patch count in output, got:\n%s", rec.Body.String())
	}
}
