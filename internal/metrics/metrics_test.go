package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordAnalysis(t *testing.T) {
	c := New()

	c.RecordAnalysis(0.74)
	c.RecordAnalysis(0.47)

	if got := testutil.ToFloat64(c.analysesTotal); got != 2 {
		t.Errorf("analyses_total = %v, want 2", got)
	}
	if got := testutil.CollectAndCount(c.score); got != 1 {
		t.Errorf("score histogram series = %d, want 1", got)
	}
}

func TestCollector_RecordScreening(t *testing.T) {
	c := New()

	c.RecordScreening(OutcomeClean)
	c.RecordScreening(OutcomeQuarantined)
	c.RecordScreening(OutcomeQuarantined)

	if got := testutil.ToFloat64(c.screeningsTotal.WithLabelValues(OutcomeQuarantined)); got != 2 {
		t.Errorf("screenings_total{quarantined} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.screeningsTotal.WithLabelValues(OutcomeClean)); got != 1 {
		t.Errorf("screenings_total{clean} = %v, want 1", got)
	}
}

func TestCollector_QuarantineAndLift(t *testing.T) {
	c := New()

	c.RecordQuarantine("likely")
	c.RecordLift()

	if got := testutil.ToFloat64(c.quarantinesTotal.WithLabelValues("likely")); got != 1 {
		t.Errorf("quarantines_total{likely} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.liftsTotal); got != 1 {
		t.Errorf("lifts_total = %v, want 1", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector

	c.RecordAnalysis(0.5)
	c.RecordScreening(OutcomeClean)
	c.RecordQuarantine("proven")
	c.RecordLift()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil collector handler status = %d, want 404", rec.Code)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	c.RecordAnalysis(0.95)
	c.RecordLift()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"spamguard_analyses_total 1", "spamguard_lifts_total 1", "spamguard_score_bucket"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCollectors_Independent(t *testing.T) {
	a, b := New(), New()
	a.RecordLift()

	if got := testutil.ToFloat64(b.liftsTotal); got != 0 {
		t.Errorf("second collector lifts_total = %v, want 0", got)
	}
}
