package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordProviderCall(t *testing.T) {
	before := testutil.ToFloat64(ProviderRequests.WithLabelValues("spotify", "success"))
	RecordProviderCall("spotify", "success", 20*time.Millisecond)
	after := testutil.ToFloat64(ProviderRequests.WithLabelValues("spotify", "success"))

	if after != before+1 {
		t.Errorf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordResolution(t *testing.T) {
	t.Run("Method", func(t *testing.T) {
		before := testutil.ToFloat64(ResolutionResults.WithLabelValues("combined"))
		RecordResolution("combined")
		if got := testutil.ToFloat64(ResolutionResults.WithLabelValues("combined")); got != before+1 {
			t.Errorf("expected combined to increase, got %v", got)
		}
	})

	t.Run("empty method is none", func(t *testing.T) {
		before := testutil.ToFloat64(ResolutionResults.WithLabelValues("none"))
		RecordResolution("")
		if got := testutil.ToFloat64(ResolutionResults.WithLabelValues("none")); got != before+1 {
			t.Errorf("expected none to increase, got %v", got)
		}
	})
}

func TestRecordPipelineRun(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("provider down"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(PipelineRuns.WithLabelValues(tt.outcome))
			RecordPipelineRun(time.Second, tt.err)
			if got := testutil.ToFloat64(PipelineRuns.WithLabelValues(tt.outcome)); got != before+1 {
				t.Errorf("expected %s to increase, got %v", tt.outcome, got)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	RecordAPIRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "storysounds_api_requests_total") {
		t.Error("expected API request counter in exposition output")
	}
}
