package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommend(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		outcome string
	}{
		{"sector ok", "sector", OutcomeOK},
		{"sector not found", "sector", OutcomeNotFound},
		{"risk error", "risk", OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.kind, tt.outcome))
			RecordRecommend(tt.kind, tt.outcome, 3, time.Millisecond)
			after := testutil.ToFloat64(RecommendRequests.WithLabelValues(tt.kind, tt.outcome))
			if after != before+1 {
				t.Errorf("requests counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordSnapshotLoad(t *testing.T) {
	okBefore := testutil.ToFloat64(SnapshotLoads.WithLabelValues(OutcomeOK))
	RecordSnapshotLoad(4, 12, 500, nil)
	if got := testutil.ToFloat64(SnapshotLoads.WithLabelValues(OutcomeOK)); got != okBefore+1 {
		t.Errorf("ok loads = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(SnapshotUsers); got != 4 {
		t.Errorf("users gauge = %v, want 4", got)
	}
	if got := testutil.ToFloat64(SnapshotHoldings); got != 12 {
		t.Errorf("holdings gauge = %v, want 12", got)
	}

	errBefore := testutil.ToFloat64(SnapshotLoads.WithLabelValues(OutcomeError))
	RecordSnapshotLoad(0, 0, 0, errors.New("boom"))
	if got := testutil.ToFloat64(SnapshotLoads.WithLabelValues(OutcomeError)); got != errBefore+1 {
		t.Errorf("error loads = %v, want %v", got, errBefore+1)
	}
	// a failed load leaves the gauges alone
	if got := testutil.ToFloat64(SnapshotStocks); got != 500 {
		t.Errorf("stocks gauge = %v, want 500", got)
	}
}

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(FetchRequests.WithLabelValues("rss", "cached"))
	RecordFetch("rss", "cached")
	RecordFetch("rss", "cached")
	if got := testutil.ToFloat64(FetchRequests.WithLabelValues("rss", "cached")); got != before+2 {
		t.Errorf("fetch counter = %v, want %v", got, before+2)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/v1/users", "200"))
	RecordAPIRequest("GET", "/api/v1/users", 200, 2*time.Millisecond)
	after := testutil.ToFloat64(APIRequests.WithLabelValues("GET", "/api/v1/users", "200"))
	if after != before+1 {
		t.Errorf("api requests = %v, want %v", after, before+1)
	}
}
