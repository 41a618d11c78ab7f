package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/seenimoa/stockrec/internal/logging"
	"github.com/seenimoa/stockrec/internal/metrics"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
)

type staticSource struct {
	s   *store.Snapshot
	err error
}

func (f staticSource) Current() (*store.Snapshot, error) { return f.s, f.err }

func TestEngineRecommendSector(t *testing.T) {
	e := NewEngine(staticSource{s: scenarioSnapshot(t)}, 5, logging.Nop())

	list, err := e.Recommend(context.Background(), " A ", models.KindSector, 1)
	if err != nil {
		t.Fatal(err)
	}
	if list.UserID != "A" || list.TopSector != "Tech" || list.Total != 2 {
		t.Errorf("list = %+v", list)
	}
	if len(list.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(list.Items))
	}
	it := list.Items[0]
	if it.Rank != 1 || it.Symbol != "MSFT" || it.Stock == nil || it.Stock.Security != "MSFT Inc." {
		t.Errorf("item = %+v", it)
	}
}

func TestEngineRecommendErrors(t *testing.T) {
	e := NewEngine(staticSource{s: scenarioSnapshot(t)}, 5, logging.Nop())

	if _, err := e.Recommend(context.Background(), "nobody", models.KindSector, 5); !errors.Is(err, ErrNoHoldings) {
		t.Errorf("sector err = %v, want ErrNoHoldings", err)
	}
	if _, err := e.Recommend(context.Background(), "nobody", models.KindRisk, 5); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("risk err = %v, want ErrUserNotFound", err)
	}
	if _, err := e.Recommend(context.Background(), "A", "momentum", 5); err == nil {
		t.Error("unknown kind should fail")
	}

	empty := NewEngine(staticSource{err: store.ErrNoSnapshot}, 5, logging.Nop())
	if _, err := empty.Recommend(context.Background(), "A", models.KindRisk, 5); !errors.Is(err, store.ErrNoSnapshot) {
		t.Errorf("err = %v, want ErrNoSnapshot", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Risk(ctx, "A"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEngineDefaultLimit(t *testing.T) {
	e := NewEngine(staticSource{s: scenarioSnapshot(t)}, 2, logging.Nop())
	list, err := e.Recommend(context.Background(), "A", models.KindRisk, 0)
	if err != nil {
		t.Fatal(err)
	}
	if list.Total != 3 || len(list.Items) != 2 {
		t.Errorf("total=%d items=%d, want 3 and 2", list.Total, len(list.Items))
	}
}

func TestEngineRecordsMetrics(t *testing.T) {
	e := NewEngine(staticSource{s: scenarioSnapshot(t)}, 5, logging.Nop())
	counter := metrics.RecommendRequests.WithLabelValues("risk", metrics.OutcomeNotFound)
	before := testutil.ToFloat64(counter)

	_, _ = e.Risk(context.Background(), "nobody")

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("not_found counter = %v, want %v", got, before+1)
	}
}

type countingSource struct {
	s     *store.Snapshot
	calls int
}

func (c *countingSource) Current() (*store.Snapshot, error) {
	c.calls++
	return c.s, nil
}

func TestEngineRecommendRecordsOncePerCall(t *testing.T) {
	tests := []struct {
		kind    models.RecommendationKind
		user    string
		outcome string
	}{
		{models.KindSector, "A", metrics.OutcomeOK},
		{models.KindRisk, "A", metrics.OutcomeOK},
		{models.KindRisk, "nobody", metrics.OutcomeNotFound},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.user, func(t *testing.T) {
			src := &countingSource{s: scenarioSnapshot(t)}
			e := NewEngine(src, 5, logging.Nop())
			counter := metrics.RecommendRequests.WithLabelValues(string(tt.kind), tt.outcome)
			before := testutil.ToFloat64(counter)

			_, _ = e.Recommend(context.Background(), tt.user, tt.kind, 5)

			if got := testutil.ToFloat64(counter); got != before+1 {
				t.Errorf("%s counter = %v, want %v", tt.outcome, got, before+1)
			}
			if src.calls != 1 {
				t.Errorf("snapshot resolved %d times, want 1", src.calls)
			}
		})
	}
}

func TestEngineRecommendSnapshotErrorRecorded(t *testing.T) {
	e := NewEngine(staticSource{err: store.ErrNoSnapshot}, 5, logging.Nop())
	counter := metrics.RecommendRequests.WithLabelValues("sector", metrics.OutcomeError)
	before := testutil.ToFloat64(counter)

	if _, err := e.Recommend(context.Background(), "A", models.KindSector, 5); !errors.Is(err, store.ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("error counter = %v, want %v", got, before+1)
	}
}

func TestTopAndEnrich(t *testing.T) {
	items := []models.Recommendation{{Symbol: "A", Score: 100}, {Symbol: "UNKNOWN", Score: 50}, {Symbol: "C", Score: 0}}
	if got := Top(items, 0); len(got) != 3 {
		t.Errorf("Top(0) = %d items", len(got))
	}
	if got := Top(items, 10); len(got) != 3 {
		t.Errorf("Top(10) = %d items", len(got))
	}

	s := store.New(nil, nil, nil, refs("A", "C"))
	out := Enrich(s, Top(items, 2))
	if len(out) != 2 || out[1].Rank != 2 || out[1].Stock != nil || out[0].Stock == nil {
		t.Errorf("Enrich() = %+v", out)
	}
}
