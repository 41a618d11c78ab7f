package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockrec/internal/metrics"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// ErrNoHoldings is returned by Engine.Recommend for the sector kind when the
// user holds nothing.
var ErrNoHoldings = errors.New("user has no holdings")

// SnapshotSource supplies the snapshot a request is scored against.
// *store.Holder implements it.
type SnapshotSource interface {
	Current() (*store.Snapshot, error)
}

// Engine resolves the current snapshot per request, runs a scorer and
// records metrics. It holds no mutable state of its own.
type Engine struct {
	source     SnapshotSource
	logger     zerolog.Logger
	defaultTop int
}

// NewEngine creates an engine. defaultTop is used when a caller passes a
// non-positive limit to Recommend.
func NewEngine(source SnapshotSource, defaultTop int, logger zerolog.Logger) *Engine {
	if defaultTop <= 0 {
		defaultTop = 5
	}
	return &Engine{
		source:     source,
		logger:     logger.With().Str("component", "recommend").Logger(),
		defaultTop: defaultTop,
	}
}

// Sector runs BySector against the current snapshot.
func (e *Engine) Sector(ctx context.Context, user string) (SectorResult, error) {
	start := time.Now()
	user = utils.NormalizeUserID(user)

	s, err := e.snapshot(ctx)
	if err != nil {
		metrics.RecordRecommend(string(models.KindSector), metrics.OutcomeError, 0, time.Since(start))
		return SectorResult{}, err
	}
	return e.scoreSector(s, user, start)
}

// Risk runs ByRisk against the current snapshot.
func (e *Engine) Risk(ctx context.Context, user string) ([]models.Recommendation, error) {
	start := time.Now()
	user = utils.NormalizeUserID(user)

	s, err := e.snapshot(ctx)
	if err != nil {
		metrics.RecordRecommend(string(models.KindRisk), metrics.OutcomeError, 0, time.Since(start))
		return nil, err
	}
	return e.scoreRisk(s, user, start)
}

// Recommend scores user with the given kind, keeps the first limit items
// and joins them with reference data from the same snapshot.
func (e *Engine) Recommend(ctx context.Context, user string, kind models.RecommendationKind, limit int) (models.RecommendationList, error) {
	start := time.Now()
	user = utils.NormalizeUserID(user)
	if limit <= 0 {
		limit = e.defaultTop
	}
	list := models.RecommendationList{UserID: user, Kind: kind}
	if kind != models.KindSector && kind != models.KindRisk {
		return list, fmt.Errorf("unknown recommendation kind %q", kind)
	}

	// Scoring and enrichment see the same snapshot.
	s, err := e.snapshot(ctx)
	if err != nil {
		metrics.RecordRecommend(string(kind), metrics.OutcomeError, 0, time.Since(start))
		return list, err
	}

	var items []models.Recommendation
	switch kind {
	case models.KindSector:
		res, err := e.scoreSector(s, user, start)
		if err != nil {
			return list, err
		}
		if !res.Found {
			return list, fmt.Errorf("%w: %s", ErrNoHoldings, user)
		}
		list.TopSector = res.TopSector
		items = res.Items
	case models.KindRisk:
		items, err = e.scoreRisk(s, user, start)
		if err != nil {
			return list, fmt.Errorf("%w: %s", err, user)
		}
	}

	list.Total = len(items)
	list.Items = Enrich(s, Top(items, limit))
	return list, nil
}

func (e *Engine) scoreSector(s *store.Snapshot, user string, start time.Time) (SectorResult, error) {
	res, err := BySector(s, user)
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !res.Found:
		outcome = metrics.OutcomeNotFound
	}
	metrics.RecordRecommend(string(models.KindSector), outcome, len(res.Items), time.Since(start))

	e.logger.Debug().
		Str("user_id", user).
		Str("top_sector", res.TopSector).
		Int("candidates", len(res.Items)).
		Str("snapshot_id", s.ID).
		Msg("sector recommendations scored")
	return res, err
}

func (e *Engine) scoreRisk(s *store.Snapshot, user string, start time.Time) ([]models.Recommendation, error) {
	items, err := ByRisk(s, user)
	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(err, ErrUserNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeError
	}
	metrics.RecordRecommend(string(models.KindRisk), outcome, len(items), time.Since(start))

	e.logger.Debug().
		Str("user_id", user).
		Int("candidates", len(items)).
		Str("snapshot_id", s.ID).
		Err(err).
		Msg("risk recommendations scored")
	return items, err
}

// Top returns at most n leading items. n <= 0 returns all of them.
func Top(items []models.Recommendation, n int) []models.Recommendation {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

// Enrich attaches 1-based ranks and reference metadata. Symbols missing from
// the reference table keep a nil Stock.
func Enrich(s *store.Snapshot, items []models.Recommendation) []models.EnrichedRecommendation {
	out := make([]models.EnrichedRecommendation, len(items))
	for i, it := range items {
		out[i] = models.EnrichedRecommendation{Recommendation: it, Rank: i + 1}
		if s == nil {
			continue
		}
		if ref, ok := s.Reference(it.Symbol); ok {
			out[i].Stock = &ref
		}
	}
	return out
}

func (e *Engine) snapshot(ctx context.Context) (*store.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.source.Current()
}
