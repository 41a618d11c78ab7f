package recommend

import (
	"errors"
	"sort"

	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
)

// ErrUserNotFound is returned by ByRisk when the user has no row in the
// risk-similarity matrix.
var ErrUserNotFound = errors.New("user not found in risk similarity matrix")

// SectorResult is the outcome of BySector. Found is false when the user has
// no holdings; Items is then empty and TopSector blank.
type SectorResult struct {
	TopSector string
	Found     bool
	Items     []models.Recommendation
}

// TopSector returns the sector carrying the largest summed weight in user's
// portfolio. Among equal sums the sector seen first in the portfolio table
// wins. ok is false when the user has no holdings.
func TopSector(s *store.Snapshot, user string) (sector string, ok bool) {
	sums := make(map[string]float64)
	var order []string
	s.EachHolding(user, func(h models.Holding) {
		if _, seen := sums[h.Sector]; !seen {
			order = append(order, h.Sector)
		}
		sums[h.Sector] += h.Weight
	})
	if len(order) == 0 {
		return "", false
	}

	best := order[0]
	for _, sec := range order[1:] {
		if sums[sec] > sums[best] {
			best = sec
		}
	}
	return best, true
}

// BySector recommends stocks from user's top sector held by peers in the
// sector-similarity matrix. Each peer adds its similarity to the user once
// per qualifying holding; missing similarity counts as zero. Scores are
// divided by the maximum and scaled to 100 unless the maximum is zero.
func BySector(s *store.Snapshot, user string) (SectorResult, error) {
	if s == nil {
		return SectorResult{}, store.ErrNoSnapshot
	}

	top, ok := TopSector(s, user)
	if !ok {
		return SectorResult{}, nil
	}

	acc := newAccumulator()
	m := s.SectorMatrix()
	for _, peer := range m.Rows() {
		if peer == user {
			continue
		}
		sim, _ := m.Lookup(user, peer)
		s.EachHolding(peer, func(h models.Holding) {
			if h.Sector == top {
				acc.add(h.Symbol, sim)
			}
		})
	}

	items := acc.results(s.Owned(user))
	normalizeMax(items)
	rank(items)
	return SectorResult{TopSector: top, Found: true, Items: items}, nil
}

// ByRisk recommends unowned reference stocks weighted by how similar their
// holders' risk profiles are to user's. A stock is scored only when at least
// one of its holders appears in the matrix columns; its score may then be
// zero. Scores are min-max scaled to 0-100, or set to 100 when they are all
// equal.
func ByRisk(s *store.Snapshot, user string) ([]models.Recommendation, error) {
	if s == nil {
		return nil, store.ErrNoSnapshot
	}
	m := s.RiskMatrix()
	if !m.HasRow(user) {
		return nil, ErrUserNotFound
	}

	owned := s.Owned(user)
	acc := newAccumulator()
	for _, sym := range s.Universe() {
		if _, mine := owned[sym]; mine {
			continue
		}
		s.EachHolder(sym, func(h models.Holding) {
			if !m.HasCol(h.UserID) {
				return
			}
			sim, _ := m.Lookup(user, h.UserID)
			acc.add(sym, h.Weight*sim)
		})
	}

	items := acc.results(owned)
	normalizeMinMax(items)
	rank(items)
	return items, nil
}

// accumulator sums scores per symbol and remembers first-seen order.
type accumulator struct {
	order  []string
	scores map[string]float64
}

func newAccumulator() *accumulator {
	return &accumulator{scores: make(map[string]float64)}
}

func (a *accumulator) add(symbol string, v float64) {
	if _, seen := a.scores[symbol]; !seen {
		a.order = append(a.order, symbol)
	}
	a.scores[symbol] += v
}

func (a *accumulator) results(exclude map[string]struct{}) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(a.order))
	for _, sym := range a.order {
		if _, skip := exclude[sym]; skip {
			continue
		}
		out = append(out, models.Recommendation{Symbol: sym, Score: a.scores[sym]})
	}
	return out
}

// normalizeMax scales scores by 100/max. All-zero input is left unchanged.
func normalizeMax(items []models.Recommendation) {
	var maxScore float64
	for _, it := range items {
		if it.Score > maxScore {
			maxScore = it.Score
		}
	}
	if maxScore <= 0 {
		return
	}
	for i := range items {
		items[i].Score = items[i].Score / maxScore * 100
	}
}

// normalizeMinMax maps [min, max] onto [0, 100]. When every score is equal
// each becomes 100.
func normalizeMinMax(items []models.Recommendation) {
	if len(items) == 0 {
		return
	}
	minScore, maxScore := items[0].Score, items[0].Score
	for _, it := range items[1:] {
		if it.Score < minScore {
			minScore = it.Score
		}
		if it.Score > maxScore {
			maxScore = it.Score
		}
	}
	if maxScore == minScore {
		for i := range items {
			items[i].Score = 100
		}
		return
	}
	span := maxScore - minScore
	for i := range items {
		items[i].Score = (items[i].Score - minScore) / span * 100
	}
}

// rank sorts by score descending, keeping the incoming order among ties.
func rank(items []models.Recommendation) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
