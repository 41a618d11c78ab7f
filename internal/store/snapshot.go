package store

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// Snapshot is an immutable, indexed view of all input tables.
type Snapshot struct {
	ID       string
	LoadedAt time.Time

	holdings []models.Holding
	byUser   map[string][]int // user -> indices into holdings, table order
	byStock  map[string][]int // symbol -> indices into holdings, table order
	users    []string         // portfolio users in first-appearance order

	sector *Matrix
	risk   *Matrix

	refs     []models.StockReference
	refIndex map[string]int // symbol -> first index into refs
}

// New builds a snapshot from already-parsed tables. Identifiers in holdings
// and references are normalized; the input slices are copied.
func New(holdings []models.Holding, sector, risk *Matrix, refs []models.StockReference) *Snapshot {
	s := &Snapshot{
		ID:       uuid.NewString(),
		LoadedAt: time.Now(),
		holdings: make([]models.Holding, len(holdings)),
		byUser:   make(map[string][]int),
		byStock:  make(map[string][]int),
		sector:   sector,
		risk:     risk,
		refs:     make([]models.StockReference, len(refs)),
		refIndex: make(map[string]int, len(refs)),
	}

	for i, h := range holdings {
		h.UserID = utils.NormalizeUserID(h.UserID)
		h.Symbol = utils.NormalizeSymbol(h.Symbol)
		s.holdings[i] = h

		if _, seen := s.byUser[h.UserID]; !seen {
			s.users = append(s.users, h.UserID)
		}
		s.byUser[h.UserID] = append(s.byUser[h.UserID], i)
		s.byStock[h.Symbol] = append(s.byStock[h.Symbol], i)
	}

	for i, r := range refs {
		r.Symbol = utils.NormalizeSymbol(r.Symbol)
		s.refs[i] = r
		if _, seen := s.refIndex[r.Symbol]; !seen {
			s.refIndex[r.Symbol] = i
		}
	}

	return s
}

// SectorMatrix returns the sector-preference similarity matrix.
func (s *Snapshot) SectorMatrix() *Matrix { return s.sector }

// RiskMatrix returns the risk-profile similarity matrix.
func (s *Snapshot) RiskMatrix() *Matrix { return s.risk }

// Users returns every user with at least one holding, in table order.
func (s *Snapshot) Users() []string {
	return append([]string(nil), s.users...)
}

// HasHoldings reports whether user has at least one portfolio row.
func (s *Snapshot) HasHoldings(user string) bool {
	return len(s.byUser[user]) > 0
}

// Holdings returns a copy of user's portfolio rows in table order.
func (s *Snapshot) Holdings(user string) []models.Holding {
	return s.collect(s.byUser[user])
}

// Holders returns a copy of every portfolio row for symbol in table order.
func (s *Snapshot) Holders(symbol string) []models.Holding {
	return s.collect(s.byStock[symbol])
}

// EachHolding calls fn for each of user's portfolio rows in table order
// without copying the slice.
func (s *Snapshot) EachHolding(user string, fn func(h models.Holding)) {
	for _, i := range s.byUser[user] {
		fn(s.holdings[i])
	}
}

// EachHolder calls fn for each portfolio row holding symbol, in table order.
func (s *Snapshot) EachHolder(symbol string, fn func(h models.Holding)) {
	for _, i := range s.byStock[symbol] {
		fn(s.holdings[i])
	}
}

// Owned returns the set of symbols user holds. The map is freshly allocated.
func (s *Snapshot) Owned(user string) map[string]struct{} {
	owned := make(map[string]struct{}, len(s.byUser[user]))
	for _, i := range s.byUser[user] {
		owned[s.holdings[i].Symbol] = struct{}{}
	}
	return owned
}

// NumHoldings returns the number of portfolio rows.
func (s *Snapshot) NumHoldings() int { return len(s.holdings) }

// References returns a copy of the stock reference table in file order.
func (s *Snapshot) References() []models.StockReference {
	return append([]models.StockReference(nil), s.refs...)
}

// Reference returns the reference row for symbol.
func (s *Snapshot) Reference(symbol string) (models.StockReference, bool) {
	i, ok := s.refIndex[symbol]
	if !ok {
		return models.StockReference{}, false
	}
	return s.refs[i], true
}

// Universe returns the distinct reference symbols in file order.
func (s *Snapshot) Universe() []string {
	out := make([]string, 0, len(s.refIndex))
	for i, r := range s.refs {
		if s.refIndex[r.Symbol] == i {
			out = append(out, r.Symbol)
		}
	}
	return out
}

// SectorAllocation returns user's summed weight per sector, largest first.
// Equal weights keep the order in which the sector first appears in the
// user's holdings.
func (s *Snapshot) SectorAllocation(user string) []models.SectorWeight {
	var out []models.SectorWeight
	pos := make(map[string]int)
	s.EachHolding(user, func(h models.Holding) {
		i, ok := pos[h.Sector]
		if !ok {
			i = len(out)
			pos[h.Sector] = i
			out = append(out, models.SectorWeight{Sector: h.Sector})
		}
		out[i].Weight += h.Weight
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// Portfolio returns user's holdings and sector allocation. ok is false when
// the user has no holdings.
func (s *Snapshot) Portfolio(user string) (models.PortfolioView, bool) {
	if !s.HasHoldings(user) {
		return models.PortfolioView{UserID: user}, false
	}
	alloc := s.SectorAllocation(user)
	return models.PortfolioView{
		UserID:     user,
		Holdings:   s.Holdings(user),
		Allocation: alloc,
		TopSector:  alloc[0].Sector,
	}, true
}

// Stats summarizes the snapshot size.
type Stats struct {
	ID           string    `json:"id"`
	LoadedAt     time.Time `json:"loaded_at"`
	Users        int       `json:"users"`
	Holdings     int       `json:"holdings"`
	Stocks       int       `json:"stocks"`
	SectorMatrix int       `json:"sector_matrix_users"`
	RiskMatrix   int       `json:"risk_matrix_users"`
}

// Stats returns size information for status displays.
func (s *Snapshot) Stats() Stats {
	return Stats{
		ID:           s.ID,
		LoadedAt:     s.LoadedAt,
		Users:        len(s.users),
		Holdings:     len(s.holdings),
		Stocks:       len(s.refIndex),
		SectorMatrix: s.sector.Len(),
		RiskMatrix:   s.risk.Len(),
	}
}

func (s *Snapshot) collect(idx []int) []models.Holding {
	if len(idx) == 0 {
		return nil
	}
	out := make([]models.Holding, len(idx))
	for k, i := range idx {
		out[k] = s.holdings[i]
	}
	return out
}
