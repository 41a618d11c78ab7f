package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/seenimoa/stockrec/internal/metrics"
)

// ErrNoSnapshot is returned by Holder.Current before the first load.
var ErrNoSnapshot = errors.New("no snapshot loaded")

// Holder publishes the current snapshot. Readers never block; Reload builds
// a fresh snapshot off to the side and swaps it in atomically.
type Holder struct {
	paths  Paths
	logger zerolog.Logger

	current atomic.Pointer[Snapshot]

	reloadMu sync.Mutex // serializes Reload

	subMu sync.RWMutex
	subs  []func(*Snapshot)
}

// NewHolder creates an empty holder that loads from paths.
func NewHolder(paths Paths, logger zerolog.Logger) *Holder {
	return &Holder{
		paths:  paths,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Paths returns the tables the holder loads from.
func (h *Holder) Paths() Paths { return h.paths }

// Current returns the published snapshot.
func (h *Holder) Current() (*Snapshot, error) {
	s := h.current.Load()
	if s == nil {
		return nil, ErrNoSnapshot
	}
	return s, nil
}

// Swap publishes s and notifies subscribers. It returns the previous
// snapshot, which may be nil.
func (h *Holder) Swap(s *Snapshot) *Snapshot {
	old := h.current.Swap(s)

	h.subMu.RLock()
	subs := slices.Clone(h.subs)
	h.subMu.RUnlock()

	for _, fn := range subs {
		fn(s)
	}
	return old
}

// Reload reads every table and swaps in the result. On failure the current
// snapshot stays published and the error is returned.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()

	s, err := Load(ctx, h.paths)
	if err != nil {
		metrics.RecordSnapshotLoad(0, 0, 0, err)
		h.logger.Error().Err(err).Msg("snapshot reload failed, keeping previous snapshot")
		return nil, err
	}

	st := s.Stats()
	metrics.RecordSnapshotLoad(st.Users, st.Holdings, st.Stocks, nil)
	h.Swap(s)
	h.logger.Info().
		Str("snapshot_id", st.ID).
		Int("users", st.Users).
		Int("holdings", st.Holdings).
		Int("stocks", st.Stocks).
		Msg("snapshot loaded")
	return s, nil
}

// Subscribe registers fn to be called with every newly published snapshot.
// Callbacks run synchronously on the goroutine that calls Swap.
func (h *Holder) Subscribe(fn func(*Snapshot)) {
	h.subMu.Lock()
	h.subs = append(h.subs, fn)
	h.subMu.Unlock()
}
