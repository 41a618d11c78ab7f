package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/stockrec/internal/datasource"
	"github.com/seenimoa/stockrec/internal/recommend"
	"github.com/seenimoa/stockrec/internal/search"
	"github.com/seenimoa/stockrec/internal/sentiment"
	"github.com/seenimoa/stockrec/internal/store"
	"github.com/seenimoa/stockrec/pkg/models"
	"github.com/seenimoa/stockrec/pkg/utils"
)

// maxLimit caps the limit query parameter on list endpoints.
const maxLimit = 100

// ── Health ──

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := utils.NowET()
	data := map[string]interface{}{
		"status":        "ok",
		"version":       s.version,
		"time":          now.UTC().Format(time.RFC3339),
		"market_status": utils.MarketStatusAt(now),
		"market_open":   utils.IsMarketOpenAt(now),
		"trading_day":   utils.IsTradingDay(now),
		"ws_clients":    s.wsHub.ClientCount(),
	}
	if snap, err := s.store.Current(); err == nil {
		data["snapshot_id"] = snap.ID
		data["loaded_at"] = snap.LoadedAt.UTC().Format(time.RFC3339)
	} else {
		data["status"] = "degraded"
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

// ── Users ──

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	users := snap.Users()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"users": users,
			"count": len(users),
		},
	})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	user := utils.NormalizeUserID(chi.URLParam(r, "id"))
	view, found := snap.Portfolio(user)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no holdings for user %s", user))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: view})
}

// ── Recommendations ──

func (s *Server) handleRecommend(kind models.RecommendationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		user := utils.NormalizeUserID(chi.URLParam(r, "id"))
		if user == "" {
			writeError(w, http.StatusBadRequest, "user id is required")
			return
		}

		list, err := s.engine.Recommend(r.Context(), user, kind, limit)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
	}
}

// ── Stocks ──

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	ref, found := snap.Reference(symbol)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown symbol %s", symbol))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"stock":   ref,
			"holders": len(snap.Holders(symbol)),
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit, err := parseLimit(r, search.DefaultLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.search == nil {
		writeError(w, http.StatusServiceUnavailable, search.ErrNotReady.Error())
		return
	}

	hits, err := s.search.Search(q, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"query": q,
			"hits":  hits,
			"count": len(hits),
		},
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if s.news == nil {
		writeError(w, http.StatusServiceUnavailable, "news source not configured")
		return
	}
	limit, err := parseLimit(r, s.cfg.Recommend.NewsPerStock)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))

	headlines, err := s.news.Headlines(r.Context(), symbol, limit)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if headlines == nil {
		headlines = []models.Headline{}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"symbol":    symbol,
			"headlines": headlines,
			"sentiment": sentiment.Aggregate(symbol, headlines, time.Now()),
		},
	})
}

// ── Snapshot ──

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.currentSnapshot(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap.Stats()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Reload(r.Context())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("reload failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap.Stats()})
}

// ── Helpers ──

func (s *Server) currentSnapshot(w http.ResponseWriter) (*store.Snapshot, bool) {
	snap, err := s.store.Current()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return nil, false
	}
	return snap, true
}

// parseLimit reads the limit query parameter. An absent parameter yields def.
func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q: must be a positive integer", raw)
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recommend.ErrUserNotFound),
		errors.Is(err, recommend.ErrNoHoldings),
		errors.Is(err, datasource.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNoSnapshot),
		errors.Is(err, search.ErrNotReady),
		errors.Is(err, datasource.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	}
	var httpErr *datasource.ErrHTTP
	if errors.As(err, &httpErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
