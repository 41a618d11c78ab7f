package api

import (
	"net/http"

	"github.com/seenimoa/stockrec/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	Config    *config.Config      `json:"config"`
	DataFiles []config.FileStatus `json:"data_files"`
}

// handleGetConfig returns the running configuration and the on-disk status
// of the tables the store loads from. The config is read-only over HTTP.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:    s.cfg,
			DataFiles: s.dataFiles(),
		},
	})
}

// handleGetDataFiles returns only the input table status.
func (s *Server) handleGetDataFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.dataFiles(),
	})
}

func (s *Server) dataFiles() []config.FileStatus {
	p := s.store.Paths()
	return config.CheckPaths(p.Portfolios, p.SectorSimilarity, p.RiskSimilarity, p.Constituents)
}
