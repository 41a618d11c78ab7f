package config

import (
	"os"
	"time"
)

// FileStatus describes one configured input table on disk.
type FileStatus struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// CheckDataFiles returns the on-disk status of every configured input table.
func CheckDataFiles(cfg *Config) []FileStatus {
	d := cfg.Data
	return CheckPaths(
		d.Path(d.PortfoliosFile),
		d.Path(d.SectorSimilarityFile),
		d.Path(d.RiskSimilarityFile),
		d.Path(d.ConstituentsFile),
	)
}

// CheckPaths returns the on-disk status of the four input tables at the
// given paths, in the same order as CheckDataFiles.
func CheckPaths(portfolios, sectorSimilarity, riskSimilarity, constituents string) []FileStatus {
	return []FileStatus{
		checkFile("Portfolios", portfolios),
		checkFile("Sector similarity", sectorSimilarity),
		checkFile("Risk similarity", riskSimilarity),
		checkFile("Constituents", constituents),
	}
}

func checkFile(name, path string) FileStatus {
	status := FileStatus{Name: name, Path: path}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return status
	}
	status.Exists = true
	status.Size = info.Size()
	status.ModTime = info.ModTime()
	return status
}
