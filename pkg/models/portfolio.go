// Package models defines the core data structures shared by the stockrec
// store, recommendation engine, API and CLI.
package models

// Holding is one row of a user's portfolio.
type Holding struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name,omitempty"` // display name of the user, optional
	Symbol string  `json:"symbol"`         // e.g., "AAPL"
	Sector string  `json:"sector"`         // GICS sector, e.g., "Information Technology"
	Weight float64 `json:"weight"`         // percentage of the portfolio, >= 0
}

// SectorWeight is the summed portfolio weight of one sector.
type SectorWeight struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"`
}

// PortfolioView is a user's holdings together with their sector allocation.
type PortfolioView struct {
	UserID     string         `json:"user_id"`
	Holdings   []Holding      `json:"holdings"`
	Allocation []SectorWeight `json:"allocation"` // sorted by weight, descending
	TopSector  string         `json:"top_sector,omitempty"`
}
