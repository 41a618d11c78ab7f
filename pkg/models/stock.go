package models

import "time"

// StockReference is the static metadata of one stock in the universe,
// plus the most recent price-change figure loaded alongside it.
type StockReference struct {
	Symbol       string  `json:"symbol"`        // e.g., "MSFT"
	Security     string  `json:"security"`      // e.g., "Microsoft"
	Sector       string  `json:"sector"`        // GICS sector
	SubIndustry  string  `json:"sub_industry"`  // GICS sub-industry
	Headquarters string  `json:"headquarters"`  // e.g., "Redmond, Washington"
	DateAdded    string  `json:"date_added"`    // date added to the index, as published
	CIK          string  `json:"cik"`           // SEC central index key
	Founded      string  `json:"founded"`       // free text, e.g., "1975"
	RecentChange float64 `json:"recent_change"` // last month move, percent
	HasChange    bool    `json:"has_change"`    // false when the move is unknown
}

// Headline is one news item related to a stock.
type Headline struct {
	Symbol         string    `json:"symbol"`
	Title          string    `json:"title"`
	Link           string    `json:"link"`
	Source         string    `json:"source,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	Sentiment      float64   `json:"sentiment"`                 // -1 (bearish) to +1 (bullish)
	SentimentLabel string    `json:"sentiment_label,omitempty"` // e.g., "Slightly Bullish"
}

// SentimentSummary is the time-weighted tone of a stock's recent headlines.
type SentimentSummary struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
	Label  string  `json:"label"`
	Count  int     `json:"count"`
}
