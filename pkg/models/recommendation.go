package models

// Recommendation is one ranked candidate stock. Score is on a 0-100 scale.
type Recommendation struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

// EnrichedRecommendation joins a Recommendation with its reference data.
// Stock is nil when the symbol is not in the reference table.
type EnrichedRecommendation struct {
	Recommendation
	Rank  int             `json:"rank"` // 1-based
	Stock *StockReference `json:"stock,omitempty"`
}

// RecommendationKind identifies the scoring algorithm.
type RecommendationKind string

const (
	KindSector RecommendationKind = "sector"
	KindRisk   RecommendationKind = "risk"
)

// RecommendationList is the result of one recommendation request.
type RecommendationList struct {
	UserID    string                   `json:"user_id"`
	Kind      RecommendationKind       `json:"kind"`
	TopSector string                   `json:"top_sector,omitempty"` // sector kind only
	Total     int                      `json:"total"`                // candidates before truncation
	Items     []EnrichedRecommendation `json:"items"`
}
