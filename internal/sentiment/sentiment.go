// Package sentiment tags news headlines with a keyword-based tone score.
//
// Scores range from -1.0 (bearish) to +1.0 (bullish). The scorer is
// deterministic and works offline.
package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/seenimoa/stockrec/pkg/models"
)

// Labels returned by Label.
const (
	LabelBullish         = "Bullish"
	LabelSlightlyBullish = "Slightly Bullish"
	LabelNeutral         = "Neutral"
	LabelSlightlyBearish = "Slightly Bearish"
	LabelBearish         = "Bearish"
)

type keyword struct {
	phrase string
	weight float64
}

// bullish / bearish keyword dictionaries (lowercase).
var bullishWords = []keyword{
	{"bullish", 0.7}, {"rally", 0.6}, {"surge", 0.7}, {"soar", 0.7},
	{"upbeat", 0.5}, {"positive", 0.4}, {"growth", 0.4}, {"upgrade", 0.6},
	{"outperform", 0.6}, {"buy", 0.5}, {"strong", 0.4}, {"recovery", 0.5},
	{"breakout", 0.6}, {"record high", 0.7}, {"all-time high", 0.7},
	{"beat", 0.5}, {"exceeds", 0.5}, {"raises guidance", 0.6},
	{"expansion", 0.4}, {"profit", 0.3}, {"dividend", 0.4}, {"buyback", 0.5},
}

var bearishWords = []keyword{
	{"bearish", 0.7}, {"crash", 0.8}, {"plunge", 0.7}, {"slump", 0.6},
	{"tumble", 0.6}, {"negative", 0.4}, {"downgrade", 0.6},
	{"underperform", 0.6}, {"sell", 0.5}, {"weak", 0.4}, {"decline", 0.5},
	{"loss", 0.4}, {"selloff", 0.7}, {"fall", 0.4}, {"correction", 0.5},
	{"default", 0.7}, {"fraud", 0.8}, {"lawsuit", 0.5}, {"investigation", 0.5},
	{"layoff", 0.5}, {"cut", 0.3}, {"miss", 0.5}, {"warning", 0.5}, {"concern", 0.3},
}

// ScoreHeadline returns the tone of text and a confidence in [0.1, 0.85].
func ScoreHeadline(text string) (score, confidence float64) {
	lower := strings.ToLower(text)

	bull, bear := 0.0, 0.0
	matches := 0
	for _, k := range bullishWords {
		if strings.Contains(lower, k.phrase) {
			bull += k.weight
			matches++
		}
	}
	for _, k := range bearishWords {
		if strings.Contains(lower, k.phrase) {
			bear += k.weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1 // no signal
	}

	// Net score normalized to -1..+1.
	score = (bull - bear) / (bull + bear)
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// Label buckets a score.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return LabelBullish
	case score > 0.1:
		return LabelSlightlyBullish
	case score < -0.3:
		return LabelBearish
	case score < -0.1:
		return LabelSlightlyBearish
	default:
		return LabelNeutral
	}
}

// Tag scores every headline in place.
func Tag(headlines []models.Headline) {
	for i := range headlines {
		score, _ := ScoreHeadline(headlines[i].Title)
		headlines[i].Sentiment = score
		headlines[i].SentimentLabel = Label(score)
	}
}

// Aggregate computes a time-weighted tone over headlines. Weight halves
// every 24 hours of age; headlines without a date count as fresh.
func Aggregate(symbol string, headlines []models.Headline, now time.Time) models.SentimentSummary {
	sum := models.SentimentSummary{Symbol: symbol, Label: LabelNeutral, Count: len(headlines)}
	if len(headlines) == 0 {
		return sum
	}

	weighted, total := 0.0, 0.0
	for _, h := range headlines {
		score, conf := ScoreHeadline(h.Title)
		age := 0.0
		if !h.PublishedAt.IsZero() {
			age = math.Max(now.Sub(h.PublishedAt).Hours(), 0)
		}
		w := math.Exp(-math.Ln2*age/24) * conf
		weighted += score * w
		total += w
	}
	if total > 0 {
		sum.Score = weighted / total
	}
	sum.Label = Label(sum.Score)
	return sum
}
