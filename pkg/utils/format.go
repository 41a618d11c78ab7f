package utils

import (
	"fmt"
	"math"
)

// FormatScore formats a 0-100 recommendation score with two decimals and
// a percent sign, e.g. "27.27%".
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f%%", score)
}

// FormatPct formats a signed percentage change, e.g. "+2.50%" or "-1.20%".
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// ScoreBar renders a score as a fixed-width bar of '#' characters.
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		return ""
	}
	n := int(math.Round(score / 100 * float64(width)))
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	bar := make([]byte, width)
	for i := range bar {
		if i < n {
			bar[i] = '#'
		} else {
			bar[i] = '.'
		}
	}
	return string(bar)
}
