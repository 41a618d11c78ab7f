package utils

import (
	"testing"
	"time"
)

func TestMarketOpenClose(t *testing.T) {
	date := time.Date(2026, 2, 18, 12, 0, 0, 0, ET)

	open := MarketOpenTime(date)
	if open.Hour() != 9 || open.Minute() != 30 {
		t.Errorf("MarketOpenTime = %v, want 09:30", open)
	}

	close := MarketCloseTime(date)
	if close.Hour() != 16 || close.Minute() != 0 {
		t.Errorf("MarketCloseTime = %v, want 16:00", close)
	}
}

func TestIsMarketOpenAt(t *testing.T) {
	// Wednesday at 10:00 AM ET, should be open
	if !IsMarketOpenAt(time.Date(2026, 2, 18, 10, 0, 0, 0, ET)) {
		t.Error("Expected market to be open on Wednesday 10:00 AM")
	}

	// Saturday, should be closed
	if IsMarketOpenAt(time.Date(2026, 2, 21, 10, 0, 0, 0, ET)) {
		t.Error("Expected market to be closed on Saturday")
	}

	// Closing bell is exclusive
	if IsMarketOpenAt(time.Date(2026, 2, 18, 16, 0, 0, 0, ET)) {
		t.Error("Expected market to be closed at 4:00 PM")
	}
}

func TestIsTradingDay(t *testing.T) {
	if !IsTradingDay(time.Date(2026, 2, 18, 0, 0, 0, 0, ET)) {
		t.Error("Expected Wednesday to be a trading day")
	}
	if IsTradingDay(time.Date(2026, 2, 21, 0, 0, 0, 0, ET)) {
		t.Error("Expected Saturday to not be a trading day")
	}
	if IsTradingDay(time.Date(2026, 11, 26, 0, 0, 0, 0, ET)) {
		t.Error("Expected Thanksgiving to not be a trading day")
	}
}

func TestMarketStatusAt(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"weekend", time.Date(2026, 2, 21, 11, 0, 0, 0, ET), "CLOSED (Weekend)"},
		{"holiday", time.Date(2026, 7, 3, 11, 0, 0, 0, ET), "CLOSED (Independence Day (observed))"},
		{"pre-market", time.Date(2026, 2, 18, 8, 0, 0, 0, ET), "PRE-MARKET"},
		{"open", time.Date(2026, 2, 18, 11, 0, 0, 0, ET), "OPEN"},
		{"after close", time.Date(2026, 2, 18, 17, 0, 0, 0, ET), "CLOSED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MarketStatusAt(tt.at); got != tt.want {
				t.Errorf("MarketStatusAt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatDateTimeET(t *testing.T) {
	d := time.Date(2026, 2, 19, 10, 30, 0, 0, ET)
	if got := FormatDateTimeET(d); got != "2026-02-19 10:30:00 ET" {
		t.Errorf("FormatDateTimeET = %s", got)
	}
}
