package markethours

import (
	"testing"
	"time"
)

func istTime(hour, min int) time.Time {
	// Monday 2026-02-02, a regular trading day.
	return time.Date(2026, time.February, 2, hour, min, 0, 0, IST)
}

func TestIsWithinTradingWindow(t *testing.T) {
	tests := []struct {
		hour, min int
		want      bool
	}{
		{9, 15, false}, // session open, still inside the skip band
		{9, 44, false},
		{9, 45, true}, // window start, inclusive
		{12, 0, true},
		{15, 0, true}, // window end, inclusive
		{15, 1, false},
		{15, 29, false},
		{16, 0, false},
	}
	for _, tt := range tests {
		if got := IsWithinTradingWindow(istTime(tt.hour, tt.min)); got != tt.want {
			t.Errorf("%02d:%02d: got %v want %v", tt.hour, tt.min, got, tt.want)
		}
	}
}

func TestMarketOpen(t *testing.T) {
	open := MarketOpen(istTime(13, 30))
	if open.Hour() != 9 || open.Minute() != 15 {
		t.Errorf("open time: %v", open)
	}
	if open.Day() != 2 || open.Month() != time.February {
		t.Errorf("open date: %v", open)
	}

	// A UTC instant on the same IST date maps to the same open.
	utc := istTime(13, 30).UTC()
	if !MarketOpen(utc).Equal(open) {
		t.Errorf("UTC input: %v want %v", MarketOpen(utc), open)
	}
}

func TestIsMarketOpen(t *testing.T) {
	if !IsMarketOpen(istTime(10, 0)) {
		t.Error("mid-session Monday should be open")
	}
	if IsMarketOpen(istTime(15, 30)) {
		t.Error("close is exclusive")
	}
	// Saturday 2026-02-07.
	sat := time.Date(2026, time.February, 7, 10, 0, 0, 0, IST)
	if IsMarketOpen(sat) {
		t.Error("Saturday should be closed")
	}
	// Republic Day 2026-01-26 falls on a Monday.
	holiday := time.Date(2026, time.January, 26, 10, 0, 0, 0, IST)
	if IsMarketOpen(holiday) {
		t.Error("holiday should be closed")
	}
}

func TestNextPreOpen(t *testing.T) {
	// Friday evening 2026-02-06 rolls to Monday 9:10.
	fri := time.Date(2026, time.February, 6, 18, 0, 0, 0, IST)
	pre := NextPreOpen(fri)
	if pre.Weekday() != time.Monday || pre.Hour() != 9 || pre.Minute() != 10 {
		t.Errorf("pre-open: %v", pre)
	}
}
