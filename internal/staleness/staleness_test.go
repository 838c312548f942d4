package staleness

import (
	"testing"
	"time"

	"github.com/fenwick/ordna/internal/models"
)

func TestAgeDays(t *testing.T) {
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		t    time.Time
		want int
	}{
		{"same instant", now, 0},
		{"same day earlier hour", time.Date(2025, 6, 10, 0, 1, 0, 0, time.UTC), 0},
		{"yesterday late evening", time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC), 1},
		{"three days", time.Date(2025, 6, 7, 12, 0, 0, 0, time.UTC), 3},
		{"across month boundary", time.Date(2025, 5, 31, 8, 0, 0, 0, time.UTC), 10},
		{"future", time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgeDays(now, tc.t); got != tc.want {
				t.Errorf("AgeDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestAgeDaysIgnoresClockTime(t *testing.T) {
	// Only the calendar date matters: 1 second before midnight vs 1 second
	// after still differ by a whole day.
	now := time.Date(2025, 6, 10, 0, 0, 1, 0, time.UTC)
	then := time.Date(2025, 6, 9, 23, 59, 59, 0, time.UTC)
	if got := AgeDays(now, then); got != 1 {
		t.Errorf("AgeDays = %d, want 1", got)
	}
}

func item(name string, created time.Time) models.TrackedItem {
	return models.TrackedItem{Path: "p/Inbox/" + name, Name: name, Created: created}
}

func TestDetectThresholdExclusive(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	threshold := 3

	items := []models.TrackedItem{
		item("exactly-at.md", time.Date(2025, 6, 7, 9, 0, 0, 0, time.UTC)),  // age 3, not stale
		item("one-over.md", time.Date(2025, 6, 6, 9, 0, 0, 0, time.UTC)),   // age 4, stale
		item("fresh.md", time.Date(2025, 6, 10, 1, 0, 0, 0, time.UTC)),     // age 0
		item("way-over.md", time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)),  // stale
		item("future.md", time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)),   // negative age
	}
	got := Detect(items, threshold, now)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Item.Name != "one-over.md" || got[0].AgeDays != 4 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Item.Name != "way-over.md" {
		t.Errorf("second = %+v", got[1])
	}
}

func TestDetectEmpty(t *testing.T) {
	now := time.Now()
	if got := Detect(nil, DefaultCaptureDays, now); len(got) != 0 {
		t.Errorf("got = %+v, want none", got)
	}
}
