// Package staleness flags tracked items that have aged past a policy
// threshold.
package staleness

import (
	"time"

	"github.com/fenwick/ordna/internal/models"
)

// Default thresholds in whole days.
const (
	DefaultCaptureDays = 3
	DefaultActiveDays  = 30
)

// Stale is one item exceeding its threshold, annotated with its age.
type Stale struct {
	Item    models.TrackedItem
	AgeDays int
}

// AgeDays returns the whole-calendar-day difference between now and t.
// Same day is 0; a future t yields a negative age.
func AgeDays(now, t time.Time) int {
	ny, nm, nd := now.Date()
	ty, tm, td := t.Date()
	a := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// Detect returns the items whose age strictly exceeds thresholdDays. An age
// exactly equal to the threshold is not flagged. All items are compared
// against the same evaluation instant so a slow run still yields one
// consistent report.
func Detect(items []models.TrackedItem, thresholdDays int, now time.Time) []Stale {
	var out []Stale
	for _, item := range items {
		age := AgeDays(now, item.Created)
		if age > thresholdDays {
			out = append(out, Stale{Item: item, AgeDays: age})
		}
	}
	return out
}
