// Package report aggregates findings from all pillars into one
// deterministically ordered report. Two runs over an unchanged vault
// produce byte-identical output, which downstream collaborators rely on to
// tell a new notification from a duplicate.
package report

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/fenwick/ordna/internal/checksum"
	"github.com/fenwick/ordna/internal/models"
)

// Report is the consolidated outcome of one run. An empty Findings list is
// a valid, normal result and is distinct from a failed run (which returns
// an error instead of a Report).
type Report struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Findings    []models.Finding     `json:"findings"`
	Warnings    []models.Warning     `json:"warnings,omitempty"`
	Errors      []models.PillarError `json:"errors,omitempty"`
}

// New creates an empty report stamped with the run's evaluation instant.
func New(now time.Time) *Report {
	return &Report{GeneratedAt: now}
}

// Add appends findings; call Sort once all detectors have contributed.
func (r *Report) Add(f ...models.Finding) {
	r.Findings = append(r.Findings, f...)
}

// HasFindings reports whether the run surfaced anything actionable.
func (r *Report) HasFindings() bool {
	return len(r.Findings) > 0
}

// kindRank fixes the normative ordering of finding kinds within a pillar.
func kindRank(k models.FindingKind) int {
	switch k {
	case models.KindManifestDrift:
		return 0
	case models.KindStaleProject:
		return 1
	case models.KindStaleCapture:
		return 2
	case models.KindRootFile:
		return 3
	}
	return 4
}

// Sort orders findings by pillar path, then kind, then item path, and
// sorts warnings and errors the same way for stable serialization.
func (r *Report) Sort() {
	sort.SliceStable(r.Findings, func(i, j int) bool {
		a, b := r.Findings[i], r.Findings[j]
		if a.Pillar != b.Pillar {
			return a.Pillar < b.Pillar
		}
		if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
			return ra < rb
		}
		return a.Path < b.Path
	})
	sort.SliceStable(r.Warnings, func(i, j int) bool {
		if r.Warnings[i].Pillar != r.Warnings[j].Pillar {
			return r.Warnings[i].Pillar < r.Warnings[j].Pillar
		}
		return r.Warnings[i].Path < r.Warnings[j].Path
	})
	sort.SliceStable(r.Errors, func(i, j int) bool {
		return r.Errors[i].Pillar < r.Errors[j].Pillar
	})
}

// Digest returns a stable fingerprint of the sorted findings, used by the
// run ledger to decide whether a new notification is warranted.
func (r *Report) Digest() string {
	data, _ := json.Marshal(r.Findings)
	return checksum.Sum(data)
}
