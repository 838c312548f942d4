// Package vaultservice orchestrates one maintenance run: scan the vault,
// reconcile manifests, detect staleness, and aggregate the report. Each
// run re-scans from scratch; the filesystem is the only persisted state.
package vaultservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fenwick/ordna/internal/apperr"
	"github.com/fenwick/ordna/internal/manifest"
	"github.com/fenwick/ordna/internal/models"
	"github.com/fenwick/ordna/internal/report"
	"github.com/fenwick/ordna/internal/scanner"
	"github.com/fenwick/ordna/internal/staleness"
	"github.com/fenwick/ordna/internal/storage"
)

// Policy holds the staleness thresholds in whole days.
type Policy struct {
	CaptureDays int
	ActiveDays  int
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{
		CaptureDays: staleness.DefaultCaptureDays,
		ActiveDays:  staleness.DefaultActiveDays,
	}
}

// Service runs checks and fixes over one vault.
type Service struct {
	store   storage.Provider
	scanner *scanner.Scanner
	policy  Policy
	logger  *slog.Logger
}

// New creates a Service over the given vault.
func New(store storage.Provider, policy Policy, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		scanner: scanner.New(store, logger),
		policy:  policy,
		logger:  logger,
	}
}

// Snapshot scans the vault and returns the raw pillar snapshot.
func (s *Service) Snapshot(_ context.Context) (*scanner.Snapshot, error) {
	return s.scanner.Scan()
}

// Check performs a pure comparison run: no filesystem writes. The returned
// report is deterministically ordered; an empty finding list is a normal
// outcome. Only an inaccessible vault root returns an error.
func (s *Service) Check(_ context.Context, now time.Time) (*report.Report, error) {
	snap, err := s.scanner.Scan()
	if err != nil {
		return nil, err
	}
	return s.buildReport(snap, now), nil
}

// Fix applies regenerated manifests for every drifted reference folder and
// returns the report of what was found, plus the number of manifests
// written. A manifest that changed underneath since the scan aborts only
// that one update, surfaced as a warning; the rest of the run completes.
func (s *Service) Fix(_ context.Context, now time.Time) (*report.Report, int, error) {
	snap, err := s.scanner.Scan()
	if err != nil {
		return nil, 0, err
	}
	rep := s.buildReport(snap, now)

	applied := 0
	for _, p := range snap.Pillars {
		wrote, err := manifest.Apply(s.store, p)
		switch {
		case err == nil:
			if wrote {
				applied++
				s.logger.Info("manifest regenerated", slog.String("path", p.Manifest.Path))
			}
		case errors.Is(err, apperr.ErrConflict):
			rep.Warnings = append(rep.Warnings, models.Warning{
				Pillar: p.Path,
				Path:   p.Manifest.Path,
				Reason: "manifest changed during run; update skipped",
			})
			s.logger.Warn("manifest apply conflict", slog.String("path", p.Manifest.Path))
		default:
			rep.Errors = append(rep.Errors, models.PillarError{
				Pillar: p.Path,
				Err:    err.Error(),
			})
			s.logger.Error("manifest apply failed",
				slog.String("path", p.Manifest.Path),
				slog.String("error", err.Error()))
		}
	}
	rep.Sort()
	return rep, applied, nil
}

// buildReport turns one snapshot into the aggregated, ordered report. All
// items are evaluated against the same instant.
func (s *Service) buildReport(snap *scanner.Snapshot, now time.Time) *report.Report {
	rep := report.New(now)
	rep.Warnings = snap.Warnings
	rep.Errors = snap.Errors

	for _, p := range snap.Pillars {
		if p.HasReference {
			res := manifest.Reconcile(p.Notes, p.Manifest)
			if !res.InSync {
				rep.Add(models.Finding{
					Kind:            models.KindManifestDrift,
					Pillar:          p.Path,
					Missing:         res.Missing,
					Orphaned:        res.Orphaned,
					Changed:         res.Changed,
					Reordered:       res.Reordered,
					ManifestMissing: res.Absent,
				})
			}
		}

		for _, st := range staleness.Detect(p.Actives, s.policy.ActiveDays, now) {
			rep.Add(models.Finding{
				Kind:    models.KindStaleProject,
				Pillar:  p.Path,
				Path:    st.Item.Path,
				AgeDays: st.AgeDays,
			})
		}
		for _, st := range staleness.Detect(p.Captures, s.policy.CaptureDays, now) {
			rep.Add(models.Finding{
				Kind:    models.KindStaleCapture,
				Pillar:  p.Path,
				Path:    st.Item.Path,
				AgeDays: st.AgeDays,
			})
		}
	}

	// Root files group under ".", matching the root-as-pillar convention.
	for _, name := range snap.RootFiles {
		rep.Add(models.Finding{
			Kind:   models.KindRootFile,
			Pillar: ".",
			Path:   name,
		})
	}

	rep.Sort()
	return rep
}
