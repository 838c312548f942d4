package models

// FindingKind discriminates the Finding variants.
type FindingKind string

const (
	KindManifestDrift FindingKind = "manifest_drift"
	KindStaleProject  FindingKind = "stale_project"
	KindStaleCapture  FindingKind = "stale_capture"
	KindRootFile      FindingKind = "root_file"
)

// Finding is one reported unit of drift or staleness. Findings are pure
// values produced once per run; persistence is the caller's concern.
type Finding struct {
	Kind   FindingKind `json:"kind"`
	Pillar string      `json:"pillar"`

	// Stale items and root files.
	Path    string `json:"path,omitempty"`
	AgeDays int    `json:"age_days,omitempty"`

	// Manifest drift. Titles, sorted.
	Missing  []string `json:"missing,omitempty"`
	Orphaned []string `json:"orphaned,omitempty"`
	Changed  []string `json:"changed,omitempty"`
	// Reordered marks a manifest whose logical rows match the file set but
	// whose bytes differ from the canonical order.
	Reordered bool `json:"reordered,omitempty"`
	// ManifestMissing marks a reference folder with no manifest file at all.
	ManifestMissing bool `json:"manifest_missing,omitempty"`
}

// Warning is a soft per-item problem that did not stop the run.
type Warning struct {
	Pillar string `json:"pillar,omitempty"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// PillarError is a structural problem confined to one pillar; the rest of
// the run still completes.
type PillarError struct {
	Pillar string `json:"pillar"`
	Err    string `json:"error"`
}
