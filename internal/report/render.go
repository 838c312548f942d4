package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenwick/ordna/internal/models"
)

// RenderMarkdown produces the task document for the issue-creating
// collaborator: one numbered section per finding kind, grouped by pillar.
// Rendering the same report twice yields identical bytes.
func (r *Report) RenderMarkdown() string {
	var b strings.Builder
	b.WriteString("# Vault Cleaning Tasks\n")

	if !r.HasFindings() {
		b.WriteString("\nNo findings. Vault is tidy.\n")
		r.renderWarnings(&b)
		return b.String()
	}

	byKind := make(map[models.FindingKind][]models.Finding)
	for _, f := range r.Findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	section := 0
	writeSection := func(title string) {
		section++
		fmt.Fprintf(&b, "\n## %d. %s\n\n", section, title)
	}

	if drifts := byKind[models.KindManifestDrift]; len(drifts) > 0 {
		writeSection("Fix Manifest Files")
		for _, f := range drifts {
			fmt.Fprintf(&b, "**%s**\n", filepath.Join(f.Pillar, models.ReferenceFolder, models.ManifestName))
			if f.ManifestMissing {
				b.WriteString("- Create: manifest file is missing\n")
			}
			for _, t := range f.Missing {
				fmt.Fprintf(&b, "- Add: `[[%s]]`\n", t)
			}
			for _, t := range f.Orphaned {
				fmt.Fprintf(&b, "- Remove: `[[%s]]`\n", t)
			}
			for _, t := range f.Changed {
				fmt.Fprintf(&b, "- Retag: `[[%s]]`\n", t)
			}
			if f.Reordered {
				b.WriteString("- Regenerate: rows out of canonical order\n")
			}
		}
	}

	if stale := byKind[models.KindStaleProject]; len(stale) > 0 {
		writeSection("Archive Stale Projects")
		r.renderStale(&b, stale, models.ActiveFolder)
	}

	if stale := byKind[models.KindStaleCapture]; len(stale) > 0 {
		writeSection("Process Inbox Items")
		r.renderStale(&b, stale, models.CaptureFolder)
	}

	if roots := byKind[models.KindRootFile]; len(roots) > 0 {
		writeSection("Move Files from Vault Root")
		for _, f := range roots {
			fmt.Fprintf(&b, "- `%s`\n", f.Path)
		}
	}

	r.renderWarnings(&b)
	return b.String()
}

func (r *Report) renderStale(b *strings.Builder, findings []models.Finding, folder string) {
	lastPillar := "\x00"
	for _, f := range findings {
		if f.Pillar != lastPillar {
			fmt.Fprintf(b, "**%s/**\n", filepath.Join(f.Pillar, folder))
			lastPillar = f.Pillar
		}
		fmt.Fprintf(b, "- `%s` (%d days)\n", filepath.Base(f.Path), f.AgeDays)
	}
}

func (r *Report) renderWarnings(b *strings.Builder) {
	if len(r.Warnings) == 0 && len(r.Errors) == 0 {
		return
	}
	b.WriteString("\n## Warnings\n\n")
	for _, e := range r.Errors {
		fmt.Fprintf(b, "- %s: %s\n", e.Pillar, e.Err)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(b, "- `%s`: %s\n", w.Path, w.Reason)
	}
}
