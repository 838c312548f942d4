// Package manifest derives the canonical manifest of a reference folder
// from its note files and reconciles it against the persisted MANIFEST.md.
//
// The file set is ground truth; the manifest is a derived view. Description
// text is an opaque payload supplied by an external collaborator: it is
// keyed by note title, round-tripped untouched, and dropped only when its
// note disappears.
package manifest

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fenwick/ordna/internal/models"
	"github.com/fenwick/ordna/internal/storage"
)

const (
	header = "# Knowledge Manifest\n\n| File | Tags | Description |\n|------|------|-------------|\n"

	// placeholderDesc marks rows the external collaborator has not
	// described yet.
	placeholderDesc = "No description"
	// emptyRow keeps an empty reference folder's manifest well-formed.
	emptyRow = "| *(empty)* |  |  |\n"
)

var titleCellRe = regexp.MustCompile(`^\[\[(.+)\]\]$`)

// Row is one persisted manifest entry keyed by note title.
type Row struct {
	Title       string
	Tags        []string
	Description string
}

// Parse extracts rows from manifest bytes. It is deliberately tolerant:
// lines that are not table rows are ignored, and a missing or garbled
// document simply yields zero rows — the reconciler then treats every note
// as missing. Parse never fails.
func Parse(data []byte) map[string]Row {
	rows := make(map[string]Row)
	for _, line := range strings.Split(string(data), "\n") {
		cells := splitRow(line)
		if len(cells) == 0 {
			continue
		}
		m := titleCellRe.FindStringSubmatch(cells[0])
		if m == nil {
			continue
		}
		row := Row{Title: m[1]}
		switch {
		case len(cells) >= 3:
			row.Tags = parseTags(cells[1])
			row.Description = cells[2]
		case len(cells) == 2:
			// Legacy two-column format: | [[Title]] | Description |
			row.Description = cells[1]
		}
		rows[row.Title] = row
	}
	return rows
}

// splitRow splits a markdown table row into trimmed cells, or returns nil
// when the line is not a row. At most three cells are produced: everything
// past the second separator belongs to the description, which may itself
// contain pipes.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
		return nil
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
	parts := strings.SplitN(inner, "|", 3)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

func parseTags(cell string) []string {
	var out []string
	for _, t := range strings.Split(cell, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Generate renders the canonical manifest for the given note records,
// carrying descriptions over from prev where the note still exists. Rows
// are ordered by title, case-insensitive; the output is byte-stable for an
// unchanged file set.
func Generate(records []models.NoteRecord, prev map[string]Row) []byte {
	var b bytes.Buffer
	b.WriteString(header)

	if len(records) == 0 {
		b.WriteString(emptyRow)
		return b.Bytes()
	}

	sorted := make([]models.NoteRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		li, lj := strings.ToLower(sorted[i].Title), strings.ToLower(sorted[j].Title)
		if li != lj {
			return li < lj
		}
		return sorted[i].Title < sorted[j].Title
	})

	for _, r := range sorted {
		desc := placeholderDesc
		if p, ok := prev[r.Title]; ok && strings.TrimSpace(p.Description) != "" {
			desc = p.Description
		}
		fmt.Fprintf(&b, "| [[%s]] | %s | %s |\n", r.Title, strings.Join(r.Tags, ", "), desc)
	}
	return b.Bytes()
}

// Result is the outcome of comparing a reference folder against its
// persisted manifest.
type Result struct {
	// InSync means the persisted bytes already equal the canonical bytes;
	// applying a fix would write nothing.
	InSync bool
	// Absent means no manifest file exists yet.
	Absent bool
	// Missing are note titles with no manifest row.
	Missing []string
	// Orphaned are manifest rows whose note no longer exists.
	Orphaned []string
	// Changed are titles present on both sides whose recorded tags
	// disagree with the freshly derived tags. Whether to remediate is the
	// caller's policy; the comparison only surfaces the distinction.
	Changed []string
	// Reordered means the logical rows match but the byte order or
	// formatting does not.
	Reordered bool
	// Canonical is the regenerated manifest content.
	Canonical []byte
}

// Reconcile compares the note records of one reference folder with the
// manifest observed at scan time. An unreadable or absent manifest is never
// a hard error: it parses to zero rows and every note reports as missing.
func Reconcile(records []models.NoteRecord, mf models.ManifestFile) Result {
	var rows map[string]Row
	if mf.Exists {
		rows = Parse(mf.Content)
	}

	res := Result{Absent: !mf.Exists}
	res.Canonical = Generate(records, rows)

	onDisk := make(map[string]models.NoteRecord, len(records))
	for _, r := range records {
		onDisk[r.Title] = r
		row, ok := rows[r.Title]
		if !ok {
			res.Missing = append(res.Missing, r.Title)
			continue
		}
		if !equalTags(r.Tags, row.Tags) {
			res.Changed = append(res.Changed, r.Title)
		}
	}
	for title := range rows {
		if _, ok := onDisk[title]; !ok {
			res.Orphaned = append(res.Orphaned, title)
		}
	}
	sort.Strings(res.Missing)
	sort.Strings(res.Orphaned)
	sort.Strings(res.Changed)

	logicalMatch := len(res.Missing) == 0 && len(res.Orphaned) == 0 && len(res.Changed) == 0
	res.InSync = mf.Exists && bytes.Equal(mf.Content, res.Canonical)
	res.Reordered = mf.Exists && logicalMatch && !res.InSync

	return res
}

// equalTags compares two canonically sorted tag sets.
func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Apply regenerates the manifest of one pillar's reference folder. It is a
// no-op when the folder is already in sync (no write, no timestamp churn).
// The write is guarded by the checksum observed at scan time: if the file
// changed underneath, only this update is aborted (storage returns
// apperr.ErrConflict) and the caller surfaces a soft finding.
func Apply(store storage.Provider, p models.Pillar) (bool, error) {
	// A pillar without a reference folder has nothing to reconcile; writing
	// would invent a directory the user never created.
	if !p.HasReference {
		return false, nil
	}
	res := Reconcile(p.Notes, p.Manifest)
	if res.InSync {
		return false, nil
	}
	if err := store.WriteIfMatch(p.Manifest.Path, res.Canonical, p.Manifest.Checksum); err != nil {
		return false, err
	}
	return true, nil
}
