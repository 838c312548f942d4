package mcpserver

// ManifestFormatContract describes the canonical MANIFEST.md format that
// LLM consumers should preserve when editing vault pillars.
const ManifestFormatContract = `# Ordna Manifest Format Contract

Every pillar folder (a folder containing Inbox/, Projects/ and Knowledge/)
carries a derived MANIFEST.md that indexes its Knowledge notes.

## Structure

` + "```" + `markdown
# Knowledge Manifest

| File | Tags | Description |
|------|------|-------------|
| [[note-title]] | tag-one, tag-two | Short human-written description |
| [[other-note]] |  | No description |
` + "```" + `

## Rules

1. **The manifest is derived.** Ordna regenerates the File and Tags columns
   from the notes directly inside Knowledge/. Do not add or remove rows by
   hand; create or delete the underlying note instead.
2. **Descriptions are yours.** The Description column is never inferred from
   note content. Edit it freely; Ordna carries your text across
   regenerations. New rows start with ` + "`" + `No description` + "`" + `.
3. **Rows are sorted** by title, case-insensitively.
4. **Titles are wikilinks** to the note filename stem (no ` + "`" + `.md` + "`" + ` extension).
5. **Tags** come from the note itself (frontmatter list plus inline ` + "`" + `#tags` + "`" + `),
   rendered comma-separated in sorted order.
6. **An empty Knowledge folder** renders a single ` + "`" + `| *(empty)* |  |  |` + "`" + ` row.
7. **Encoding** is UTF-8 with a trailing newline.
`
