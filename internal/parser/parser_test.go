package parser

import (
	"reflect"
	"testing"
	"time"
)

func TestParseFrontmatterAndBody(t *testing.T) {
	data := []byte(`---
title: My Note
tags:
  - alpha
  - beta
---

Body text here.
`)
	res := Parse(data)
	if res.Unparsed {
		t.Fatal("unexpected Unparsed")
	}
	if res.Frontmatter["title"] != "My Note" {
		t.Errorf("title = %v", res.Frontmatter["title"])
	}
	if res.Body != "Body text here.\n" {
		t.Errorf("body = %q", res.Body)
	}
	if !reflect.DeepEqual(res.Tags, []string{"alpha", "beta"}) {
		t.Errorf("tags = %v", res.Tags)
	}
}

func TestParseNoFrontmatter(t *testing.T) {
	res := Parse([]byte("Just plain markdown.\n"))
	if res.Unparsed {
		t.Error("unexpected Unparsed")
	}
	if res.Frontmatter != nil {
		t.Errorf("frontmatter = %v", res.Frontmatter)
	}
	if res.Body != "Just plain markdown.\n" {
		t.Errorf("body = %q", res.Body)
	}
}

func TestParseMalformedFrontmatter(t *testing.T) {
	data := []byte("---\ntitle: [unclosed\n  bad: : :\n---\nbody\n")
	res := Parse(data)
	if !res.Unparsed {
		t.Fatal("expected Unparsed for invalid YAML")
	}
	if res.Frontmatter != nil {
		t.Errorf("frontmatter = %v, want nil", res.Frontmatter)
	}
}

func TestParseUnterminatedFrontmatter(t *testing.T) {
	data := []byte("---\ntitle: x\nno closing delimiter\n")
	res := Parse(data)
	if res.Unparsed {
		t.Error("unexpected Unparsed")
	}
	if res.Frontmatter != nil {
		t.Errorf("frontmatter = %v, want nil", res.Frontmatter)
	}
	if res.Body != string(data) {
		t.Errorf("body = %q", res.Body)
	}
}

func TestExtractLinks(t *testing.T) {
	body := "See [[alpha]] and [[beta|the beta note]], also [[alpha]] again."
	links := extractLinks(body)
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(links, want) {
		t.Errorf("links = %v, want %v", links, want)
	}
}

func TestExtractTagsSortedAndMerged(t *testing.T) {
	data := []byte(`---
tags:
  - zulu
  - alpha
---
Inline #mike and #alpha too.
`)
	res := Parse(data)
	want := []string{"alpha", "mike", "zulu"}
	if !reflect.DeepEqual(res.Tags, want) {
		t.Errorf("tags = %v, want %v", res.Tags, want)
	}
}

func TestExtractTagsStringForm(t *testing.T) {
	data := []byte("---\ntags: \"one, two\"\n---\nbody\n")
	res := Parse(data)
	want := []string{"one", "two"}
	if !reflect.DeepEqual(res.Tags, want) {
		t.Errorf("tags = %v, want %v", res.Tags, want)
	}
}

func TestExtractCreated(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{
			name: "created date string",
			in:   "---\ncreated: \"2025-06-01\"\n---\n",
			want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "date fallback key",
			in:   "---\ndate: \"2025-03-15\"\n---\n",
			want: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "created wins over date",
			in:   "---\ncreated: \"2025-06-01\"\ndate: \"2024-01-01\"\n---\n",
			want: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "absent",
			in:   "---\ntitle: x\n---\n",
			want: time.Time{},
		},
		{
			name: "unparseable value ignored",
			in:   "---\ncreated: \"yesterday-ish\"\n---\n",
			want: time.Time{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Parse([]byte(tc.in))
			if !res.Created.Equal(tc.want) {
				t.Errorf("created = %v, want %v", res.Created, tc.want)
			}
		})
	}
}

func TestExtractCreatedYAMLDate(t *testing.T) {
	// Unquoted YAML dates decode to time.Time directly.
	res := Parse([]byte("---\ncreated: 2025-06-01\n---\n"))
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !res.Created.Equal(want) {
		t.Errorf("created = %v, want %v", res.Created, want)
	}
}
