// Package evidence extracts citation records from answer text.
//
// The extractor is a pure function over the text: the same input always
// yields the same citations, so re-running it after a re-finalized answer
// appends identical rows.
package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/runix-ai/runix/internal/model"
)

var (
	markerRe = regexp.MustCompile(`\[(\d+)\]`)
	doiRe    = regexp.MustCompile(`10\.\d{4,9}/[^\s,;]+`)
	urlRe    = regexp.MustCompile(`https?://[^\s)]+`)
	// refLineRe matches reference-list lines like "[1] Some Title — 10.1000/x".
	refLineRe = regexp.MustCompile(`(?m)^\s*\[(\d+)\]\s+(.+)$`)
)

// snippetRadius is how many characters of surrounding text each citation keeps.
const snippetRadius = 120

// Extract scans answer text for numbered bracket citation markers and
// returns one citation per distinct index, in order of first appearance.
// Metadata (title, DOI, URL) comes from a trailing reference list when the
// answer carries one; otherwise only the snippet around the marker is kept.
func Extract(text string) []model.Citation {
	if text == "" {
		return nil
	}

	refs := parseReferences(text)

	var (
		citations []model.Citation
		seen      = make(map[int]bool)
	)
	for _, loc := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		idx, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil || seen[idx] {
			continue
		}
		// Reference-list lines re-use the marker syntax; only in-text
		// occurrences count as citations.
		if isReferenceLine(text, loc[0]) {
			continue
		}
		seen[idx] = true

		c := model.Citation{
			Index:   idx,
			Snippet: snippetAround(text, loc[0], loc[1]),
		}
		if ref, ok := refs[idx]; ok {
			c.Title = ref.title
			c.DOI = ref.doi
			c.URL = ref.url
		}
		citations = append(citations, c)
	}
	return citations
}

// Records converts extracted citations into persistable evidence rows for a task.
// Document id priority: DOI, then URL, then title, else "unknown"; the
// source-type tag records which identifier was present.
func Records(taskID, text string, citations []model.Citation) []model.Evidence {
	if len(citations) == 0 {
		return nil
	}

	now := time.Now().UTC()
	spans := markerSpans(text)

	evs := make([]model.Evidence, 0, len(citations))
	for _, c := range citations {
		docID, sourceType := "unknown", "unknown"
		switch {
		case c.DOI != "":
			docID, sourceType = c.DOI, "doi"
		case c.URL != "":
			docID, sourceType = c.URL, "url"
		case c.Title != "":
			docID, sourceType = c.Title, "title"
		}

		ev := model.Evidence{
			TaskID:        taskID,
			DocID:         docID,
			SourceType:    sourceType,
			TextHash:      hashText(c.Snippet),
			RawText:       c.Snippet,
			CreatedAt:     now,
			CitationIndex: c.Index,
		}
		if span, ok := spans[c.Index]; ok {
			start, end := span[0], span[1]
			ev.SpanStart = &start
			ev.SpanEnd = &end
		}
		evs = append(evs, ev)
	}
	return evs
}

type reference struct {
	title string
	doi   string
	url   string
}

// parseReferences collects metadata from reference-list style lines.
func parseReferences(text string) map[int]reference {
	refs := make(map[int]reference)
	for _, m := range refLineRe.FindAllStringSubmatch(text, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		body := strings.TrimSpace(m[2])

		var ref reference
		if doi := doiRe.FindString(body); doi != "" {
			ref.doi = doi
		}
		if url := urlRe.FindString(body); url != "" {
			ref.url = url
		}
		title := body
		for _, sep := range []string{" — ", " – ", " - "} {
			if i := strings.Index(title, sep); i > 0 {
				title = title[:i]
				break
			}
		}
		title = doiRe.ReplaceAllString(title, "")
		title = urlRe.ReplaceAllString(title, "")
		ref.title = strings.Trim(strings.TrimSpace(title), "—-– .")
		refs[idx] = ref
	}
	return refs
}

// isReferenceLine reports whether the marker at offset starts a reference-list line.
func isReferenceLine(text string, offset int) bool {
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return strings.TrimSpace(text[lineStart:offset]) == ""
}

// markerSpans returns the first in-text span for each citation index.
func markerSpans(text string) map[int][2]int {
	spans := make(map[int][2]int)
	for _, loc := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		idx, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if _, ok := spans[idx]; ok || isReferenceLine(text, loc[0]) {
			continue
		}
		spans[idx] = [2]int{loc[0], loc[1]}
	}
	return spans
}

// snippetAround returns the text surrounding a marker, clamped to the
// containing line and snippetRadius characters on each side.
func snippetAround(text string, start, end int) string {
	lo := start - snippetRadius
	if i := strings.LastIndexByte(text[:start], '\n'); i >= lo {
		lo = i + 1
	}
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetRadius
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 && end+i < hi {
		hi = end + i
	}
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
