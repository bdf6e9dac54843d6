// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// inlineSpaceRegex matches runs of horizontal whitespace
	inlineSpaceRegex = regexp.MustCompile(`[ \t\f\v]+`)
	// blankLinesRegex matches three or more consecutive newlines
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	// Remove HTML tags
	result := htmlTagRegex.ReplaceAllString(s, "")
	// Decode common HTML entities
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage by stripping HTML
// and normalizing whitespace. Line breaks are kept, at most one blank line in a row.
// NUL characters and invalid UTF-8 are dropped; Postgres text columns reject both.
func Text(s string) string {
	result := strings.ReplaceAll(StripHTML(storable(s)), "\r\n", "\n")
	result = inlineSpaceRegex.ReplaceAllString(result, " ")
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	result = blankLinesRegex.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func storable(s string) string {
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

var escapedNUL = []byte(`\u0000`)

// JSON returns raw unchanged when Postgres can store it as jsonb. Otherwise the
// document is decoded and re-encoded with NUL characters removed from every
// string and key, and invalid UTF-8 replaced.
func JSON(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) && !bytes.Contains(raw, escapedNUL) {
		return raw, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return json.Marshal(cleanJSON(doc))
}

func cleanJSON(v any) any {
	switch t := v.(type) {
	case string:
		return storable(t)
	case []any:
		for i := range t {
			t[i] = cleanJSON(t[i])
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[storable(k)] = cleanJSON(val)
		}
		return out
	default:
		return v
	}
}
