// Package chunk splits document text into overlapping fixed-size spans and
// extracts a best-effort title, the first stage of the ingest pipeline.
package chunk

import "strings"

// DefaultSize and DefaultOverlap are applied by callers that omit config.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// maxTitleLen is the codepoint length a fallback title is truncated to.
const maxTitleLen = 100

// Split slides a window of size codepoints over text, stepping by
// size-overlap when size exceeds overlap and by size otherwise (never less
// than 1), and returns the trimmed, non-empty windows.
//
// If text is empty it returns nil. If text's codepoint length is at most
// size, the whole text is returned unchanged as the sole chunk.
func Split(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size
	if size > overlap {
		step = size - overlap
	}
	if step < 1 {
		step = 1
	}

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			out = append(out, piece)
		}

		if end == len(runes) {
			break
		}
	}

	return out
}

// ExtractTitle scans text line by line. The first line whose trimmed form
// begins with "#" has its leading hashes and whitespace stripped and is
// returned as the title. Otherwise the first non-empty trimmed line is
// returned, truncated to 100 codepoints with a "..." suffix if longer.
// If text has no non-empty line, fallback is returned unchanged.
func ExtractTitle(text, fallback string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
		return truncateRunes(trimmed, maxTitleLen)
	}
	return fallback
}

// truncateRunes truncates s to at most n codepoints, appending "..." when
// truncation occurred.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
