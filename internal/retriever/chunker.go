package retriever

import (
	"strings"
)

const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// splitText breaks a document into overlapping chunks, preferring paragraph
// and sentence boundaries over hard cuts.
func splitText(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= chunkSize {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := start + chunkSize
		if end >= len(content) {
			chunk := strings.TrimSpace(content[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findBoundary(content[start:end])
		chunk := strings.TrimSpace(content[start : start+cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := start + cut - chunkOverlap
		if next <= start {
			next = start + cut
		}
		start = next
	}
	return chunks
}

// findBoundary returns the index just past the last paragraph break,
// sentence end, or word break in window, in that order of preference.
func findBoundary(window string) int {
	if i := strings.LastIndex(window, "\n\n"); i > chunkOverlap {
		return i + 2
	}
	for _, sep := range []string{". ", "! ", "? ", "\n"} {
		if i := strings.LastIndex(window, sep); i > chunkOverlap {
			return i + len(sep)
		}
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return i + 1
	}
	return len(window)
}
