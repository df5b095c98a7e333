// Package chunker splits extracted document text into bounded,
// overlapping windows, the unit of embedding and retrieval.
package chunker

import "strings"

// DefaultMaxChunks bounds the number of windows produced from a single
// document. User uploads are unbounded; without a cap a hostile
// size/overlap ratio could otherwise chew through memory.
const DefaultMaxChunks = 1000

// Split slides a window of size chars across text, advancing by
// size-overlap each step. Line endings are normalized and each window is
// trimmed; empty windows are dropped. An overlap that is not smaller
// than size is clamped to a quarter of size so the stride stays
// positive. The loop additionally enforces strict forward progress and
// the maxChunks cap, so it terminates for any input.
func Split(text string, size, overlap, maxChunks int) []string {
	if size <= 0 {
		return nil
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		return []string{text}
	}

	chunks := make([]string, 0, (n/(size-overlap))+1)
	start := 0
	for start < n && len(chunks) < maxChunks {
		end := start + size
		if end > n {
			end = n
		}
		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}
		// The stride is measured from the nominal window end, not the
		// clamped one, so the final partial window ends the walk.
		next := start + size - overlap
		if next <= start {
			break
		}
		start = next
	}
	return chunks
}
