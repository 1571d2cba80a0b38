package pdfio

import (
	"strings"
	"unicode"
)

// Splitter cuts text into segments of at most ChunkSize runes, where each
// segment starts ChunkOverlap runes before the previous one ended. Cuts
// prefer whitespace boundaries when one exists in the back half of the
// window. Output preserves input order.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// DefaultSplitter returns the splitter used for recipe documents.
func DefaultSplitter() Splitter {
	return Splitter{ChunkSize: 1000, ChunkOverlap: 200}
}

func (s Splitter) Split(text string) []string {
	size := s.ChunkSize
	if size <= 0 {
		size = 1000
	}
	overlap := s.ChunkOverlap
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		} else if cut := lastBreak(runes[start:end]); cut > size/2 {
			end = start + cut
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}

		if end >= len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return out
}

// lastBreak returns the index just past the last whitespace rune in the
// window, or 0 when the window has none.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}
	return 0
}
