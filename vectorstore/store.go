package vectorstore

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/SaiNageswarS/go-collection-boot/ds"
	"github.com/SaiNageswarS/go-collection-boot/linq"
	"github.com/SaiNageswarS/recipe-flow/llm"
)

// Store is an ephemeral in-memory vector index scoped to a single retrieval
// call. Build it, search it, release it.
type Store struct {
	embedder llm.Embedder
	entries  []entry
}

type entry struct {
	text   string
	vector []float32
}

func New(embedder llm.Embedder) *Store {
	return &Store{embedder: embedder}
}

// Add registers a pre-embedded text segment. Order of addition is preserved
// as the tiebreak order for equal scores.
func (s *Store) Add(text string, vector []float32) {
	s.entries = append(s.entries, entry{text: text, vector: vector})
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Search embeds the query and returns up to k segment texts ranked by cosine
// similarity, most similar first. An empty store yields an empty result.
func (s *Store) Search(ctx context.Context, query string, k int) ([]string, error) {
	if len(s.entries) == 0 || k <= 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type pair struct {
		index int
		score float64
	}

	// Keep the top-k with a min-heap (higher similarity = better).
	h := ds.NewMinHeap(func(a, b pair) bool { return a.score < b.score })
	for i, e := range s.entries {
		h.Push(pair{index: i, score: cosine(queryVec, e.vector)})
		if h.Len() > k {
			h.Pop()
		}
	}

	ranked := linq.Map(h.ToSortedSlice(), func(p pair) string { return s.entries[p.index].text })
	slices.Reverse(ranked) // highest score first

	return ranked, nil
}

// Release drops the index. The store must not be used afterwards.
func (s *Store) Release() {
	s.entries = nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
