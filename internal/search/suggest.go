package search

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// MaxEditDistance is the largest edit distance a vocabulary term may have
// from the query to be suggested.
const MaxEditDistance = 2

// Suggester supplies did-you-mean candidates for low-result queries.
// Absence of suggestions is never an error.
type Suggester interface {
	Suggest(ctx context.Context, text string, limit int) ([]string, error)
}

// VocabSuggester suggests corrections by fuzzy-matching the query against a
// known vocabulary (tag names, universe names, common terms).
// Thread-safe via RWMutex.
type VocabSuggester struct {
	mu    sync.RWMutex
	vocab []string
}

// NewVocabSuggester creates a suggester seeded with the given terms.
func NewVocabSuggester(terms ...string) *VocabSuggester {
	return &VocabSuggester{vocab: append([]string(nil), terms...)}
}

// NewVocabSuggesterFromFile loads a newline-delimited vocabulary file.
// Blank lines and lines starting with # are skipped.
func NewVocabSuggesterFromFile(path string) (*VocabSuggester, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary file: %w", err)
	}
	defer f.Close()

	s := NewVocabSuggester()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		s.vocab = append(s.vocab, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}
	return s, nil
}

// Add appends terms to the vocabulary.
func (s *VocabSuggester) Add(terms ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vocab = append(s.vocab, terms...)
}

// Suggest returns up to limit vocabulary terms within MaxEditDistance of
// the query, nearest first, ties broken lexicographically. The query
// itself is never suggested.
func (s *VocabSuggester) Suggest(ctx context.Context, text string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" || limit <= 0 {
		return nil, nil
	}

	type scored struct {
		term string
		dist int
	}
	var candidates []scored
	for _, term := range s.vocab {
		t := strings.ToLower(term)
		if t == q {
			continue
		}
		if d := editDistance(q, t, MaxEditDistance); d <= MaxEditDistance {
			candidates = append(candidates, scored{term: term, dist: d})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].term < candidates[j].term
	})

	if len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.term
	}
	return out, nil
}

// editDistance computes the Levenshtein distance between a and b, bailing
// out early with max+1 when the distance is guaranteed to exceed max.
func editDistance(a, b string, max int) int {
	if diff := len(a) - len(b); diff > max || -diff > max {
		return max + 1
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > max {
			return max + 1
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
