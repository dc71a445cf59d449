package search

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestVocabSuggesterSuggest(t *testing.T) {
	s := NewVocabSuggester("techno", "house", "trance", "ambient", "technics")

	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{
			name:  "single edit",
			text:  "tecno",
			limit: 5,
			want:  []string{"techno"},
		},
		{
			name:  "case insensitive",
			text:  "TECNO",
			limit: 5,
			want:  []string{"techno"},
		},
		{
			name:  "exact term never suggested",
			text:  "house",
			limit: 5,
			want:  nil,
		},
		{
			name:  "no near terms",
			text:  "zzzzzzzz",
			limit: 5,
			want:  nil,
		},
		{
			name:  "limit respected",
			text:  "trance",
			limit: 0,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Suggest(context.Background(), tt.text, tt.limit)
			if err != nil {
				t.Fatalf("Suggest() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestVocabSuggesterOrdering(t *testing.T) {
	// "carted" is distance 2, the others distance 1.
	s := NewVocabSuggester("carted", "cat", "carts")

	got, err := s.Suggest(context.Background(), "cart", 5)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	want := []string{"carts", "cat", "carted"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggest() = %v, want %v (distance then lexicographic)", got, want)
	}
}

func TestVocabSuggesterAdd(t *testing.T) {
	s := NewVocabSuggester()
	if got, _ := s.Suggest(context.Background(), "tecno", 5); got != nil {
		t.Errorf("empty vocabulary suggested %v", got)
	}
	s.Add("techno")
	got, _ := s.Suggest(context.Background(), "tecno", 5)
	if len(got) != 1 || got[0] != "techno" {
		t.Errorf("Suggest() after Add = %v, want [techno]", got)
	}
}

func TestNewVocabSuggesterFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	data := "techno\n\n# comment line\nhouse\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewVocabSuggesterFromFile(path)
	if err != nil {
		t.Fatalf("NewVocabSuggesterFromFile() error = %v", err)
	}
	if len(s.vocab) != 2 {
		t.Errorf("vocabulary size = %d, want 2 (blank and comment lines skipped)", len(s.vocab))
	}

	if _, err := NewVocabSuggesterFromFile("/nonexistent/vocab.txt"); err == nil {
		t.Error("NewVocabSuggesterFromFile(missing) error = nil, want non-nil")
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want int
	}{
		{"techno", "techno", 2, 0},
		{"tecno", "techno", 2, 1},
		{"teno", "techno", 2, 2},
		{"abc", "xyz", 2, 3}, // exceeds max, reported as max+1
		{"a", "abcdefg", 2, 3},
		{"", "ab", 2, 2},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b, tt.max); got != tt.want {
			t.Errorf("editDistance(%q, %q, %d) = %d, want %d", tt.a, tt.b, tt.max, got, tt.want)
		}
	}
}
