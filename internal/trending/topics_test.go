package trending

import (
	"context"
	"testing"
)

func TestMemorySourceTopics(t *testing.T) {
	s := NewMemorySource("festival", "vinyl")

	topics, err := s.Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("Topics() len = %d, want 2", len(topics))
	}
	for _, want := range []string{"festival", "vinyl"} {
		if _, ok := topics[want]; !ok {
			t.Errorf("Topics() missing %q", want)
		}
	}
}

func TestMemorySourceSetTopicsReplaces(t *testing.T) {
	s := NewMemorySource("old")
	s.SetTopics("new")

	topics, err := s.Topics(context.Background())
	if err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if _, ok := topics["old"]; ok {
		t.Error("Topics() still contains replaced topic")
	}
	if _, ok := topics["new"]; !ok {
		t.Error("Topics() missing new topic")
	}
}

func TestMemorySourceReturnsCopy(t *testing.T) {
	s := NewMemorySource("festival")

	first, _ := s.Topics(context.Background())
	delete(first, "festival")

	second, _ := s.Topics(context.Background())
	if _, ok := second["festival"]; !ok {
		t.Error("mutating a returned set affected the source")
	}
}

func TestNewRedisSourceDefaultKey(t *testing.T) {
	s := NewRedisSource(nil, "")
	if s.key != DefaultRedisKey {
		t.Errorf("key = %q, want %q", s.key, DefaultRedisKey)
	}
	s = NewRedisSource(nil, "custom:key")
	if s.key != "custom:key" {
		t.Errorf("key = %q, want custom:key", s.key)
	}
}
