package content

import "testing"

func TestEntityTypeValid(t *testing.T) {
	for _, et := range AllEntityTypes {
		if !et.Valid() {
			t.Errorf("EntityType(%q).Valid() = false", et)
		}
	}
	for _, et := range []EntityType{"", "event", "POST"} {
		if et.Valid() {
			t.Errorf("EntityType(%q).Valid() = true", et)
		}
	}
}

func TestVisible(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want bool
	}{
		{name: "public and live", item: Item{IsPublic: true}, want: true},
		{name: "private", item: Item{IsPublic: false}, want: false},
		{name: "soft deleted", item: Item{IsPublic: true, IsDeleted: true}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Visible(); got != tt.want {
				t.Errorf("Visible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMentions(t *testing.T) {
	item := Item{
		Tags:     []string{"techno", "berlin"},
		Hashtags: []string{"warehouse"},
	}

	topics := func(ts ...string) map[string]struct{} {
		m := make(map[string]struct{}, len(ts))
		for _, t := range ts {
			m[t] = struct{}{}
		}
		return m
	}

	tests := []struct {
		name   string
		topics map[string]struct{}
		want   bool
	}{
		{name: "tag hit", topics: topics("techno"), want: true},
		{name: "hashtag hit", topics: topics("warehouse"), want: true},
		{name: "no overlap", topics: topics("jazz", "vinyl"), want: false},
		{name: "empty topic set", topics: topics(), want: false},
		{name: "nil topic set", topics: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := item.Mentions(tt.topics); got != tt.want {
				t.Errorf("Mentions() = %v, want %v", got, tt.want)
			}
		})
	}

	if !item.HasTag("berlin") || item.HasTag("jazz") {
		t.Error("HasTag gave wrong answer")
	}
}
