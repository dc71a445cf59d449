package page

import (
	"fmt"
	"testing"

	"github.com/univrs/discovery/internal/content"
	"github.com/univrs/discovery/internal/rank"
)

func results(n int) []*rank.ScoredResult {
	out := make([]*rank.ScoredResult, n)
	for i := range out {
		out[i] = &rank.ScoredResult{Item: &content.Item{ID: fmt.Sprintf("item-%03d", i)}}
	}
	return out
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name         string
		total        int
		page         int
		pageSize     int
		wantLen      int
		wantFirstID  string
		wantHasNext  bool
		wantHasPrev  bool
	}{
		{
			name:        "first page full",
			total:       45,
			page:        1,
			pageSize:    20,
			wantLen:     20,
			wantFirstID: "item-000",
			wantHasNext: true,
			wantHasPrev: false,
		},
		{
			name:        "middle page",
			total:       45,
			page:        2,
			pageSize:    20,
			wantLen:     20,
			wantFirstID: "item-020",
			wantHasNext: true,
			wantHasPrev: true,
		},
		{
			name:        "last partial page",
			total:       45,
			page:        3,
			pageSize:    20,
			wantLen:     5,
			wantFirstID: "item-040",
			wantHasNext: false,
			wantHasPrev: true,
		},
		{
			name:        "page beyond last is empty, not an error",
			total:       45,
			page:        10,
			pageSize:    20,
			wantLen:     0,
			wantHasNext: false,
			wantHasPrev: true,
		},
		{
			name:        "huge page number stays in the beyond-last case",
			total:       1,
			page:        1 << 62,
			pageSize:    100,
			wantLen:     0,
			wantHasNext: false,
			wantHasPrev: true,
		},
		{
			name:        "empty set",
			total:       0,
			page:        1,
			pageSize:    20,
			wantLen:     0,
			wantHasNext: false,
			wantHasPrev: false,
		},
		{
			name:        "exact boundary has no next",
			total:       40,
			page:        2,
			pageSize:    20,
			wantLen:     20,
			wantFirstID: "item-020",
			wantHasNext: false,
			wantHasPrev: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(results(tt.total), tt.page, tt.pageSize)

			if len(p.Items) != tt.wantLen {
				t.Errorf("len(Items) = %d, want %d", len(p.Items), tt.wantLen)
			}
			if tt.wantLen > 0 && p.Items[0].Item.ID != tt.wantFirstID {
				t.Errorf("first item = %q, want %q", p.Items[0].Item.ID, tt.wantFirstID)
			}
			if p.TotalCount != tt.total {
				t.Errorf("TotalCount = %d, want %d", p.TotalCount, tt.total)
			}
			if p.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v, want %v", p.HasNext, tt.wantHasNext)
			}
			if p.HasPrevious != tt.wantHasPrev {
				t.Errorf("HasPrevious = %v, want %v", p.HasPrevious, tt.wantHasPrev)
			}
			if p.Page != tt.page || p.PageSize != tt.pageSize {
				t.Errorf("echo fields = (%d,%d), want (%d,%d)", p.Page, p.PageSize, tt.page, tt.pageSize)
			}
			if p.Items == nil {
				t.Error("Items is nil, want empty slice")
			}
		})
	}
}

func TestPaginateOutOfRangeInputs(t *testing.T) {
	// Upstream validation rejects these, but the paginator must not panic
	// on them either.
	tests := []struct {
		name     string
		page     int
		pageSize int
	}{
		{name: "max int page", page: int(^uint(0) >> 1), pageSize: 100},
		{name: "zero page", page: 0, pageSize: 20},
		{name: "negative page", page: -5, pageSize: 20},
		{name: "zero page size", page: 1, pageSize: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(results(10), tt.page, tt.pageSize)
			if len(p.Items) != 0 {
				t.Errorf("len(Items) = %d, want 0", len(p.Items))
			}
			if p.HasNext {
				t.Error("HasNext = true, want false")
			}
			if p.TotalCount != 10 {
				t.Errorf("TotalCount = %d, want 10", p.TotalCount)
			}
		})
	}
}

func TestPaginateAdjacentPagesDisjoint(t *testing.T) {
	ordered := results(50)
	seen := make(map[string]bool)
	for pageNum := 1; pageNum <= 3; pageNum++ {
		p := Paginate(ordered, pageNum, 20)
		for _, r := range p.Items {
			if seen[r.Item.ID] {
				t.Errorf("item %s appears on more than one page", r.Item.ID)
			}
			seen[r.Item.ID] = true
		}
	}
	if len(seen) != 50 {
		t.Errorf("pages covered %d items, want 50", len(seen))
	}
}
