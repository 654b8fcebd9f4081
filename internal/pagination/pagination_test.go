package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Request{Page: 1, PerPage: DefaultPerPage}, Normalize(0, 0))
	assert.Equal(t, Request{Page: 3, PerPage: 25}, Normalize(3, 25))
	assert.Equal(t, Request{Page: 1, PerPage: MaxPerPage}, Normalize(-4, 1000))
	assert.Equal(t, 50, Normalize(3, 25).Offset())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 5, TotalPages(41, 10))
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		page, perPage      int
		total              int64
		wantPage           int
		wantFrom, wantTo   int64
		wantPrev, wantNext bool
	}{
		{"first page", 1, 10, 35, 1, 1, 10, false, true},
		{"middle page", 2, 10, 35, 2, 11, 20, true, true},
		{"last partial page", 4, 10, 35, 4, 31, 35, true, false},
		{"page past the end is clamped", 9, 10, 35, 4, 31, 35, true, false},
		{"empty list", 3, 10, 0, 1, 0, 0, false, false},
		{"exact fit", 2, 5, 10, 2, 6, 10, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.wantPage, w.Page)
			assert.Equal(t, tt.wantFrom, w.From)
			assert.Equal(t, tt.wantTo, w.To)
			assert.Equal(t, tt.wantPrev, w.HasPrev())
			assert.Equal(t, tt.wantNext, w.HasNext())
		})
	}
}

func TestNextDisabledFromLastPageOnward(t *testing.T) {
	for total := int64(0); total <= 57; total++ {
		last := TotalPages(total, 10)
		for page := last; page <= last+3; page++ {
			w := NewWindow(page, 10, total)
			assert.False(t, w.HasNext(), "total=%d page=%d", total, page)
		}
		assert.False(t, NewWindow(1, 10, total).HasPrev())
	}
}
