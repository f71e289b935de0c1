package pagination_test

import (
	"math"
	"testing"

	"github.com/muhammadheryan/storefront/utils/pagination"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, 1, pagination.Normalize(0))
	assert.Equal(t, 1, pagination.Normalize(-3))
	assert.Equal(t, 1, pagination.Normalize(1))
	assert.Equal(t, 7, pagination.Normalize(7))
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name string
		page int
		size int
		want int
	}{
		{name: "first page", page: 1, size: 12, want: 0},
		{name: "second page", page: 2, size: 12, want: 12},
		{name: "negative page coerced", page: -1, size: 12, want: 0},
		{name: "third page", page: 3, size: 12, want: 24},
		{name: "huge page saturates", page: 1<<62 + 1, size: 12, want: math.MaxInt},
		{name: "max page saturates", page: math.MaxInt, size: 12, want: math.MaxInt},
		{name: "largest exact offset", page: math.MaxInt/12 + 1, size: 12, want: math.MaxInt / 12 * 12},
		{name: "zero size", page: 5, size: 0, want: 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pagination.Offset(tt.page, tt.size))
		})
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		want  int
	}{
		{name: "empty", total: 0, want: 0},
		{name: "one partial page", total: 5, want: 1},
		{name: "exactly one page", total: 12, want: 1},
		{name: "one over", total: 13, want: 2},
		{name: "two full pages", total: 24, want: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pagination.TotalPages(tt.total, 12))
		})
	}
}
