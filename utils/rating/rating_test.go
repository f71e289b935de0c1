package rating_test

import (
	"testing"

	"github.com/muhammadheryan/storefront/utils/rating"
	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   float64
	}{
		{name: "empty list", scores: nil, want: 0},
		{name: "single review", scores: []int{4}, want: 4},
		{name: "exact mean", scores: []int{5, 3}, want: 4},
		{name: "repeating decimal rounds down", scores: []int{5, 4, 4}, want: 4.3},
		{name: "repeating decimal rounds up", scores: []int{5, 5, 4}, want: 4.7},
		{name: "half rounds away from zero", scores: []int{5, 5, 5, 5, 5, 5, 5, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4}, want: 4.4},
		{name: "all lowest", scores: []int{1, 1, 1}, want: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rating.Mean(tt.scores))
		})
	}
}

func TestMean_Stable(t *testing.T) {
	scores := []int{5, 4, 4, 2, 1, 3}
	first := rating.Mean(scores)
	assert.Equal(t, first, rating.Mean(scores))
}
