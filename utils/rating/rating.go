// Package rating computes the aggregate score shown for a product.
package rating

import "github.com/shopspring/decimal"

// Mean returns the arithmetic mean of scores rounded to one decimal place,
// half away from zero. An empty list yields 0.
func Mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}

	var sum int64
	for _, s := range scores {
		sum += int64(s)
	}

	mean := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(scores))))
	return mean.Round(1).InexactFloat64()
}
