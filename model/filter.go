package model

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/muhammadheryan/storefront/constant"
	"github.com/shopspring/decimal"
)

// Optional holds a value that may be absent.
type Optional[T any] struct {
	Value T
	Valid bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// ProductFilter is the catalog search criteria. Absent fields do not constrain.
type ProductFilter struct {
	Keyword   Optional[string]
	Category  Optional[constant.Category]
	MinPrice  Optional[decimal.Decimal]
	MaxPrice  Optional[decimal.Decimal]
	MinRating Optional[float64]
}

// ParseProductFilter reads criteria from query parameters. Empty or
// unparseable values are treated as absent.
func ParseProductFilter(q url.Values) ProductFilter {
	var f ProductFilter

	if kw := strings.TrimSpace(q.Get("keyword")); kw != "" {
		f.Keyword = Some(kw)
	}
	if c := q.Get("category"); c != "" {
		f.Category = Some(constant.Category(c))
	}
	f.MinPrice = parseDecimal(q.Get("minPrice"))
	f.MaxPrice = parseDecimal(q.Get("maxPrice"))

	if r, err := strconv.ParseFloat(strings.TrimSpace(q.Get("rating")), 64); err == nil && !math.IsNaN(r) && !math.IsInf(r, 0) {
		f.MinRating = Some(r)
	}

	return f
}

func parseDecimal(s string) Optional[decimal.Decimal] {
	s = strings.TrimSpace(s)
	if s == "" {
		return None[decimal.Decimal]()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return None[decimal.Decimal]()
	}
	return boundPrice(d)
}

const (
	// priceIntDigits is the integer part of a DECIMAL(12,2) column.
	priceIntDigits = 10
	maxBoundScale  = 12
	maxBoundDigits = 24
)

// PriceBoundLimit is the smallest magnitude no stored price can reach.
var PriceBoundLimit = decimal.New(1, priceIntDigits)

// boundPrice keeps price bounds within what a price column can compare
// against. Bounds larger than any stored price are clamped to
// PriceBoundLimit. Bounds with more precision than the column are absent.
// Only the coefficient and exponent are inspected, so rendering the result
// stays cheap however the input was written.
func boundPrice(d decimal.Decimal) Optional[decimal.Decimal] {
	if d.IsZero() {
		return Some(decimal.Zero)
	}
	if d.Exponent() < -maxBoundScale || d.NumDigits() > maxBoundDigits {
		return None[decimal.Decimal]()
	}
	if int64(d.NumDigits())+int64(d.Exponent()) > priceIntDigits {
		if d.Sign() < 0 {
			return Some(PriceBoundLimit.Neg())
		}
		return Some(PriceBoundLimit)
	}
	return Some(d)
}
