package product_test

import (
	"net/url"
	"testing"

	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	productrepo "github.com/muhammadheryan/storefront/repository/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicate(t *testing.T) {
	tests := []struct {
		name     string
		filter   model.ProductFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "no criteria matches everything",
			filter:   model.ProductFilter{},
			wantSQL:  "(1=1)",
			wantArgs: []interface{}{},
		},
		{
			name:     "keyword is lower-cased substring on name",
			filter:   model.ProductFilter{Keyword: model.Some("PHONE")},
			wantSQL:  "(LOWER(p.name) LIKE ?)",
			wantArgs: []interface{}{"%phone%"},
		},
		{
			name:     "keyword wildcards are escaped",
			filter:   model.ProductFilter{Keyword: model.Some(`50%_off\`)},
			wantSQL:  "(LOWER(p.name) LIKE ?)",
			wantArgs: []interface{}{`%50\%\_off\\%`},
		},
		{
			name:     "category equality",
			filter:   model.ProductFilter{Category: model.Some(constant.CategoryJewelery)},
			wantSQL:  "(p.category = ?)",
			wantArgs: []interface{}{"jewelery"},
		},
		{
			name: "price range combined with AND",
			filter: model.ProductFilter{
				MinPrice: model.Some(decimal.NewFromInt(10)),
				MaxPrice: model.Some(decimal.NewFromInt(20)),
			},
			wantSQL:  "(p.price >= ? AND p.price <= ?)",
			wantArgs: []interface{}{"10", "20"},
		},
		{
			name:     "only max price",
			filter:   model.ProductFilter{MaxPrice: model.Some(decimal.RequireFromString("99.99"))},
			wantSQL:  "(p.price <= ?)",
			wantArgs: []interface{}{"99.99"},
		},
		{
			name:     "clamped bound from a huge exponent renders short",
			filter:   model.ParseProductFilter(url.Values{"minPrice": {"1e2000000000"}}),
			wantSQL:  "(p.price >= ?)",
			wantArgs: []interface{}{"10000000000"},
		},
		{
			name:     "minimum rating",
			filter:   model.ProductFilter{MinRating: model.Some(4.0)},
			wantSQL:  "(p.rating >= ?)",
			wantArgs: []interface{}{4.0},
		},
		{
			name: "all criteria",
			filter: model.ProductFilter{
				Keyword:   model.Some("shirt"),
				Category:  model.Some(constant.CategoryMensClothing),
				MinPrice:  model.Some(decimal.NewFromInt(5)),
				MaxPrice:  model.Some(decimal.NewFromInt(50)),
				MinRating: model.Some(3.5),
			},
			wantSQL:  "(LOWER(p.name) LIKE ? AND p.category = ? AND p.price >= ? AND p.price <= ? AND p.rating >= ?)",
			wantArgs: []interface{}{"%shirt%", "men's clothing", "5", "50", 3.5},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := productrepo.Predicate(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
