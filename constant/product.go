package constant

import "strconv"

type Category string

const (
	CategoryElectronics    Category = "electronics"
	CategoryJewelery       Category = "jewelery"
	CategoryMensClothing   Category = "men's clothing"
	CategoryWomensClothing Category = "women's clothing"
)

// Categories is the fixed set a product may belong to.
var Categories = []Category{
	CategoryElectronics,
	CategoryJewelery,
	CategoryMensClothing,
	CategoryWomensClothing,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

const (
	ProductPageSize = 12
	TopRatedLimit   = 5

	TopRatedCacheKey      = "catalog:products:top"
	TopRatedGenerationKey = "catalog:products:top:gen"
)

// TopRatedCacheKeyAt names the cached top-rated list for one catalog
// generation. Every catalog write bumps the generation.
func TopRatedCacheKeyAt(gen int64) string {
	return TopRatedCacheKey + ":" + strconv.FormatInt(gen, 10)
}

// Catalog event routing keys.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
	EventReviewAdded    = "review.added"
)
