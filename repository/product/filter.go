package product

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/muhammadheryan/storefront/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Predicate folds every supplied criterion of f into a single AND clause.
// With no criteria it renders as (1=1) and matches every product.
func Predicate(f model.ProductFilter) sq.And {
	fragments := []model.Optional[sq.Sqlizer]{
		keywordClause(f),
		categoryClause(f),
		minPriceClause(f),
		maxPriceClause(f),
		minRatingClause(f),
	}

	pred := sq.And{}
	for _, frag := range fragments {
		if frag.Valid {
			pred = append(pred, frag.Value)
		}
	}
	return pred
}

// keywordClause matches the keyword as a literal, case-insensitive
// substring of the product name.
func keywordClause(f model.ProductFilter) model.Optional[sq.Sqlizer] {
	if !f.Keyword.Valid {
		return model.None[sq.Sqlizer]()
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(f.Keyword.Value)) + "%"
	return model.Some[sq.Sqlizer](sq.Like{"LOWER(p.name)": pattern})
}

func categoryClause(f model.ProductFilter) model.Optional[sq.Sqlizer] {
	if !f.Category.Valid {
		return model.None[sq.Sqlizer]()
	}
	return model.Some[sq.Sqlizer](sq.Eq{"p.category": string(f.Category.Value)})
}

func minPriceClause(f model.ProductFilter) model.Optional[sq.Sqlizer] {
	if !f.MinPrice.Valid {
		return model.None[sq.Sqlizer]()
	}
	return model.Some[sq.Sqlizer](sq.GtOrEq{"p.price": f.MinPrice.Value.String()})
}

func maxPriceClause(f model.ProductFilter) model.Optional[sq.Sqlizer] {
	if !f.MaxPrice.Valid {
		return model.None[sq.Sqlizer]()
	}
	return model.Some[sq.Sqlizer](sq.LtOrEq{"p.price": f.MaxPrice.Value.String()})
}

func minRatingClause(f model.ProductFilter) model.Optional[sq.Sqlizer] {
	if !f.MinRating.Valid {
		return model.None[sq.Sqlizer]()
	}
	return model.Some[sq.Sqlizer](sq.GtOrEq{"p.rating": f.MinRating.Value})
}
