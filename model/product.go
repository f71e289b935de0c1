package model

import (
	"time"

	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/utils/rating"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, as documented in the API.
	decimal.MarshalJSONWithoutQuotes = true
}

// ProductEntity represents the product table entity together with the
// images and reviews it owns. Reviews are only loaded for the detail view;
// list and top-rated entries carry the rating summary alone.
type ProductEntity struct {
	ID           string            `db:"id" json:"id"`
	UserID       uint64            `db:"user_id" json:"user_id"`
	Name         string            `db:"name" json:"name"`
	Description  string            `db:"description" json:"description"`
	Price        decimal.Decimal   `db:"price" json:"price"`
	Image        string            `db:"image" json:"image"`
	Images       []string          `db:"-" json:"images"`
	Category     constant.Category `db:"category" json:"category"`
	Brand        string            `db:"brand" json:"brand,omitempty"`
	CountInStock int               `db:"count_in_stock" json:"count_in_stock"`
	Rating       float64           `db:"rating" json:"rating"`
	NumReviews   int               `db:"num_reviews" json:"num_reviews"`
	Featured     bool              `db:"featured" json:"featured"`
	Reviews      []Review          `db:"-" json:"reviews,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// HasReviewFrom reports whether userID already reviewed the product.
func (p *ProductEntity) HasReviewFrom(userID uint64) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// AddReview appends r and refreshes Rating and NumReviews from the full
// review list before returning.
func (p *ProductEntity) AddReview(r Review) {
	p.Reviews = append(p.Reviews, r)
	p.RecalculateRating()
}

// RecalculateRating overwrites Rating and NumReviews from Reviews.
func (p *ProductEntity) RecalculateRating() {
	scores := make([]int, len(p.Reviews))
	for i, r := range p.Reviews {
		scores[i] = r.Rating
	}
	p.Rating = rating.Mean(scores)
	p.NumReviews = len(p.Reviews)
}

type CreateProductRequest struct {
	Name         string            `json:"name" validate:"required"`
	Description  string            `json:"description" validate:"required"`
	Price        decimal.Decimal   `json:"price" validate:"gte=0"`
	Image        string            `json:"image" validate:"required"`
	Images       []string          `json:"images" validate:"omitempty,dive,required"`
	Category     constant.Category `json:"category" validate:"required,category"`
	Brand        string            `json:"brand"`
	CountInStock int               `json:"count_in_stock" validate:"gte=0"`
	Featured     bool              `json:"featured"`
}

// UpdateProductRequest carries a partial update; nil fields keep the stored value.
type UpdateProductRequest struct {
	Name         *string            `json:"name" validate:"omitempty,min=1"`
	Description  *string            `json:"description" validate:"omitempty,min=1"`
	Price        *decimal.Decimal   `json:"price" validate:"omitempty,gte=0"`
	Image        *string            `json:"image" validate:"omitempty,min=1"`
	Images       []string           `json:"images" validate:"omitempty,dive,required"`
	Category     *constant.Category `json:"category" validate:"omitempty,category"`
	Brand        *string            `json:"brand"`
	CountInStock *int               `json:"count_in_stock" validate:"omitempty,gte=0"`
	Featured     *bool              `json:"featured"`
}

// Apply copies every supplied field of req onto p.
func (req *UpdateProductRequest) Apply(p *ProductEntity) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Image != nil {
		p.Image = *req.Image
	}
	if req.Images != nil {
		p.Images = req.Images
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.CountInStock != nil {
		p.CountInStock = *req.CountInStock
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
}

type ProductListResponse struct {
	Products      []ProductEntity `json:"products"`
	Page          int             `json:"page"`
	Pages         int             `json:"pages"`
	TotalProducts int64           `json:"total_products"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
