package model

import "time"

// Review is owned by exactly one product and has no lifecycle of its own.
type Review struct {
	ID        uint64    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"-"`
	UserID    uint64    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// SubmitReviewRequest is a ReviewRequest bound to a product and its author.
type SubmitReviewRequest struct {
	ProductID string
	UserID    uint64
	UserName  string
	ReviewRequest
}
