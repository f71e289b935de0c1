package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/model"
)

// ErrDuplicateReview is returned when the (product, author) unique key
// rejects a review insert.
var ErrDuplicateReview = errors.New("duplicate review")

const mysqlErrDuplicateEntry = 1062

type SQL struct {
	conn *sqlx.DB
}

type ProductRepository interface {
	List(ctx context.Context, pred sq.Sqlizer, limit, offset int) ([]model.ProductEntity, error)
	Count(ctx context.Context, pred sq.Sqlizer) (int64, error)
	GetByID(ctx context.Context, id string) (*model.ProductEntity, error)
	GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.ProductEntity, error)
	TopRated(ctx context.Context, limit int) ([]model.ProductEntity, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, p *model.ProductEntity) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, p *model.ProductEntity, replaceImages bool) error
	Delete(ctx context.Context, id string) (bool, error)
	InsertReviewTx(ctx context.Context, tx *sqlx.Tx, review *model.Review) error
	UpdateRatingTx(ctx context.Context, tx *sqlx.Tx, productID string, rating float64, numReviews int) error
	LockForOrderTx(ctx context.Context, tx *sqlx.Tx, ids []string) ([]model.ProductEntity, error)
	DecrementStockTx(ctx context.Context, tx *sqlx.Tx, productID string, quantity int) (bool, error)
}

func NewProductRepository(conn *sqlx.DB) ProductRepository {
	return &SQL{conn: conn}
}

var productColumns = []string{
	"p.id", "p.user_id", "p.name", "p.description", "p.price", "p.image", "p.category", "p.brand",
	"p.count_in_stock", "p.rating", "p.num_reviews", "p.featured", "p.created_at", "p.updated_at",
}

type productImage struct {
	ProductID string `db:"product_id"`
	URL       string `db:"url"`
}

func selectProducts() sq.SelectBuilder {
	return sq.Select(productColumns...).From("product p")
}

// List returns one page of products matching pred, newest first. Ties on
// created_at are broken by id so repeated calls return the same slice.
func (s *SQL) List(ctx context.Context, pred sq.Sqlizer, limit, offset int) ([]model.ProductEntity, error) {
	query, args, err := selectProducts().
		Where(pred).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	items := make([]model.ProductEntity, 0)
	if err := s.conn.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	if err := loadImages(ctx, s.conn, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQL) Count(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").From("product p").Where(pred).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var total int64
	if err := s.conn.GetContext(ctx, &total, query, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// GetByID returns the product with its images and reviews, or nil when it
// does not exist.
func (s *SQL) GetByID(ctx context.Context, id string) (*model.ProductEntity, error) {
	return getProduct(ctx, s.conn, id, false)
}

// GetByIDForUpdateTx is GetByID holding a row lock on the product until tx ends.
func (s *SQL) GetByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.ProductEntity, error) {
	return getProduct(ctx, tx, id, true)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*model.ProductEntity, error) {
	builder := selectProducts().Where(sq.Eq{"p.id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building get query: %w", err)
	}

	var p model.ProductEntity
	if err := sqlx.GetContext(ctx, q, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items := []model.ProductEntity{p}
	if err := loadImages(ctx, q, items); err != nil {
		return nil, err
	}
	p = items[0]

	reviews, err := loadReviews(ctx, q, id)
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews
	return &p, nil
}

// TopRated returns up to limit products by rating, highest first, ties
// broken by id.
func (s *SQL) TopRated(ctx context.Context, limit int) ([]model.ProductEntity, error) {
	query, args, err := selectProducts().
		OrderBy("p.rating DESC", "p.id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building top rated query: %w", err)
	}

	items := make([]model.ProductEntity, 0, limit)
	if err := s.conn.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	if err := loadImages(ctx, s.conn, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *SQL) CreateTx(ctx context.Context, tx *sqlx.Tx, p *model.ProductEntity) error {
	query, args, err := sq.Insert("product").
		SetMap(map[string]interface{}{
			"id":             p.ID,
			"user_id":        p.UserID,
			"name":           p.Name,
			"description":    p.Description,
			"price":          p.Price.String(),
			"image":          p.Image,
			"category":       string(p.Category),
			"brand":          p.Brand,
			"count_in_stock": p.CountInStock,
			"rating":         p.Rating,
			"num_reviews":    p.NumReviews,
			"featured":       p.Featured,
			"created_at":     p.CreatedAt,
			"updated_at":     p.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return insertImagesTx(ctx, tx, p.ID, p.Images)
}

// UpdateTx writes the editable columns of p. Rating and review count are
// owned by UpdateRatingTx and left untouched.
func (s *SQL) UpdateTx(ctx context.Context, tx *sqlx.Tx, p *model.ProductEntity, replaceImages bool) error {
	query, args, err := sq.Update("product").
		SetMap(map[string]interface{}{
			"name":           p.Name,
			"description":    p.Description,
			"price":          p.Price.String(),
			"image":          p.Image,
			"category":       string(p.Category),
			"brand":          p.Brand,
			"count_in_stock": p.CountInStock,
			"featured":       p.Featured,
			"updated_at":     p.UpdatedAt,
		}).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	if !replaceImages {
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_image WHERE product_id = ?", p.ID); err != nil {
		return err
	}
	return insertImagesTx(ctx, tx, p.ID, p.Images)
}

// Delete removes the product; images and reviews go with it through
// ON DELETE CASCADE. It reports whether a row was removed.
func (s *SQL) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM product WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return affected > 0, nil
}

func (s *SQL) InsertReviewTx(ctx context.Context, tx *sqlx.Tx, review *model.Review) error {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO product_review (product_id, user_id, name, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		review.ProductID, review.UserID, review.Name, review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
			return ErrDuplicateReview
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	review.ID = uint64(id)
	return nil
}

func (s *SQL) UpdateRatingTx(ctx context.Context, tx *sqlx.Tx, productID string, rating float64, numReviews int) error {
	_, err := tx.ExecContext(ctx, "UPDATE product SET rating = ?, num_reviews = ? WHERE id = ?", rating, numReviews, productID)
	return err
}

// LockForOrderTx returns the listed products without images or reviews and
// holds their row locks until tx ends. Rows are locked in id order so two
// orders over the same products cannot deadlock. Unknown ids are skipped.
func (s *SQL) LockForOrderTx(ctx context.Context, tx *sqlx.Tx, ids []string) ([]model.ProductEntity, error) {
	items := make([]model.ProductEntity, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}

	query, args, err := selectProducts().
		Where(sq.Eq{"p.id": ids}).
		OrderBy("p.id").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building lock query: %w", err)
	}

	if err := tx.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStockTx takes quantity units out of stock. It reports false,
// leaving the row unchanged, when fewer than quantity units are left.
func (s *SQL) DecrementStockTx(ctx context.Context, tx *sqlx.Tx, productID string, quantity int) (bool, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE product SET count_in_stock = count_in_stock - ? WHERE id = ? AND count_in_stock >= ?",
		quantity, productID, quantity,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting affected rows: %w", err)
	}
	return affected > 0, nil
}

func insertImagesTx(ctx context.Context, tx *sqlx.Tx, productID string, images []string) error {
	if len(images) == 0 {
		return nil
	}

	builder := sq.Insert("product_image").Columns("product_id", "position", "url")
	for i, url := range images {
		builder = builder.Values(productID, i, url)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building image insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func loadImages(ctx context.Context, q sqlx.QueryerContext, items []model.ProductEntity) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
		items[i].Images = make([]string, 0)
	}

	query, args, err := sq.Select("product_id", "url").
		From("product_image").
		Where(sq.Eq{"product_id": ids}).
		OrderBy("product_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("building image query: %w", err)
	}

	var rows []productImage
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return err
	}

	byProduct := make(map[string][]string, len(items))
	for _, r := range rows {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r.URL)
	}
	for i := range items {
		if urls, ok := byProduct[items[i].ID]; ok {
			items[i].Images = urls
		}
	}
	return nil
}

func loadReviews(ctx context.Context, q sqlx.QueryerContext, productID string) ([]model.Review, error) {
	reviews := make([]model.Review, 0)
	err := sqlx.SelectContext(ctx, q, &reviews,
		"SELECT id, product_id, user_id, name, rating, comment, created_at FROM product_review WHERE product_id = ? ORDER BY created_at, id",
		productID,
	)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
