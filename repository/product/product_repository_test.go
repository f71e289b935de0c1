package product_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	productrepo "github.com/muhammadheryan/storefront/repository/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{
	"id", "user_id", "name", "description", "price", "image", "category", "brand",
	"count_in_stock", "rating", "num_reviews", "featured", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (productrepo.ProductRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := sqlx.NewDb(db, "mysql")
	t.Cleanup(func() { _ = conn.Close() })
	return productrepo.NewProductRepository(conn), conn, mock
}

func productRow(rows *sqlmock.Rows, id, name string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id, uint64(1), name, "desc", "15.00", "/img/"+id+".jpg", "electronics", "Acme", 3, 4.5, 2, false, createdAt, createdAt)
}

func TestSQL_Count(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	pred := productrepo.Predicate(model.ProductFilter{Category: model.Some(constant.CategoryElectronics)})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM product p WHERE (p.category = ?)")).
		WithArgs("electronics").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(13))

	total, err := repo.Count(context.Background(), pred)
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_List(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, "p-2", "Smartphone X", now)
	productRow(rows, "p-1", "Smartphone Y", now.Add(-time.Hour))

	mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE \(LOWER\(p\.name\) LIKE \?\) ORDER BY p\.created_at DESC, p\.id DESC LIMIT .+ OFFSET .+$`).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT product_id, url FROM product_image WHERE product_id IN (?,?) ORDER BY product_id, position")).
		WithArgs("p-2", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "url"}).
			AddRow("p-1", "/img/p-1-a.jpg").
			AddRow("p-1", "/img/p-1-b.jpg"))

	pred := productrepo.Predicate(model.ProductFilter{Keyword: model.Some("phone")})
	items, err := repo.List(context.Background(), pred, constant.ProductPageSize, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "p-2", items[0].ID)
	assert.Equal(t, []string{}, items[0].Images)
	assert.Equal(t, []string{"/img/p-1-a.jpg", "/img/p-1-b.jpg"}, items[1].Images)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("15")))
	assert.Equal(t, constant.CategoryElectronics, items[0].Category)
	assert.Equal(t, 4.5, items[0].Rating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_List_Empty(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE \(1=1\) ORDER BY`).
		WillReturnRows(sqlmock.NewRows(productRowColumns))

	items, err := repo.List(context.Background(), productrepo.Predicate(model.ProductFilter{}), constant.ProductPageSize, 24)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_GetByID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found with images and reviews", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE p\.id = \?$`).
			WithArgs("p-1").
			WillReturnRows(productRow(sqlmock.NewRows(productRowColumns), "p-1", "Ring", now))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT product_id, url FROM product_image WHERE product_id IN (?)")).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"product_id", "url"}).AddRow("p-1", "/img/side.jpg"))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, product_id, user_id, name, rating, comment, created_at FROM product_review WHERE product_id = ?")).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "user_id", "name", "rating", "comment", "created_at"}).
				AddRow(1, "p-1", 7, "Ann", 5, "lovely", now).
				AddRow(2, "p-1", 8, "Bob", 4, "nice", now))

		p, err := repo.GetByID(context.Background(), "p-1")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, []string{"/img/side.jpg"}, p.Images)
		require.Len(t, p.Reviews, 2)
		assert.Equal(t, uint64(7), p.Reviews[0].UserID)
		assert.Equal(t, "Bob", p.Reviews[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)

		mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE p\.id = \?$`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(productRowColumns))

		p, err := repo.GetByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, p)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSQL_GetByIDForUpdateTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE p\.id = \? FOR UPDATE$`).
		WithArgs("p-1").
		WillReturnRows(productRow(sqlmock.NewRows(productRowColumns), "p-1", "Ring", now))
	mock.ExpectQuery(`FROM product_image`).WillReturnRows(sqlmock.NewRows([]string{"product_id", "url"}))
	mock.ExpectQuery(`FROM product_review`).WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "user_id", "name", "rating", "comment", "created_at"}))
	mock.ExpectRollback()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	p, err := repo.GetByIDForUpdateTx(context.Background(), tx, "p-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Reviews)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_TopRated(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, "p-1", "A", now)
	mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p ORDER BY p\.rating DESC, p\.id ASC LIMIT .+$`).WillReturnRows(rows)
	mock.ExpectQuery(`FROM product_image`).WillReturnRows(sqlmock.NewRows([]string{"product_id", "url"}))

	items, err := repo.TopRated(context.Background(), constant.TopRatedLimit)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_CreateTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product (brand,category,count_in_stock,created_at,description,featured,id,image,name,num_reviews,price,rating,updated_at,user_id) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)")).
		WithArgs("Acme", "electronics", 3, now, "desc", false, "p-1", "/img/main.jpg", "Phone", 0, "199.9", 0.0, now, uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_image (product_id,position,url) VALUES (?,?,?),(?,?,?)")).
		WithArgs("p-1", 0, "/img/a.jpg", "p-1", 1, "/img/b.jpg").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	err = repo.CreateTx(context.Background(), tx, &model.ProductEntity{
		ID:           "p-1",
		UserID:       1,
		Name:         "Phone",
		Description:  "desc",
		Price:        decimal.RequireFromString("199.90"),
		Image:        "/img/main.jpg",
		Images:       []string{"/img/a.jpg", "/img/b.jpg"},
		Category:     constant.CategoryElectronics,
		Brand:        "Acme",
		CountInStock: 3,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_UpdateTx_ReplacesImages(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET brand = ?, category = ?, count_in_stock = ?, description = ?, featured = ?, image = ?, name = ?, price = ?, updated_at = ? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product_image WHERE product_id = ?")).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO product_image (product_id,position,url) VALUES (?,?,?)")).
		WithArgs("p-1", 0, "/img/new.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	err = repo.UpdateTx(context.Background(), tx, &model.ProductEntity{
		ID:        "p-1",
		Name:      "Phone",
		Price:     decimal.NewFromInt(5),
		Images:    []string{"/img/new.jpg"},
		Category:  constant.CategoryElectronics,
		UpdatedAt: now,
	}, true)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_Delete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "removed", affected: 1, want: true},
		{name: "missing", affected: 0, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, _, mock := newMockRepo(t)
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM product WHERE id = ?")).
				WithArgs("p-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.Delete(context.Background(), "p-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQL_InsertReviewTx(t *testing.T) {
	now := time.Now().UTC()
	insert := regexp.QuoteMeta("INSERT INTO product_review (product_id, user_id, name, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)")

	t.Run("assigns id", func(t *testing.T) {
		repo, conn, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).
			WithArgs("p-1", uint64(7), "Ann", 5, "lovely", now).
			WillReturnResult(sqlmock.NewResult(31, 1))
		mock.ExpectRollback()

		tx, err := conn.Beginx()
		require.NoError(t, err)
		review := &model.Review{ProductID: "p-1", UserID: 7, Name: "Ann", Rating: 5, Comment: "lovely", CreatedAt: now}
		require.NoError(t, repo.InsertReviewTx(context.Background(), tx, review))
		assert.Equal(t, uint64(31), review.ID)
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate key", func(t *testing.T) {
		repo, conn, mock := newMockRepo(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
		mock.ExpectRollback()

		tx, err := conn.Beginx()
		require.NoError(t, err)
		err = repo.InsertReviewTx(context.Background(), tx, &model.Review{ProductID: "p-1", UserID: 7, Rating: 5, CreatedAt: now})
		assert.ErrorIs(t, err, productrepo.ErrDuplicateReview)
		require.NoError(t, tx.Rollback())
	})
}

func TestSQL_UpdateRatingTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product SET rating = ?, num_reviews = ? WHERE id = ?")).
		WithArgs(4.3, 3, "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRatingTx(context.Background(), tx, "p-1", 4.3, 3))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_LockForOrderTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(productRowColumns)
	productRow(rows, "p-1", "Ring", now)
	productRow(rows, "p-2", "Watch", now)

	mock.ExpectBegin()
	mock.ExpectQuery(`^SELECT p\.id, .+ FROM product p WHERE p\.id IN \(\?,\?\) ORDER BY p\.id FOR UPDATE$`).
		WithArgs("p-2", "p-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	got, err := repo.LockForOrderTx(context.Background(), tx, []string{"p-2", "p-1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID)
	assert.Equal(t, 3, got[0].CountInStock)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("15")))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_DecrementStockTx(t *testing.T) {
	update := regexp.QuoteMeta("UPDATE product SET count_in_stock = count_in_stock - ? WHERE id = ? AND count_in_stock >= ?")
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "enough stock", affected: 1, want: true},
		{name: "not enough stock", affected: 0, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo, conn, mock := newMockRepo(t)
			mock.ExpectBegin()
			mock.ExpectExec(update).WithArgs(2, "p-1", 2).WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectRollback()

			tx, err := conn.Beginx()
			require.NoError(t, err)
			ok, err := repo.DecrementStockTx(context.Background(), tx, "p-1", 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			require.NoError(t, tx.Rollback())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
