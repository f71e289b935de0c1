package order_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/model"
	orderrepo "github.com/muhammadheryan/storefront/repository/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderRowColumns = []string{
	"id", "user_id", "user.id", "user.name", "user.email",
	"ship.address", "ship.city", "ship.postal_code", "ship.country", "ship.state",
	"payment_method", "items_price", "tax_price", "shipping_price", "total_price",
	"is_paid", "is_delivered", "delivered_at", "created_at", "updated_at",
}

var itemRowColumns = []string{"order_id", "product_id", "name", "image", "price", "quantity"}

func newMockRepo(t *testing.T) (orderrepo.OrderRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := sqlx.NewDb(db, "mysql")
	t.Cleanup(func() { _ = conn.Close() })
	return orderrepo.NewOrderRepository(conn), conn, mock
}

func orderRow(rows *sqlmock.Rows, id, userID uint64, userName string, createdAt time.Time) *sqlmock.Rows {
	return rows.AddRow(id, userID, userID, userName, "buyer@example.com",
		"1 Main St", "Springfield", "12345", "US", "",
		"paypal", "39.98", "4.00", "10.00", "53.98",
		false, false, nil, createdAt, createdAt)
}

func TestSQL_InsertOrderTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `order` (created_at,is_delivered,is_paid,items_price,payment_method,ship_address,ship_city,ship_country,ship_postal_code,ship_state,shipping_price,tax_price,total_price,updated_at,user_id) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)")).
		WithArgs(now, false, false, "39.98", "cash", "1 Main St", "Springfield", "US", "12345", "IL", "10", "4", "53.98", now, uint64(7)).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectRollback()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	id, err := repo.InsertOrderTx(context.Background(), tx, &model.OrderEntity{
		UserID: 7,
		ShippingAddress: model.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US", State: "IL",
		},
		PaymentMethod: "cash",
		ItemsPrice:    decimal.RequireFromString("39.98"),
		TaxPrice:      decimal.NewFromInt(4),
		ShippingPrice: decimal.NewFromInt(10),
		TotalPrice:    decimal.RequireFromString("53.98"),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_InsertOrderItemsTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_item (order_id,position,product_id,name,image,price,quantity) VALUES (?,?,?,?,?,?,?),(?,?,?,?,?,?,?)")).
		WithArgs(uint64(42), 0, "p-1", "Ring", "/ring.jpg", "19.99", 2, uint64(42), 1, "p-2", "Watch", "/watch.jpg", "5", 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	err = repo.InsertOrderItemsTx(context.Background(), tx, 42, []model.OrderItem{
		{ProductID: "p-1", Name: "Ring", Image: "/ring.jpg", Price: decimal.RequireFromString("19.99"), Quantity: 2},
		{ProductID: "p-2", Name: "Watch", Image: "/watch.jpg", Price: decimal.NewFromInt(5), Quantity: 1},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_GetByID(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	t.Run("found with items", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)
		mock.ExpectQuery("^SELECT o\\.id, .+ FROM `order` o LEFT JOIN `user` u ON u\\.id = o\\.user_id WHERE o\\.id = \\?$").
			WithArgs(uint64(42)).
			WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), 42, 7, "Ann", now))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT order_id, product_id, name, image, price, quantity FROM order_item WHERE order_id IN (?) ORDER BY order_id, position")).
			WithArgs(uint64(42)).
			WillReturnRows(sqlmock.NewRows(itemRowColumns).
				AddRow(42, "p-1", "Ring", "/ring.jpg", "19.99", 2))

		got, err := repo.GetByID(context.Background(), 42)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Ann", got.User.Name)
		assert.Equal(t, "Springfield", got.ShippingAddress.City)
		assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("53.98")))
		assert.Nil(t, got.DeliveredAt)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 2, got.Items[0].Quantity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, _, mock := newMockRepo(t)
		mock.ExpectQuery("FROM `order` o").WillReturnRows(sqlmock.NewRows(orderRowColumns))

		got, err := repo.GetByID(context.Background(), 42)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSQL_GetOrderDetailTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("WHERE o\\.id = \\? FOR UPDATE$").
		WithArgs(uint64(42)).
		WillReturnRows(orderRow(sqlmock.NewRows(orderRowColumns), 42, 7, "Ann", now))
	mock.ExpectQuery("FROM order_item").WillReturnRows(sqlmock.NewRows(itemRowColumns))
	mock.ExpectRollback()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	got, err := repo.GetOrderDetailTx(context.Background(), tx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_MarkDeliveredTx(t *testing.T) {
	repo, conn, mock := newMockRepo(t)
	at := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `order` SET is_delivered = 1, delivered_at = ?, updated_at = ? WHERE id = ?")).
		WithArgs(at, at, uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := conn.Beginx()
	require.NoError(t, err)
	require.NoError(t, repo.MarkDeliveredTx(context.Background(), tx, 42, at))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_ListByUser(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(orderRowColumns)
	orderRow(rows, 43, 7, "Ann", now)
	orderRow(rows, 41, 7, "Ann", now.Add(-time.Hour))

	mock.ExpectQuery("WHERE o\\.user_id = \\? ORDER BY o\\.created_at DESC, o\\.id DESC$").
		WithArgs(uint64(7)).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_item WHERE order_id IN (?,?)")).
		WithArgs(uint64(43), uint64(41)).
		WillReturnRows(sqlmock.NewRows(itemRowColumns).
			AddRow(41, "p-2", "Watch", "/watch.jpg", "5", 1).
			AddRow(43, "p-1", "Ring", "/ring.jpg", "19.99", 2).
			AddRow(43, "p-2", "Watch", "/watch.jpg", "5", 1))

	got, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(43), got[0].ID)
	assert.Len(t, got[0].Items, 2)
	assert.Len(t, got[1].Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_ListAll_Empty(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	mock.ExpectQuery("LEFT JOIN `user` u ON u\\.id = o\\.user_id ORDER BY o\\.created_at DESC, o\\.id DESC$").
		WillReturnRows(sqlmock.NewRows(orderRowColumns))

	got, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
