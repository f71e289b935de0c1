package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/muhammadheryan/storefront/model"
)

type SQL struct {
	conn *sqlx.DB
}

type OrderRepository interface {
	InsertOrderTx(ctx context.Context, tx *sqlx.Tx, order *model.OrderEntity) (uint64, error)
	InsertOrderItemsTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, items []model.OrderItem) error
	GetOrderDetailTx(ctx context.Context, tx *sqlx.Tx, orderID uint64) (*model.OrderEntity, error)
	MarkDeliveredTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, at time.Time) error
	GetByID(ctx context.Context, orderID uint64) (*model.OrderEntity, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.OrderEntity, error)
	ListAll(ctx context.Context) ([]model.OrderEntity, error)
}

func NewOrderRepository(conn *sqlx.DB) OrderRepository {
	return &SQL{conn: conn}
}

// The buyer comes from a LEFT JOIN so orders of deleted accounts still load.
var orderColumns = []string{
	"o.id", "o.user_id",
	"COALESCE(u.id, 0) AS `user.id`", "COALESCE(u.name, '') AS `user.name`", "COALESCE(u.email, '') AS `user.email`",
	"o.ship_address AS `ship.address`", "o.ship_city AS `ship.city`", "o.ship_postal_code AS `ship.postal_code`",
	"o.ship_country AS `ship.country`", "o.ship_state AS `ship.state`",
	"o.payment_method", "o.items_price", "o.tax_price", "o.shipping_price", "o.total_price",
	"o.is_paid", "o.is_delivered", "o.delivered_at", "o.created_at", "o.updated_at",
}

func selectOrders() sq.SelectBuilder {
	return sq.Select(orderColumns...).
		From("`order` o").
		LeftJoin("`user` u ON u.id = o.user_id")
}

func (r *SQL) InsertOrderTx(ctx context.Context, tx *sqlx.Tx, order *model.OrderEntity) (uint64, error) {
	query, args, err := sq.Insert("`order`").
		SetMap(map[string]interface{}{
			"user_id":          order.UserID,
			"ship_address":     order.ShippingAddress.Address,
			"ship_city":        order.ShippingAddress.City,
			"ship_postal_code": order.ShippingAddress.PostalCode,
			"ship_country":     order.ShippingAddress.Country,
			"ship_state":       order.ShippingAddress.State,
			"payment_method":   order.PaymentMethod,
			"items_price":      order.ItemsPrice.String(),
			"tax_price":        order.TaxPrice.String(),
			"shipping_price":   order.ShippingPrice.String(),
			"total_price":      order.TotalPrice.String(),
			"is_paid":          order.IsPaid,
			"is_delivered":     order.IsDelivered,
			"created_at":       order.CreatedAt,
			"updated_at":       order.UpdatedAt,
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building order insert: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *SQL) InsertOrderItemsTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := sq.Insert("order_item").Columns("order_id", "position", "product_id", "name", "image", "price", "quantity")
	for i, it := range items {
		builder = builder.Values(orderID, i, it.ProductID, it.Name, it.Image, it.Price.String(), it.Quantity)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("building order item insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetOrderDetailTx loads the order with its items and holds its row lock
// until tx ends. It returns nil when the order does not exist.
func (r *SQL) GetOrderDetailTx(ctx context.Context, tx *sqlx.Tx, orderID uint64) (*model.OrderEntity, error) {
	return getOrder(ctx, tx, orderID, true)
}

func (r *SQL) MarkDeliveredTx(ctx context.Context, tx *sqlx.Tx, orderID uint64, at time.Time) error {
	_, err := tx.ExecContext(ctx, "UPDATE `order` SET is_delivered = 1, delivered_at = ?, updated_at = ? WHERE id = ?", at, at, orderID)
	return err
}

// GetByID returns the order with its items, or nil when it does not exist.
func (r *SQL) GetByID(ctx context.Context, orderID uint64) (*model.OrderEntity, error) {
	return getOrder(ctx, r.conn, orderID, false)
}

// ListByUser returns the orders placed by userID, newest first.
func (r *SQL) ListByUser(ctx context.Context, userID uint64) ([]model.OrderEntity, error) {
	return listOrders(ctx, r.conn, sq.Eq{"o.user_id": userID})
}

// ListAll returns every order, newest first.
func (r *SQL) ListAll(ctx context.Context) ([]model.OrderEntity, error) {
	return listOrders(ctx, r.conn, nil)
}

func getOrder(ctx context.Context, q sqlx.QueryerContext, orderID uint64, forUpdate bool) (*model.OrderEntity, error) {
	builder := selectOrders().Where(sq.Eq{"o.id": orderID})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building order query: %w", err)
	}

	var o model.OrderEntity
	if err := sqlx.GetContext(ctx, q, &o, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	orders := []model.OrderEntity{o}
	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func listOrders(ctx context.Context, q sqlx.QueryerContext, pred sq.Sqlizer) ([]model.OrderEntity, error) {
	builder := selectOrders().OrderBy("o.created_at DESC", "o.id DESC")
	if pred != nil {
		builder = builder.Where(pred)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building order list query: %w", err)
	}

	orders := make([]model.OrderEntity, 0)
	if err := sqlx.SelectContext(ctx, q, &orders, query, args...); err != nil {
		return nil, err
	}
	if err := loadItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func loadItems(ctx context.Context, q sqlx.QueryerContext, orders []model.OrderEntity) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uint64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = make([]model.OrderItem, 0)
	}

	query, args, err := sq.Select("order_id", "product_id", "name", "image", "price", "quantity").
		From("order_item").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position").
		ToSql()
	if err != nil {
		return fmt.Errorf("building order item query: %w", err)
	}

	var rows []model.OrderItem
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return err
	}

	byOrder := make(map[uint64][]model.OrderItem, len(orders))
	for _, it := range rows {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		}
	}
	return nil
}
