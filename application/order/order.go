package order

import (
	"context"
	"time"

	"github.com/muhammadheryan/storefront/cmd/config"
	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	orderrepo "github.com/muhammadheryan/storefront/repository/order"
	productrepo "github.com/muhammadheryan/storefront/repository/product"
	redisrepo "github.com/muhammadheryan/storefront/repository/redis"
	txrepo "github.com/muhammadheryan/storefront/repository/tx"
	"github.com/muhammadheryan/storefront/thirdparty/rabbitmq"
	"github.com/muhammadheryan/storefront/utils/errors"
	"github.com/muhammadheryan/storefront/utils/logger"
	"go.uber.org/zap"
)

type OrderApp interface {
	CreateOrder(ctx context.Context, userID uint64, req *model.CreateOrderRequest) (*model.OrderEntity, error)
	GetOrder(ctx context.Context, requester *model.UserEntity, orderID uint64) (*model.OrderEntity, error)
	GetMyOrders(ctx context.Context, userID uint64) ([]model.OrderEntity, error)
	ListOrders(ctx context.Context) ([]model.OrderEntity, error)
	DeliverOrder(ctx context.Context, orderID uint64) (*model.OrderEntity, error)
}

type orderAppImpl struct {
	config      *config.Config
	txRepo      txrepo.TxRepository
	orderRepo   orderrepo.OrderRepository
	productRepo productrepo.ProductRepository
	redisRepo   redisrepo.Repository
	publisher   rabbitmq.Publisher
}

// NewOrderApp wires the order use cases. publisher may be nil.
func NewOrderApp(config *config.Config, txRepo txrepo.TxRepository, orderRepo orderrepo.OrderRepository, productRepo productrepo.ProductRepository, redisRepo redisrepo.Repository, publisher rabbitmq.Publisher) OrderApp {
	return &orderAppImpl{
		config:      config,
		txRepo:      txRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		redisRepo:   redisRepo,
		publisher:   publisher,
	}
}

// CreateOrder places an order at current catalog prices and takes the
// ordered units out of stock in the same transaction.
func (s *orderAppImpl) CreateOrder(ctx context.Context, userID uint64, req *model.CreateOrderRequest) (*model.OrderEntity, error) {
	lines := req.MergedItems()
	if len(lines) == 0 {
		return nil, errors.SetCustomError(constant.ErrInvalidRequest)
	}

	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("[CreateOrder] begin tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	products, err := s.productRepo.LockForOrderTx(ctx, tx, ids)
	if err != nil {
		logger.Error("[CreateOrder] err productRepo.LockForOrderTx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	byID := make(map[string]model.ProductEntity, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now().UTC()
	order := &model.OrderEntity{
		UserID:          userID,
		Items:           make([]model.OrderItem, 0, len(lines)),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	// validate stock for each item
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, errors.SetCustomError(constant.ErrNotFound)
		}
		if p.CountInStock < line.Quantity {
			logger.Info("[CreateOrder] insufficient stock", zap.String("product_id", p.ID), zap.Int("need", line.Quantity), zap.Int("available", p.CountInStock))
			return nil, errors.SetCustomError(constant.ErrInsufficientStock)
		}
		order.Items = append(order.Items, model.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}
	order.ComputePrices()

	orderID, err := s.orderRepo.InsertOrderTx(ctx, tx, order)
	if err != nil {
		logger.Error("[CreateOrder] insert order", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	order.ID = orderID

	if err := s.orderRepo.InsertOrderItemsTx(ctx, tx, orderID, order.Items); err != nil {
		logger.Error("[CreateOrder] insert items", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	for _, it := range order.Items {
		ok, err := s.productRepo.DecrementStockTx(ctx, tx, it.ProductID, it.Quantity)
		if err != nil {
			logger.Error("[CreateOrder] decrement stock", zap.String("error", err.Error()))
			return nil, errors.SetCustomError(constant.ErrInternal)
		}
		if !ok {
			return nil, errors.SetCustomError(constant.ErrInsufficientStock)
		}
	}

	if err := s.txRepo.CommitTx(tx); err != nil {
		logger.Error("[CreateOrder] commit tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed = true

	// stock counts are part of the cached top-rated list
	s.retireTopRated(ctx)
	s.publish(ctx, constant.EventOrderCreated, orderID, userID)
	return order, nil
}

// GetOrder returns an order to its buyer or to an admin. Anyone else gets
// not found, the same as for a missing order.
func (s *orderAppImpl) GetOrder(ctx context.Context, requester *model.UserEntity, orderID uint64) (*model.OrderEntity, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.Error("[GetOrder] err orderRepo.GetByID", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if order == nil {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}
	if order.UserID != requester.ID && !requester.IsAdmin {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}
	return order, nil
}

func (s *orderAppImpl) GetMyOrders(ctx context.Context, userID uint64) ([]model.OrderEntity, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error("[GetMyOrders] err orderRepo.ListByUser", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return orders, nil
}

func (s *orderAppImpl) ListOrders(ctx context.Context) ([]model.OrderEntity, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		logger.Error("[ListOrders] err orderRepo.ListAll", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return orders, nil
}

// DeliverOrder marks an order delivered. An order is delivered at most once.
func (s *orderAppImpl) DeliverOrder(ctx context.Context, orderID uint64) (*model.OrderEntity, error) {
	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("[DeliverOrder] begin tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	order, err := s.orderRepo.GetOrderDetailTx(ctx, tx, orderID)
	if err != nil {
		logger.Error("[DeliverOrder] get order detail", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if order == nil {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}
	if order.IsDelivered {
		return nil, errors.SetCustomError(constant.ErrInvalidOrderStatus)
	}

	now := time.Now().UTC()
	if err := s.orderRepo.MarkDeliveredTx(ctx, tx, orderID, now); err != nil {
		logger.Error("[DeliverOrder] mark delivered", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.txRepo.CommitTx(tx); err != nil {
		logger.Error("[DeliverOrder] commit tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed = true

	order.IsDelivered = true
	order.DeliveredAt = &now
	order.UpdatedAt = now
	s.publish(ctx, constant.EventOrderDelivered, orderID, order.UserID)
	return order, nil
}

func (s *orderAppImpl) retireTopRated(ctx context.Context) {
	gen, err := s.redisRepo.Incr(ctx, constant.TopRatedGenerationKey)
	if err != nil {
		logger.Warn("[retireTopRated] err redisRepo.Incr", zap.String("error", err.Error()))
		return
	}
	if err := s.redisRepo.Delete(ctx, constant.TopRatedCacheKeyAt(gen-1)); err != nil {
		logger.Warn("[retireTopRated] err redisRepo.Delete", zap.String("error", err.Error()))
	}
}

func (s *orderAppImpl) publish(ctx context.Context, eventType string, orderID, userID uint64) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.CatalogEvent{
		Type:       eventType,
		OrderID:    orderID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("[publish] err publisher.Publish", zap.String("error", err.Error()), zap.String("event", eventType))
	}
}
