package product

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadheryan/storefront/cmd/config"
	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	productrepo "github.com/muhammadheryan/storefront/repository/product"
	redisrepo "github.com/muhammadheryan/storefront/repository/redis"
	txrepo "github.com/muhammadheryan/storefront/repository/tx"
	"github.com/muhammadheryan/storefront/thirdparty/rabbitmq"
	"github.com/muhammadheryan/storefront/utils/errors"
	"github.com/muhammadheryan/storefront/utils/logger"
	"github.com/muhammadheryan/storefront/utils/pagination"
	"go.uber.org/zap"
)

type ProductApp interface {
	ListProducts(ctx context.Context, filter model.ProductFilter, page int) (*model.ProductListResponse, error)
	GetProduct(ctx context.Context, id string) (*model.ProductEntity, error)
	GetTopRated(ctx context.Context) ([]model.ProductEntity, error)
	RefreshTopRated(ctx context.Context) error
	CreateProduct(ctx context.Context, userID uint64, req *model.CreateProductRequest) (*model.ProductEntity, error)
	UpdateProduct(ctx context.Context, id string, req *model.UpdateProductRequest) (*model.ProductEntity, error)
	DeleteProduct(ctx context.Context, id string) error
	SubmitReview(ctx context.Context, req *model.SubmitReviewRequest) error
}

type productAppImpl struct {
	config      *config.Config
	txRepo      txrepo.TxRepository
	productRepo productrepo.ProductRepository
	redisRepo   redisrepo.Repository
	publisher   rabbitmq.Publisher
}

// NewProductApp wires the catalog use cases. publisher may be nil, in which
// case catalog events are not emitted.
func NewProductApp(config *config.Config, txRepo txrepo.TxRepository, productRepo productrepo.ProductRepository, redisRepo redisrepo.Repository, publisher rabbitmq.Publisher) ProductApp {
	return &productAppImpl{
		config:      config,
		txRepo:      txRepo,
		productRepo: productRepo,
		redisRepo:   redisRepo,
		publisher:   publisher,
	}
}

func (s *productAppImpl) ListProducts(ctx context.Context, filter model.ProductFilter, page int) (*model.ProductListResponse, error) {
	page = pagination.Normalize(page)
	pred := productrepo.Predicate(filter)

	total, err := s.productRepo.Count(ctx, pred)
	if err != nil {
		logger.Error("[ListProducts] err productRepo.Count", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	resp := &model.ProductListResponse{
		Products:      make([]model.ProductEntity, 0),
		Page:          page,
		Pages:         pagination.TotalPages(total, constant.ProductPageSize),
		TotalProducts: total,
	}
	if page > resp.Pages {
		return resp, nil
	}

	items, err := s.productRepo.List(ctx, pred, constant.ProductPageSize, pagination.Offset(page, constant.ProductPageSize))
	if err != nil {
		logger.Error("[ListProducts] err productRepo.List", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	resp.Products = items
	return resp, nil
}

func (s *productAppImpl) GetProduct(ctx context.Context, id string) (*model.ProductEntity, error) {
	result, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		logger.Error("[GetProduct] err productRepo.GetByID", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if result == nil {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}
	return result, nil
}

// GetTopRated serves the top-rated list from cache, falling back to the store
// on a miss or a cache failure.
//
// The list is cached under the catalog generation read before the store is
// queried. A write that commits while the store read is in flight bumps the
// generation, so a list computed from the old rows lands under a key no
// reader asks for again and expires with its TTL.
func (s *productAppImpl) GetTopRated(ctx context.Context) ([]model.ProductEntity, error) {
	gen, err := s.redisRepo.GetInt(ctx, constant.TopRatedGenerationKey)
	if err != nil {
		logger.Warn("[GetTopRated] err redisRepo.GetInt", zap.String("error", err.Error()))
		return s.loadTopRated(ctx)
	}
	key := constant.TopRatedCacheKeyAt(gen)

	var cached []model.ProductEntity
	hit, err := s.redisRepo.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warn("[GetTopRated] err redisRepo.GetJSON", zap.String("error", err.Error()))
	}
	if hit {
		return cached, nil
	}

	items, err := s.loadTopRated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.redisRepo.SetJSON(ctx, key, items, s.config.Catalog.TopRatedCacheTTL); err != nil {
		logger.Warn("[GetTopRated] err redisRepo.SetJSON", zap.String("error", err.Error()))
	}
	return items, nil
}

func (s *productAppImpl) loadTopRated(ctx context.Context) ([]model.ProductEntity, error) {
	items, err := s.productRepo.TopRated(ctx, constant.TopRatedLimit)
	if err != nil {
		logger.Error("[GetTopRated] err productRepo.TopRated", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	return items, nil
}

// RefreshTopRated rebuilds the cached top-rated list from the store.
func (s *productAppImpl) RefreshTopRated(ctx context.Context) error {
	gen, err := s.redisRepo.GetInt(ctx, constant.TopRatedGenerationKey)
	if err != nil {
		logger.Error("[RefreshTopRated] err redisRepo.GetInt", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}

	items, err := s.productRepo.TopRated(ctx, constant.TopRatedLimit)
	if err != nil {
		logger.Error("[RefreshTopRated] err productRepo.TopRated", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.redisRepo.SetJSON(ctx, constant.TopRatedCacheKeyAt(gen), items, s.config.Catalog.TopRatedCacheTTL); err != nil {
		logger.Error("[RefreshTopRated] err redisRepo.SetJSON", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	return nil
}

func (s *productAppImpl) CreateProduct(ctx context.Context, userID uint64, req *model.CreateProductRequest) (*model.ProductEntity, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		logger.Error("[CreateProduct] err uuid.NewRandom", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	images := req.Images
	if images == nil {
		images = make([]string, 0)
	}
	now := time.Now().UTC()
	product := &model.ProductEntity{
		ID:           id.String(),
		UserID:       userID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Image:        req.Image,
		Images:       images,
		Category:     req.Category,
		Brand:        req.Brand,
		CountInStock: req.CountInStock,
		Featured:     req.Featured,
		Reviews:      make([]model.Review, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("[CreateProduct] begin tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	if err := s.productRepo.CreateTx(ctx, tx, product); err != nil {
		logger.Error("[CreateProduct] err productRepo.CreateTx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.txRepo.CommitTx(tx); err != nil {
		logger.Error("[CreateProduct] commit tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed = true

	s.afterWrite(ctx, constant.EventProductCreated, product.ID, userID)
	return product, nil
}

// UpdateProduct applies a partial update under a row lock. Rating and review
// count are never touched here.
func (s *productAppImpl) UpdateProduct(ctx context.Context, id string, req *model.UpdateProductRequest) (*model.ProductEntity, error) {
	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("[UpdateProduct] begin tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	product, err := s.productRepo.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		logger.Error("[UpdateProduct] err productRepo.GetByIDForUpdateTx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	if product == nil {
		return nil, errors.SetCustomError(constant.ErrNotFound)
	}

	req.Apply(product)
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.UpdateTx(ctx, tx, product, req.Images != nil); err != nil {
		logger.Error("[UpdateProduct] err productRepo.UpdateTx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.txRepo.CommitTx(tx); err != nil {
		logger.Error("[UpdateProduct] commit tx", zap.String("error", err.Error()))
		return nil, errors.SetCustomError(constant.ErrInternal)
	}
	committed = true

	s.afterWrite(ctx, constant.EventProductUpdated, product.ID, 0)
	return product, nil
}

func (s *productAppImpl) DeleteProduct(ctx context.Context, id string) error {
	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		logger.Error("[DeleteProduct] err productRepo.Delete", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	if !deleted {
		return errors.SetCustomError(constant.ErrNotFound)
	}

	s.afterWrite(ctx, constant.EventProductDeleted, id, 0)
	return nil
}

// SubmitReview appends a review and recomputes the product aggregate in one
// transaction. The product row stays locked until commit so concurrent
// reviews on the same product apply one after another.
func (s *productAppImpl) SubmitReview(ctx context.Context, req *model.SubmitReviewRequest) error {
	tx, err := s.txRepo.BeginTx(ctx)
	if err != nil {
		logger.Error("[SubmitReview] begin tx", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	committed := false
	defer func() {
		if !committed {
			_ = s.txRepo.RollbackTx(tx)
		}
	}()

	product, err := s.productRepo.GetByIDForUpdateTx(ctx, tx, req.ProductID)
	if err != nil {
		logger.Error("[SubmitReview] err productRepo.GetByIDForUpdateTx", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	if product == nil {
		return errors.SetCustomError(constant.ErrNotFound)
	}
	if product.HasReviewFrom(req.UserID) {
		return errors.SetCustomError(constant.ErrAlreadyReviewed)
	}

	review := model.Review{
		ProductID: product.ID,
		UserID:    req.UserID,
		Name:      req.UserName,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.productRepo.InsertReviewTx(ctx, tx, &review); err != nil {
		if stderrors.Is(err, productrepo.ErrDuplicateReview) {
			return errors.SetCustomError(constant.ErrAlreadyReviewed)
		}
		logger.Error("[SubmitReview] err productRepo.InsertReviewTx", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}

	product.AddReview(review)
	if err := s.productRepo.UpdateRatingTx(ctx, tx, product.ID, product.Rating, product.NumReviews); err != nil {
		logger.Error("[SubmitReview] err productRepo.UpdateRatingTx", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}

	if err := s.txRepo.CommitTx(tx); err != nil {
		logger.Error("[SubmitReview] commit tx", zap.String("error", err.Error()))
		return errors.SetCustomError(constant.ErrInternal)
	}
	committed = true

	s.afterWrite(ctx, constant.EventReviewAdded, product.ID, req.UserID)
	return nil
}

// afterWrite retires the cached top-rated list and announces the change.
// Both are best effort; the write itself has already committed.
func (s *productAppImpl) afterWrite(ctx context.Context, eventType, productID string, userID uint64) {
	gen, err := s.redisRepo.Incr(ctx, constant.TopRatedGenerationKey)
	if err != nil {
		logger.Warn("[afterWrite] err redisRepo.Incr", zap.String("error", err.Error()))
	} else if err := s.redisRepo.Delete(ctx, constant.TopRatedCacheKeyAt(gen-1)); err != nil {
		logger.Warn("[afterWrite] err redisRepo.Delete", zap.String("error", err.Error()))
	}

	if s.publisher == nil {
		return
	}
	event := rabbitmq.CatalogEvent{
		Type:       eventType,
		ProductID:  productID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("[afterWrite] err publisher.Publish", zap.String("error", err.Error()), zap.String("event", eventType))
	}
}
