package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	orderapp "github.com/muhammadheryan/storefront/application/order"
	productapp "github.com/muhammadheryan/storefront/application/product"
	userapp "github.com/muhammadheryan/storefront/application/user"
	"github.com/muhammadheryan/storefront/cmd/config"
	"github.com/muhammadheryan/storefront/constant"
	"github.com/muhammadheryan/storefront/model"
	utilsContext "github.com/muhammadheryan/storefront/utils/context"
	"github.com/muhammadheryan/storefront/utils/errors"
	validatorx "github.com/muhammadheryan/storefront/utils/validator"
	httpSwagger "github.com/swaggo/http-swagger"
)

type RestHandler struct {
	ProductApp productapp.ProductApp
	UserApp    userapp.UserApp
	OrderApp   orderapp.OrderApp
}

func NewTransport(cfg *config.Config, productApp productapp.ProductApp, userApp userapp.UserApp, orderApp orderapp.OrderApp) http.Handler {
	router := mux.NewRouter()

	rh := &RestHandler{
		ProductApp: productApp,
		UserApp:    userApp,
		OrderApp:   orderApp,
	}
	admin := AdminMiddleware(userApp)

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	// Public routes
	router.HandleFunc("/register", rh.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", rh.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/products", rh.ListProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/products/top", rh.GetTopRated).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}", rh.GetProduct).Methods(http.MethodGet)

	// protected routes
	router.HandleFunc("/logout", rh.Logout).Methods(http.MethodPost)
	router.HandleFunc("/me", rh.GetMe).Methods(http.MethodGet)
	router.HandleFunc("/api/products/{id}/reviews", rh.SubmitReview).Methods(http.MethodPost)
	router.HandleFunc("/api/orders", rh.CreateOrder).Methods(http.MethodPost)
	router.HandleFunc("/api/orders/myorders", rh.GetMyOrders).Methods(http.MethodGet)
	router.HandleFunc("/api/orders/{id:[0-9]+}", rh.GetOrder).Methods(http.MethodGet)

	// admin routes
	router.Handle("/api/products", admin(http.HandlerFunc(rh.CreateProduct))).Methods(http.MethodPost)
	router.Handle("/api/products/{id}", admin(http.HandlerFunc(rh.UpdateProduct))).Methods(http.MethodPut)
	router.Handle("/api/products/{id}", admin(http.HandlerFunc(rh.DeleteProduct))).Methods(http.MethodDelete)
	router.Handle("/api/orders", admin(http.HandlerFunc(rh.ListOrders))).Methods(http.MethodGet)
	router.Handle("/api/orders/{id:[0-9]+}/deliver", admin(http.HandlerFunc(rh.DeliverOrder))).Methods(http.MethodPut)
	router.Handle("/api/users", admin(http.HandlerFunc(rh.ListUsers))).Methods(http.MethodGet)
	router.Handle("/api/users/{id:[0-9]+}", admin(http.HandlerFunc(rh.DeleteUser))).Methods(http.MethodDelete)

	// internal routes
	internal := router.PathPrefix("/internal/v1").Subrouter()
	internal.HandleFunc("/products/top/refresh", rh.RefreshTopRated).Methods(http.MethodPost)
	internal.Use(InternalMiddleware(cfg.Internal.APIKey))

	// middleware
	router.Use(LoggingMiddleware())
	router.Use(AuthMiddleware(userApp))

	return router
}

// ListProducts handler
// @Summary List products
// @Description Filtered product listing, 12 per page, newest first
// @Tags Products
// @Produce json
// @Param keyword query string false "Case-insensitive substring of the name"
// @Param category query string false "Category"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param rating query number false "Minimum rating"
// @Param pageNumber query int false "Page number, 1-based"
// @Success 200 {object} model.ProductListResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/products [get]
func (s *RestHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := model.ParseProductFilter(query)
	// unparseable page numbers fall back to the first page
	page, _ := strconv.Atoi(query.Get("pageNumber"))

	res, err := s.ProductApp.ListProducts(r.Context(), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetTopRated handler
// @Summary Top rated products
// @Description Up to five products with the highest rating
// @Tags Products
// @Produce json
// @Success 200 {array} model.ProductEntity
// @Failure 500 {object} model.ErrorResponse
// @Router /api/products/top [get]
func (s *RestHandler) GetTopRated(w http.ResponseWriter, r *http.Request) {
	res, err := s.ProductApp.GetTopRated(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetProduct handler
// @Summary Get product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} model.ProductEntity
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products/{id} [get]
func (s *RestHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	res, err := s.ProductApp.GetProduct(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// CreateProduct handler
// @Summary Create product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateProductRequest true "Product"
// @Success 201 {object} model.ProductEntity
// @Failure 400 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /api/products [post]
func (s *RestHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	var req model.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.ProductApp.CreateProduct(ctx, userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeCreated(w, res)
}

// UpdateProduct handler
// @Summary Update product
// @Description Partial update; omitted fields keep their stored value
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body model.UpdateProductRequest true "Fields to change"
// @Success 200 {object} model.ProductEntity
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products/{id} [put]
func (s *RestHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.ProductApp.UpdateProduct(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// DeleteProduct handler
// @Summary Delete product
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} model.MessageResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products/{id} [delete]
func (s *RestHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.ProductApp.DeleteProduct(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, model.MessageResponse{Message: "Product removed"})
}

// SubmitReview handler
// @Summary Review product
// @Description One review per user and product
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body model.ReviewRequest true "Review"
// @Success 201 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/products/{id}/reviews [post]
func (s *RestHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	var req model.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	// the author name is captured now and never re-derived
	user, err := s.UserApp.GetUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.ProductApp.SubmitReview(ctx, &model.SubmitReviewRequest{
		ProductID:     mux.Vars(r)["id"],
		UserID:        userID,
		UserName:      user.Name,
		ReviewRequest: req,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeCreated(w, model.MessageResponse{Message: "Review added"})
}

// RefreshTopRated handler
// @Summary Rebuild the top rated cache
// @Tags Internal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /internal/v1/products/top/refresh [post]
func (s *RestHandler) RefreshTopRated(w http.ResponseWriter, r *http.Request) {
	if err := s.ProductApp.RefreshTopRated(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, model.MessageResponse{Message: "Top rated refreshed"})
}

// Register handler
// @Summary Register user
// @Description Register a new user
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Register Request"
// @Success 200 {object} model.RegisterResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /register [post]
func (s *RestHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.UserApp.Register(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// Login handler
// @Summary Login user
// @Description Login with email or phone and receive JWT token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login Request"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /login [post]
func (s *RestHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.UserApp.Login(ctx, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// Logout handler
// @Summary Logout user
// @Description Revoke the session behind the bearer token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MessageResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /logout [post]
func (s *RestHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	if err := s.UserApp.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, model.MessageResponse{Message: "Logged out"})
}

// GetMe handler
// @Summary Current user
// @Description Profile of the signed-in user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserEntity
// @Failure 401 {object} model.ErrorResponse
// @Router /me [get]
func (s *RestHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	res, err := s.UserApp.GetUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// CreateOrder handler
// @Summary Place order
// @Description Prices come from the catalog; ordered units leave stock
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateOrderRequest true "Order"
// @Success 201 {object} model.OrderEntity
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/orders [post]
func (s *RestHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	if err := validatorx.ValidateStruct(&req); err != nil {
		writeError(w, errors.SetCustomError(constant.ErrInvalidRequest))
		return
	}

	res, err := s.OrderApp.CreateOrder(ctx, userID, &req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeCreated(w, res)
}

// GetMyOrders handler
// @Summary My orders
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.OrderEntity
// @Failure 401 {object} model.ErrorResponse
// @Router /api/orders/myorders [get]
func (s *RestHandler) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	res, err := s.OrderApp.GetMyOrders(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// GetOrder handler
// @Summary Get order
// @Description Visible to the buyer and to admins
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.OrderEntity
// @Failure 404 {object} model.ErrorResponse
// @Router /api/orders/{id} [get]
func (s *RestHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	orderID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	requester, err := s.UserApp.GetUser(ctx, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.OrderApp.GetOrder(ctx, requester, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// ListOrders handler
// @Summary List orders
// @Description Every order, newest first
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.OrderEntity
// @Failure 403 {object} model.ErrorResponse
// @Router /api/orders [get]
func (s *RestHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	res, err := s.OrderApp.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// DeliverOrder handler
// @Summary Mark order delivered
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.OrderEntity
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/orders/{id}/deliver [put]
func (s *RestHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.OrderApp.DeliverOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// ListUsers handler
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserEntity
// @Failure 403 {object} model.ErrorResponse
// @Router /api/users [get]
func (s *RestHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	res, err := s.UserApp.ListUsers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, res)
}

// DeleteUser handler
// @Summary Delete user
// @Description Admins cannot delete their own account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.MessageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/users/{id} [delete]
func (s *RestHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, ok := utilsContext.GetUserID(ctx)
	if !ok {
		writeError(w, errors.SetCustomError(constant.ErrUnauthorize))
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.UserApp.DeleteUser(ctx, actorID, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, model.MessageResponse{Message: "User removed"})
}

// pathID reads the numeric {id} route variable.
func pathID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, errors.SetCustomError(constant.ErrInvalidRequest)
	}
	return id, nil
}
