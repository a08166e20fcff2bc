package httppresentation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	domcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerSessionID      = "X-Session-ID"
)

var errNoSession = errors.New("X-Session-ID header is required")

type Handler struct {
	catalog    *appcatalog.Service
	carts      *appcart.Service
	placeOrder application.UseCase[apporder.PlaceOrderInput, *apporder.PlaceOrderResult]
	getOrder   application.UseCase[string, *domorder.Order]
	log        observability.Logger
	tel        observability.Observability
}

func NewHandler(
	catalog *appcatalog.Service,
	carts *appcart.Service,
	placeOrder application.UseCase[apporder.PlaceOrderInput, *apporder.PlaceOrderResult],
	getOrder application.UseCase[string, *domorder.Order],
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Handler{
		catalog:    catalog,
		carts:      carts,
		placeOrder: placeOrder,
		getOrder:   getOrder,
		log:        logger.With(observability.F("component", componentHTTPHandler)),
		tel:        tel,
	}
}

// Router wires: Recoverer → Observability (span, request logger, metrics)
// → Access log → route.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(ObservabilityMiddleware(h.log,
		func(r *http.Request) string { return r.Header.Get(headerRequestID) },
		h.tel,
	))
	r.Use(AccessLog(h.log))

	r.Get("/health", h.handleHealth)

	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)

	r.Get("/cart", h.handleGetCart)
	r.Post("/cart/items", h.handleAddToCart)
	r.Delete("/cart/items/{productID}", h.handleRemoveFromCart)
	r.Delete("/cart", h.handleClearCart)

	r.Post("/checkout", h.handleCheckout)
	r.Get("/orders/{id}", h.handleGetOrder)

	return r
}

type productResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Available int    `json:"available"`
	Category  string `json:"category"`
	Image     string `json:"image,omitempty"`
}

func toProductResponse(v appcatalog.ProductView) productResponse {
	return productResponse{
		ID:        v.ID,
		Name:      v.Name,
		Price:     v.Price,
		Stock:     v.Stock,
		Available: v.Available,
		Category:  string(v.Category),
		Image:     v.Image,
	}
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := h.catalog.List(r.Context(), domcatalog.Filter{
		Category: domcatalog.Category(q.Get("category")),
		Prefix:   q.Get("prefix"),
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toProductResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	v, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(v))
}

type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type cartResponse struct {
	SessionID string             `json:"session_id"`
	Lines     []cartLineResponse `json:"lines"`
	Total     int64              `json:"total"`
}

func toCartResponse(v appcart.View) cartResponse {
	out := cartResponse{SessionID: v.SessionID, Lines: make([]cartLineResponse, 0, len(v.Lines)), Total: v.Total}
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, cartLineResponse{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Price:     l.Product.Price,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}
	return out
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	view, err := h.carts.Lines(r.Context(), session)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

type addToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	view, err := h.carts.Add(r.Context(), session, req.ProductID, req.Quantity)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(view))
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.carts.Remove(r.Context(), session, chi.URLParam(r, "productID")); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := h.carts.Clear(r.Context(), session); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
	Payment string `json:"payment"`
}

type orderLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	Status        domorder.Status     `json:"status"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone"`
	Address       string              `json:"address"`
	Notes         string              `json:"notes,omitempty"`
	PaymentMethod string              `json:"payment"`
	Lines         []orderLineResponse `json:"lines"`
	Amount        int64               `json:"amount"`
	FailureReason string              `json:"failure_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	out := orderResponse{
		ID:            o.ID,
		Status:        o.Status,
		Name:          o.Customer.Name,
		Email:         o.Customer.Email,
		Phone:         o.Customer.Phone,
		Address:       o.Customer.Address,
		Notes:         o.Customer.Notes,
		PaymentMethod: string(o.PaymentMethod),
		Lines:         make([]orderLineResponse, 0, len(o.Lines)),
		Amount:        o.Amount,
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, orderLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		})
	}
	return out
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.placeOrder.Execute(r.Context(), apporder.PlaceOrderInput{
		SessionID: session,
		Customer: domorder.Customer{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
			Notes:   req.Notes,
		},
		PaymentMethod: domorder.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Payment))),
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	w.Header().Set("Location", "/orders/"+result.Order.ID)
	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.getOrder.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(headerSessionID))
	if id == "" {
		writeError(w, http.StatusBadRequest, errNoSession)
		return "", false
	}
	return id, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps application error kinds to HTTP. Out of stock is checked
// first since its causes may also carry NotFound.
func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrOutOfStock):
		return http.StatusConflict
	case errors.Is(err, application.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrValidation),
		errors.Is(err, application.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("request_failed", observability.F("error", err))
	}
	writeError(w, status, err)
}
