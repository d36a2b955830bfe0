package http

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/service"
	"github.com/egannguyen/jewellery-storefront/internal/storage"
)

const (
	sessionHeader = "X-Session-ID"
	sessionCookie = "sid"
)

// Services are the application services the API exposes.
type Services struct {
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Shopper   *service.ShopperService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Inventory *service.InventoryService
	Inquiries *service.InquiryService
	Gate      *availability.Gate
}

// Options configure the HTTP surface.
type Options struct {
	// AdminToken guards /api/admin. Empty disables the check (DEV_MODE only).
	AdminToken    string
	PublicBaseURL string
	Currency      string
	SessionTTL    time.Duration
	SecureCookies bool
}

// Handler handles HTTP requests for the application.
type Handler struct {
	svc  Services
	opts Options
}

func NewHandler(svc Services, opts Options) *Handler {
	return &Handler{svc: svc, opts: opts}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleGetProducts)
	mux.HandleFunc("GET /api/products/{slug}", h.handleGetProduct)
	mux.HandleFunc("GET /api/products/{slug}/price", h.handleGetPrice)
	mux.HandleFunc("GET /api/products/{slug}/inventory", h.handleGetInventory)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddToCart)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveFromCart)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)
	mux.HandleFunc("POST /api/checkout", h.handleCheckout)

	mux.HandleFunc("GET /api/wishlist", h.handleGetWishlist)
	mux.HandleFunc("POST /api/wishlist", h.handleAddToWishlist)
	mux.HandleFunc("DELETE /api/wishlist/{slug}", h.handleRemoveFromWishlist)
	mux.HandleFunc("GET /api/recently-viewed", h.handleRecentlyViewed)

	mux.HandleFunc("POST /api/inquiries", h.handleSubmitInquiry)

	mux.HandleFunc("GET /api/admin/orders", h.requireAdmin(h.handleGetOrders))
	mux.HandleFunc("GET /api/admin/orders/export", h.requireAdmin(h.handleExportOrders))
	mux.HandleFunc("POST /api/admin/orders/{id}/confirm", h.requireAdmin(h.handleConfirmOrder))
	mux.HandleFunc("GET /api/admin/inquiries", h.requireAdmin(h.handleGetInquiries))
	mux.HandleFunc("PATCH /api/admin/inquiries/{id}", h.requireAdmin(h.handleUpdateInquiry))
	mux.HandleFunc("POST /api/admin/inventory/{slug}", h.requireAdmin(h.handleAdjustInventory))
}

// sessionID returns the shopper session from the header or cookie, issuing
// a new cookie when there is none.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(sessionHeader)); validSessionID(id) {
		return id
	}
	if c, err := r.Cookie(sessionCookie); err == nil && validSessionID(c.Value) {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(sessionHeader, id)
	return id
}

func validSessionID(id string) bool {
	return id != "" && len(id) <= 128 && !strings.ContainsAny(id, " \t\r\n:")
}

func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.opts.AdminToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.opts.AdminToken)) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	resp := errorResponse{Error: err.Error()}
	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		resp.Field = ve.Field
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrMissingRequiredOption),
		errors.Is(err, entity.ErrInvalidQuantity),
		errors.Is(err, entity.ErrQuantityLimit),
		errors.Is(err, entity.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrInquiryNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrOutOfStock),
		errors.Is(err, entity.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, storage.ErrLockNotObtained):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return entity.NewValidationError(entity.ErrInvalidRequest, "", "invalid request body: %v", err)
	}
	return nil
}

// EnableCORS is a middleware to allow the storefront frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Session-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
