package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	attmem "github.com/egannguyen/jewellery-storefront/internal/attachment/memory"
	"github.com/egannguyen/jewellery-storefront/internal/availability"
	"github.com/egannguyen/jewellery-storefront/internal/entity"
	"github.com/egannguyen/jewellery-storefront/internal/payment"
	"github.com/egannguyen/jewellery-storefront/internal/pricing"
	"github.com/egannguyen/jewellery-storefront/internal/repository/memory"
	"github.com/egannguyen/jewellery-storefront/internal/service"
	storemem "github.com/egannguyen/jewellery-storefront/internal/storage/memory"
)

const adminToken = "test-admin"

type nopPublisher struct{}

func (nopPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	catalog := memory.NewProductRepository()
	require.NoError(t, catalog.Seed(ctx, []entity.Product{
		{
			ID: "p-1", Title: "Halo Ring", Slug: "halo-ring", BasePrice: 150000, Category: "rings",
			OptionGroups: []entity.OptionGroup{
				{Name: entity.GroupMetal, Required: true, Values: []entity.OptionValue{{Name: "Yellow Gold"}, {Name: "Platinum", PriceDelta: 25000}}},
				{Name: entity.GroupCarat, Values: []entity.OptionValue{{Name: "0.5"}, {Name: "1.0", PriceDelta: 300000}}},
			},
			RingSizes: []string{"J", "K", "L"},
		},
		{ID: "p-2", Title: "Tennis Bracelet", Slug: "tennis-bracelet", BasePrice: 420000, Category: "bracelets"},
	}))

	levels := memory.NewInventoryRepository()
	events := memory.NewEventStore()
	store := storemem.NewStore()
	locker := storemem.NewLocker()
	resolver := pricing.NewResolver(pricing.WithMaxPerAdd(5), pricing.WithDiagnostics(func(pricing.Diagnostic) {}))
	gate := availability.NewGate(levels, catalog)

	carts := service.NewCartService(catalog, resolver, gate, store, locker, time.Hour)
	inventory := service.NewInventoryService(events, levels, catalog)
	orders := service.NewOrderService(memory.NewOrderRepository(), events, nopPublisher{}, inventory)

	h := NewHandler(Services{
		Catalog:   service.NewCatalogService(catalog),
		Carts:     carts,
		Shopper:   service.NewShopperService(catalog, store, locker, time.Hour),
		Checkout:  service.NewCheckoutService(carts, catalog, resolver, gate, &payment.FakeGateway{}, orders, "gbp"),
		Orders:    orders,
		Inventory: inventory,
		Inquiries: service.NewInquiryService(memory.NewInquiryRepository(), attmem.NewStore("https://files.test"), nopPublisher{}),
		Gate:      gate,
	}, Options{
		AdminToken:    adminToken,
		PublicBaseURL: "https://shop.test",
		Currency:      "gbp",
		SessionTTL:    time.Hour,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(EnableCORS(mux))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t       *testing.T
	base    string
	session string
	admin   bool
}

func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.session != "" {
		req.Header.Set(sessionHeader, c.session)
	}
	if c.admin {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestProducts(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	resp, body := c.do(http.MethodGet, "/api/products?category=rings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, body)
	require.Len(t, list, 1)
	assert.Equal(t, "halo-ring", list[0]["slug"])
	assert.Equal(t, "£1,500.00", list[0]["price"].(map[string]any)["display"])

	resp, _ = c.do(http.MethodGet, "/api/products/tiara", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProductDetail_BuildState(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	resp, body := c.do(http.MethodGet, "/api/products/halo-ring?metal=Platinum&carat=1.0&engraving=A+%26+B&engravingOn=true&utm_source=mail", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail struct {
		BuildState map[string]any `json:"build_state"`
		Quote      struct {
			UnitPrice    int64  `json:"unit_price"`
			VariantLabel string `json:"variant_label"`
			Price        struct {
				Display string `json:"display"`
			} `json:"price"`
		} `json:"quote"`
		ShareQuery string `json:"share_query"`
	}
	require.NoError(t, json.Unmarshal(body, &detail))

	assert.Equal(t, int64(150000+25000+300000), detail.Quote.UnitPrice)
	assert.Equal(t, "£4,750.00", detail.Quote.Price.Display)
	assert.Equal(t, "Platinum", detail.Quote.VariantLabel)
	assert.Equal(t, "A & B", detail.BuildState["engraving"])
	assert.Equal(t, "carat=1.0&engraving=A+%26+B&engravingOn=1&metal=Platinum&utm_source=mail", detail.ShareQuery)

	// Viewing records the product.
	resp, body = c.do(http.MethodGet, "/api/recently-viewed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	viewed := decode[[]map[string]any](t, body)
	require.Len(t, viewed, 1)
	assert.Equal(t, "halo-ring", viewed[0]["slug"])
}

func TestProductDetail_ShareQueryUsesResolvedSelection(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	resp, body := c.do(http.MethodGet, "/api/products/halo-ring?carat=2.0&metal=Titanium&page=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	detail := decode[map[string]any](t, body)
	assert.Equal(t, "metal=Yellow+Gold&page=2", detail["share_query"])
	assert.Equal(t, "Titanium", detail["build_state"].(map[string]any)["metal"])
}

func TestPriceAndInventory(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}
	admin := &client{t: t, base: srv.URL, admin: true}

	resp, body := c.do(http.MethodGet, "/api/products/halo-ring/price?metal=Unobtainium", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(150000), decode[map[string]any](t, body)["unit_price"])

	resp, body = c.do(http.MethodGet, "/api/products/halo-ring/inventory", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, _ = admin.do(http.MethodPost, "/api/admin/inventory/halo-ring", map[string]any{"variant_key": "platinum-size-k", "quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = c.do(http.MethodGet, "/api/products/halo-ring/inventory", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"product_slug":"halo-ring","variant_key":"platinum-size-k","remaining":2}]`, string(body))

	resp, _ = admin.do(http.MethodPost, "/api/admin/inventory/halo-ring", map[string]any{"variant_key": "platinum-size-k", "level": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCartFlow(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	resp, body := c.do(http.MethodPost, "/api/cart/items", map[string]any{
		"product_slug": "halo-ring",
		"build_query":  "metal=Platinum&ringSize=K&engraving=Forever&engravingOn=1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	added := decode[map[string]any](t, body)
	line := added["line"].(map[string]any)
	assert.Equal(t, "Platinum / Size K", line["variant_label"])
	assert.Equal(t, "platinum-size-k", line["variant_key"])
	assert.Equal(t, float64(1), line["quantity"])

	resp, body = c.do(http.MethodPost, "/api/cart/items", map[string]any{"product_slug": "tennis-bracelet", "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cart := decode[map[string]any](t, body)
	assert.Equal(t, float64(3), cart["item_count"])
	total := cart["total"].(map[string]any)
	assert.Equal(t, float64(175000+2*420000), total["amount"])
	assert.Equal(t, "£10,150.00", total["display"])

	resp, body = c.do(http.MethodDelete, "/api/cart/items/"+line["id"].(string), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[map[string]any](t, body)["lines"], 1)

	resp, _ = c.do(http.MethodDelete, "/api/cart", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[map[string]any](t, body)["lines"])
}

func TestAddToCart_Errors(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	tests := []struct {
		name   string
		body   any
		status int
		field  string
	}{
		{"missing slug", map[string]any{"quantity": 1}, http.StatusBadRequest, "product_slug"},
		{"unknown field", map[string]any{"product_slug": "halo-ring", "colour": "red"}, http.StatusBadRequest, ""},
		{"unknown product", map[string]any{"product_slug": "tiara"}, http.StatusNotFound, ""},
		{"no ring size", map[string]any{"product_slug": "halo-ring"}, http.StatusUnprocessableEntity, "ringSize"},
		{"zero quantity", map[string]any{"product_slug": "tennis-bracelet", "quantity": 0}, http.StatusUnprocessableEntity, "quantity"},
		{"over limit", map[string]any{"product_slug": "tennis-bracelet", "quantity": 6}, http.StatusUnprocessableEntity, "quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := c.do(http.MethodPost, "/api/cart/items", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			if tt.field != "" {
				assert.Equal(t, tt.field, decode[errorResponse](t, body).Field)
			}
		})
	}
}

func TestAddToCart_OutOfStock(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}
	admin := &client{t: t, base: srv.URL, admin: true}

	resp, _ := admin.do(http.MethodPost, "/api/admin/inventory/tennis-bracelet", map[string]any{"level": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/api/cart/items", map[string]any{"product_slug": "tennis-bracelet"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/api/cart/items", map[string]any{"product_slug": "tennis-bracelet"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSessionCookieIssued(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	resp, _ := c.do(http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sid := resp.Header.Get(sessionHeader)
	require.NotEmpty(t, sid)

	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == sessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, sid, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestCheckout(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}
	admin := &client{t: t, base: srv.URL, admin: true}

	resp, _ := c.do(http.MethodPost, "/api/checkout", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/api/cart/items", map[string]any{"product_slug": "tennis-bracelet"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := c.do(http.MethodPost, "/api/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	out := decode[map[string]any](t, body)
	orderID := out["order_id"].(string)
	assert.True(t, strings.HasPrefix(out["redirect_url"].(string), "https://shop.test/checkout/success?session_id="))

	resp, body = admin.do(http.MethodGet, "/api/admin/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	orders := decode[[]entity.Order](t, body)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)
	assert.Equal(t, entity.OrderStatusPending, orders[0].Status)

	resp, body = admin.do(http.MethodPost, "/api/admin/orders/"+orderID+"/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.OrderStatusConfirmed, decode[entity.Order](t, body).Status)

	resp, _ = admin.do(http.MethodPost, "/api/admin/orders/nope/confirm", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = admin.do(http.MethodGet, "/api/admin/orders/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestAdminRequiresToken(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	for _, path := range []string{"/api/admin/orders", "/api/admin/inquiries"} {
		resp, _ := c.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestWishlist(t *testing.T) {
	srv := newTestServer(t)
	c := &client{t: t, base: srv.URL, session: "s1"}

	resp, _ := c.do(http.MethodPost, "/api/wishlist", map[string]any{"product_slug": "halo-ring"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = c.do(http.MethodPost, "/api/wishlist", map[string]any{"product_slug": "tiara"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := c.do(http.MethodGet, "/api/wishlist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	resp, _ = c.do(http.MethodDelete, "/api/wishlist/halo-ring", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = c.do(http.MethodGet, "/api/wishlist", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))
}

func multipartInquiry(t *testing.T, fields map[string]string, files int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for i := 0; i < files; i++ {
		fw, err := mw.CreateFormFile("attachments", fmt.Sprintf("ref-%d.jpg", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestInquiries(t *testing.T) {
	srv := newTestServer(t)
	admin := &client{t: t, base: srv.URL, admin: true}

	fields := map[string]string{
		"name":       "Alex Rowe",
		"email":      "alex@example.com",
		"phone":      "020 7946 0018",
		"budget":     "300000",
		"piece_type": "necklace",
		"message":    "Something with my grandmother's emerald.",
	}
	body, contentType := multipartInquiry(t, fields, 2)
	resp, err := http.Post(srv.URL+"/api/inquiries", contentType, body)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	inq := decode[entity.Inquiry](t, raw)
	assert.Equal(t, "+442079460018", inq.Phone)
	assert.Len(t, inq.Attachments, 2)

	body, contentType = multipartInquiry(t, fields, 6)
	resp, err = http.Post(srv.URL+"/api/inquiries", contentType, body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = admin.do(http.MethodPatch, "/api/admin/inquiries/"+inq.ID, map[string]any{"status": "contacted"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = admin.do(http.MethodPatch, "/api/admin/inquiries/"+inq.ID, map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, raw = admin.do(http.MethodGet, "/api/admin/inquiries?status=contacted", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]entity.Inquiry](t, raw), 1)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/cart/items/x", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Session-ID")
}
