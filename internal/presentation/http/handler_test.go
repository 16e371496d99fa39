package httppresentation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkassab/orderlink/internal/application/checkout"
	"github.com/mkassab/orderlink/internal/application/session"
	"github.com/mkassab/orderlink/internal/domain/catalog"
	"github.com/mkassab/orderlink/internal/infrastructure/counter"
	"github.com/mkassab/orderlink/internal/infrastructure/memory"
	"github.com/mkassab/orderlink/internal/infrastructure/whatsapp"
	httppresentation "github.com/mkassab/orderlink/internal/presentation/http"
)

type env struct {
	sessions *session.Manager
	store    *memory.OrderStore
	router   http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	sessions := session.NewManager(memory.NewSettingsSource("1234", "+1 (555) 123-4567"), nil)
	store := memory.NewOrderStore()
	catalogSrc := memory.NewCatalogSource(
		catalog.Item{ID: "P1", Title: "Olive Oil", QuantityLabel: "1L", Price: decimal.RequireFromString("30.00")},
		catalog.Item{ID: "P2", Title: "Seed Mix", Price: decimal.RequireFromString("115.20"), SoldOut: true},
	)
	alloc := counter.NewAllocator(memory.NewCounterStore(), "order_counters", nil)
	uc := checkout.NewUseCase(sessions, store, alloc, whatsapp.NewComposer(), nil, nil).
		WithClock(func() time.Time {
			return time.Date(2025, time.September, 1, 10, 30, 0, 0, time.UTC)
		})

	h := httppresentation.NewHandler(sessions, catalogSrc, uc, nil, nil)
	return &env{sessions: sessions, store: store, router: h.Router()}
}

func (e *env) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) gate(t *testing.T, sessionID string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/session/gate", sessionID, map[string]string{
		"access_code":  "1234",
		"company_name": "Acme Foods",
		"city":         "Hilltown",
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestGateRejectsWrongCode(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/session/gate", "s1", map[string]string{
		"access_code":  "9999",
		"company_name": "Acme Foods",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateRequiresCompanyName(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/session/gate", "s1", map[string]string{
		"access_code": "1234",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogListsItems(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/catalog", "s1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]any
	decodeBody(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "P1", items[0]["id"])
	assert.Equal(t, "30.00", items[0]["price"])
	assert.Equal(t, true, items[1]["sold_out"])
}

func TestCartUpsertAndQuantity(t *testing.T) {
	e := newEnv(t)
	e.gate(t, "s1")

	rec := e.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"item":     map[string]any{"id": "P1", "title": "Olive Oil", "price": "30.00"},
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Lines []struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
			Subtotal string `json:"subtotal"`
		} `json:"lines"`
		Total string `json:"total"`
	}
	decodeBody(t, rec, &view)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, "60.00", view.Total)

	// setting the quantity to zero removes the line
	rec = e.do(t, http.MethodPost, "/cart/quantity", "s1", map[string]any{
		"item_id": "P1", "quantity": 0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &view)
	assert.Empty(t, view.Lines)
	assert.Equal(t, "0.00", view.Total)
}

func TestCartUpsertRejectsBadPrice(t *testing.T) {
	e := newEnv(t)
	e.gate(t, "s1")

	rec := e.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"item":     map[string]any{"id": "P1", "price": "not-a-number"},
		"quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartsAreSessionScoped(t *testing.T) {
	e := newEnv(t)
	e.gate(t, "s1")
	e.gate(t, "s2")

	rec := e.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"item":     map[string]any{"id": "P1", "price": "30.00"},
		"quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodGet, "/cart", "s2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		Lines []any  `json:"lines"`
		Total string `json:"total"`
	}
	decodeBody(t, rec, &view)
	assert.Empty(t, view.Lines)
}

func TestCheckoutSubmitsAndClearsCart(t *testing.T) {
	e := newEnv(t)
	e.gate(t, "s1")

	rec := e.do(t, http.MethodPost, "/cart/items", "s1", map[string]any{
		"item":     map[string]any{"id": "P1", "title": "Olive Oil", "price": "30.00"},
		"quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/checkout", "s1", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		OrderID  string `json:"order_id"`
		Link     string `json:"link"`
		Total    string `json:"total"`
		Fallback bool   `json:"fallback"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, "20250901_01", resp.OrderID)
	assert.Equal(t, "60.00", resp.Total)
	assert.False(t, resp.Fallback)
	assert.Contains(t, resp.Link, "https://wa.me/15551234567?text=")

	stored, err := e.store.Get(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Foods", stored.CompanyName)

	// cart empties; the contact destination survives for the next order
	sess := e.sessions.Get("s1")
	assert.Equal(t, 0, sess.Cart.Len())
	assert.NotEmpty(t, sess.ContactDestination)
	assert.Empty(t, sess.CompanyName)
}

func TestCheckoutEmptyCartConflicts(t *testing.T) {
	e := newEnv(t)
	e.gate(t, "s1")

	rec := e.do(t, http.MethodPost, "/checkout", "s1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodDelete, "/catalog", "s1", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSessionHeaderEchoedWhenGenerated(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Session-ID"))
}
