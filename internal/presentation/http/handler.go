package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/mkassab/orderlink/internal/application/checkout"
	"github.com/mkassab/orderlink/internal/application/session"
	"github.com/mkassab/orderlink/internal/domain/cart"
	"github.com/mkassab/orderlink/internal/domain/catalog"
	domorder "github.com/mkassab/orderlink/internal/domain/order"
	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerSessionID      = "X-Session-ID"
)

type Handler struct {
	sessions *session.Manager
	catalog  catalog.Source
	checkout *checkout.UseCase
	log      observability.Logger
	tel      observability.Observability
}

func NewHandler(
	sessions *session.Manager,
	catalogSrc catalog.Source,
	checkoutUC *checkout.UseCase,
	logger observability.Logger,
	tel observability.Observability,
) *Handler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		sessions: sessions,
		catalog:  catalogSrc,
		checkout: checkoutUC,
		log:      logger.With(observability.F("component", componentHTTPHandler)),
		tel:      tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger, session id, metrics) → Access log → Handler
	h.muxHandle(mux, http.MethodPost, "/session/gate", h.handleGate)
	h.muxHandle(mux, http.MethodGet, "/catalog", h.handleCatalog)
	h.muxHandle(mux, http.MethodGet, "/cart", h.handleCart)
	h.muxHandle(mux, http.MethodPost, "/cart/items", h.handleCartUpsert)
	h.muxHandle(mux, http.MethodPost, "/cart/quantity", h.handleCartQuantity)
	h.muxHandle(mux, http.MethodPost, "/checkout", h.handleCheckout)
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(route, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Stable route template keeps metric labels low-cardinality.
		ctx := contextWithRoute(r.Context(), route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string { return r.Header.Get(headerRequestID) },
				func(r *http.Request) string { return r.Header.Get(headerSessionID) },
				h.tel,
			)(
				h.withAccessLog(http.HandlerFunc(handler)),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type gateRequest struct {
	AccessCode  string `json:"access_code"`
	CompanyName string `json:"company_name"`
	City        string `json:"city"`
}

func (h *Handler) handleGate(w http.ResponseWriter, r *http.Request) {
	var req gateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.CompanyName == "" {
		writeError(w, http.StatusBadRequest, errors.New("company_name is required"))
		return
	}

	err := h.sessions.ValidateAccess(r.Context(), sessionFromContext(r.Context()), req.AccessCode, req.CompanyName, req.City)
	switch {
	case errors.Is(err, session.ErrAccessDenied):
		writeError(w, http.StatusUnauthorized, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

type catalogItemResponse struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	LocalizedTitle string   `json:"localized_title,omitempty"`
	QuantityLabel  string   `json:"quantity_label,omitempty"`
	CompanyName    string   `json:"company_name,omitempty"`
	Price          string   `json:"price"`
	Images         []string `json:"images,omitempty"`
	SoldOut        bool     `json:"sold_out"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.FetchAll(r.Context())
	if err != nil {
		logctx.FromOr(r.Context(), h.log).Error("catalog_fetch_failed",
			observability.F("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, catalog.ErrUnavailable)
		return
	}

	out := make([]catalogItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, catalogItemResponse{
			ID:             it.ID,
			Title:          it.Title,
			LocalizedTitle: it.LocalizedTitle,
			QuantityLabel:  it.QuantityLabel,
			CompanyName:    it.CompanyName,
			Price:          it.Price.StringFixed(2),
			Images:         it.Images,
			SoldOut:        it.SoldOut,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type cartLineResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
	SoldOut  bool   `json:"sold_out"`
}

type cartResponse struct {
	Lines []cartLineResponse `json:"lines"`
	Total string             `json:"total"`
}

func (h *Handler) handleCart(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Get(sessionFromContext(r.Context()))
	writeJSON(w, http.StatusOK, cartView(sess.Cart))
}

type itemPayload struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	LocalizedTitle string   `json:"localized_title"`
	QuantityLabel  string   `json:"quantity_label"`
	CompanyName    string   `json:"company_name"`
	Price          string   `json:"price"`
	Images         []string `json:"images"`
	SoldOut        bool     `json:"sold_out"`
}

type cartUpsertRequest struct {
	Item     itemPayload `json:"item"`
	Quantity int         `json:"quantity"`
}

func (h *Handler) handleCartUpsert(w http.ResponseWriter, r *http.Request) {
	var req cartUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Item.ID == "" {
		writeError(w, http.StatusBadRequest, errors.New("item.id is required"))
		return
	}
	price, err := decimal.NewFromString(req.Item.Price)
	if err != nil || price.IsNegative() {
		writeError(w, http.StatusBadRequest, errors.New("item.price must be a non-negative decimal"))
		return
	}

	sess := h.sessions.Get(sessionFromContext(r.Context()))
	sess.Cart.Upsert(catalog.Item{
		ID:             req.Item.ID,
		Title:          req.Item.Title,
		LocalizedTitle: req.Item.LocalizedTitle,
		QuantityLabel:  req.Item.QuantityLabel,
		CompanyName:    req.Item.CompanyName,
		Price:          price,
		Images:         req.Item.Images,
		SoldOut:        req.Item.SoldOut,
	}, req.Quantity)

	writeJSON(w, http.StatusOK, cartView(sess.Cart))
}

type cartQuantityRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) handleCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, errors.New("item_id is required"))
		return
	}

	sess := h.sessions.Get(sessionFromContext(r.Context()))
	sess.Cart.SetQuantity(req.ItemID, req.Quantity)

	writeJSON(w, http.StatusOK, cartView(sess.Cart))
}

type checkoutResponse struct {
	OrderID  string `json:"order_id"`
	Link     string `json:"link"`
	Total    string `json:"total"`
	Fallback bool   `json:"fallback"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sid := sessionFromContext(r.Context())

	result, err := h.checkout.Execute(r.Context(), checkout.Input{SessionID: sid})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The order is recorded and the link dispatched; a fresh order starts
	// immediately, reusing the known contact destination.
	h.sessions.Get(sid).Clear(session.FieldContactDestination)

	writeJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:  result.OrderID,
		Link:     result.Link,
		Total:    result.Total,
		Fallback: result.Fallback,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func cartView(c *cart.Cart) cartResponse {
	lines := c.Lines()
	out := cartResponse{
		Lines: make([]cartLineResponse, 0, len(lines)),
		Total: c.Total().StringFixed(2),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, cartLineResponse{
			ID:       l.ID,
			Title:    l.Title,
			Quantity: l.Quantity,
			Price:    l.Price.StringFixed(2),
			Subtotal: l.Subtotal().StringFixed(2),
			SoldOut:  l.SoldOut,
		})
	}
	return out
}

// withAccessLog writes a single access log after the handler completes,
// using the request-scoped logger injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("orderlink.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrNoCompany),
		errors.Is(err, domorder.ErrEmptyCart):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, checkout.ErrStore):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so
// downstream metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

type sessionKey struct{}

func contextWithSession(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

func sessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}
