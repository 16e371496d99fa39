package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkassab/orderlink/internal/application/session"
	domorder "github.com/mkassab/orderlink/internal/domain/order"
	domoutbox "github.com/mkassab/orderlink/internal/domain/outbox"
	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService = "checkout-service"
	useCaseSubmit   = "checkout.submit"
	spanPrefix      = "UC."
	publishPeer     = "outbox"
	publishEndpoint = "order.submitted"
	publishTimeout  = 300 * time.Millisecond
)

var (
	ErrNoCompany = errors.New("checkout: company is not set for this session")
	ErrEmptyCart = domorder.ErrEmptyCart
	ErrStore     = errors.New("checkout: order store failure")
)

// Allocator mints the human-facing order identifier. Allocation never fails:
// when the counter resource is unreachable the implementation returns a
// locally generated fallback identifier and reports fallback=true.
type Allocator interface {
	Allocate(ctx context.Context, now time.Time) (id string, fallback bool)
}

// Composer renders the outbound text and deep link for a submitted order.
// It must be a pure function of the order and the contact destination.
type Composer interface {
	Compose(o *domorder.SubmittedOrder, contactDestination string) (text, link string, err error)
}

// Clock is injected so the submission timestamp (and the date-scoped part of
// the identifier) is controllable in tests.
type Clock func() time.Time

// UseCase drives one order submission: snapshot the cart, allocate an
// identifier, persist the order, compose the outbound message, and publish
// the submitted event. It never mutates the cart; the caller clears it after
// a successful submission, preserving the contact destination.
type UseCase struct {
	sessions  *session.Manager
	store     domorder.Store
	allocator Allocator
	composer  Composer
	publisher domoutbox.Publisher
	clock     Clock
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewUseCase(
	sessions *session.Manager,
	store domorder.Store,
	allocator Allocator,
	composer Composer,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *UseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLog := tel.Logger().With(
		observability.F("service", checkoutService),
	)
	metrics := tel.Metrics()

	return &UseCase{
		sessions:     sessions,
		store:        store,
		allocator:    allocator,
		composer:     composer,
		publisher:    publisher,
		clock:        func() time.Time { return time.Now() },
		tel:          tel,
		log:          baseLog,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

// WithClock overrides the submission clock.
func (uc *UseCase) WithClock(clock Clock) *UseCase {
	if clock != nil {
		uc.clock = clock
	}
	return uc
}

type Input struct {
	SessionID string
}

type Result struct {
	OrderID  string
	Message  string
	Link     string
	Total    string
	Fallback bool
}

// Execute performs the checkout flow for the given session.
func (uc *UseCase) Execute(ctx context.Context, cmd Input) (_ *Result, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseSubmit))

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"SubmitOrder",
		attribute.String("use_case", useCaseSubmit),
		attribute.String("session.id", cmd.SessionID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	var (
		orderID    string
		fallback   bool
		publishErr error
	)

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		if uc.reqCounter != nil {
			uc.reqCounter.Add(1,
				observability.L("use_case", useCaseSubmit),
				observability.L("outcome", outcome),
			)
		}
		if uc.durHistogram != nil {
			uc.durHistogram.Observe(lat,
				observability.L("use_case", useCaseSubmit),
			)
		}

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if fallback {
			fields = append(fields, observability.F("id_fallback", true))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	sess := uc.sessions.Get(cmd.SessionID)
	if sess.CompanyName == "" {
		outcome, statusText = "error", "COMPANY_NOT_SET"
		return nil, ErrNoCompany
	}
	lines := sess.Cart.Lines()
	if len(lines) == 0 {
		outcome, statusText = "error", "CART_EMPTY"
		return nil, ErrEmptyCart
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	// The contact destination must resolve before the message can name it.
	contact, err := uc.sessions.EnsureContact(ctx, cmd.SessionID)
	if err != nil {
		outcome, statusText = "error", "CONTACT_UNRESOLVED"
		return nil, err
	}

	now := uc.clock()
	orderID, fallback = uc.allocator.Allocate(ctx, now)
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Bool("order.id_fallback", fallback),
	)

	entity, err := domorder.NewSubmitted(orderID, sess.CompanyName, sess.City, lines, sess.Cart.Total(), now)
	if err != nil {
		outcome, statusText = "error", "ORDER_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("checkout: construct: %w", err)
	}

	// Persist before composing: never dispatch a message for an order that
	// was not durably recorded. On failure the cart is left intact so the
	// caller can retry; no automatic retry here.
	if err := uc.store.Persist(ctx, entity); err != nil {
		outcome, statusText = "error", "ORDER_PERSIST_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	text, link, err := uc.composer.Compose(entity, contact)
	if err != nil {
		outcome, statusText = "error", "MESSAGE_COMPOSE_FAILED"
		return nil, fmt.Errorf("checkout: compose: %w", err)
	}

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		publishErr = uc.publisher.Publish(pubCtx, domorder.NewOrderSubmittedEvent(entity, link, fallback))
		if publishErr != nil {
			pubOutcome = "error"
			statusText = "EVENT_PUBLISH_FAILED"
		}
		cancel()

		if uc.extCounter != nil {
			uc.extCounter.Add(1,
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishEndpoint),
				observability.L("outcome", pubOutcome),
			)
		}
		if uc.extHistogram != nil {
			uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
				observability.L("peer", publishPeer),
				observability.L("endpoint", publishEndpoint),
			)
		}
	}

	span.AddEvent("order.submitted",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)

	return &Result{
		OrderID:  entity.Identifier,
		Message:  text,
		Link:     link,
		Total:    entity.Total.StringFixed(2),
		Fallback: fallback,
	}, nil
}
