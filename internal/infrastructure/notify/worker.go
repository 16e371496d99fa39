package notify

import (
	"context"
	"time"

	domorder "github.com/mkassab/orderlink/internal/domain/order"
	domoutbox "github.com/mkassab/orderlink/internal/domain/outbox"
	"github.com/mkassab/orderlink/internal/infrastructure/whatsapp"
	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	workerService = "notify-worker"
	useCaseNotify = "notify.order_submitted"
	spanPrefix    = "UC."
)

// Worker listens for submitted orders and hands their deep links to the
// dispatcher. Dispatch is fire-and-forget: nothing downstream is awaited and
// no delivery state is tracked.
type Worker struct {
	subscriber domoutbox.Subscriber
	dispatcher whatsapp.Dispatcher
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func New(
	subscriber domoutbox.Subscriber,
	dispatcher whatsapp.Dispatcher,
	tel observability.Observability,
) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Worker{
		subscriber:   subscriber,
		dispatcher:   dispatcher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", workerService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (w *Worker) Start() {
	if w.subscriber == nil || w.dispatcher == nil {
		return
	}
	w.subscriber.Subscribe(domorder.OrderSubmittedEvent{}.EventName(), w.handleOrderSubmitted)
}

func (w *Worker) handleOrderSubmitted(ctx context.Context, e domoutbox.Event) error {
	evt, ok := e.(domorder.OrderSubmittedEvent)
	if !ok {
		w.count("ignored")
		return nil
	}

	ctx, span := w.tel.Tracer().Start(ctx, spanPrefix+"DispatchOrderLink",
		attribute.String("use_case", useCaseNotify),
		attribute.String("order.id", evt.Identifier),
	)
	start := time.Now()

	logger := logctx.FromOr(ctx, w.log).With(
		observability.F("use_case", useCaseNotify),
		observability.F("order_id", evt.Identifier),
	)
	ctx = logctx.With(ctx, logger)

	w.dispatcher.Open(ctx, evt.Link)

	lat := time.Since(start).Seconds()
	w.count("success")
	if w.durHistogram != nil {
		w.durHistogram.Observe(lat,
			observability.L("use_case", useCaseNotify),
		)
	}

	fields := []observability.Field{
		observability.F("outcome", "success"),
		observability.F("latency_seconds", lat),
		observability.F("customer", evt.CompanyName),
		observability.F("total", evt.Total),
	}
	if evt.Fallback {
		fields = append(fields, observability.F("id_fallback", true))
	}
	logger.Info("use_case_done", fields...)

	span.SetStatus(codes.Ok, "OK")
	span.End()
	return nil
}

func (w *Worker) count(outcome string) {
	if w.reqCounter != nil {
		w.reqCounter.Add(1,
			observability.L("use_case", useCaseNotify),
			observability.L("outcome", outcome),
		)
	}
}
