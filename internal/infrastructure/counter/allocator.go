package counter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkassab/orderlink/internal/observability"
	"github.com/mkassab/orderlink/internal/observability/logctx"
)

// Store is the shared counter resource. Increment must be atomic under
// concurrent callers: a server-side read-modify-write that creates the field
// at 1 when absent. A get-then-set emulation will mint duplicate identifiers
// under concurrency and must not be used.
type Store interface {
	Increment(ctx context.Context, key, field string) (int64, error)
}

const (
	dateLayout       = "20060102"
	fallbackPrefix   = "F-"
	componentCounter = "order_id_allocator"
)

// Allocator mints date-scoped order identifiers of the form YYYYMMDD_NN.
// Each day's sequence lives in its own counter field, so the visible number
// resets implicitly the first time a new date is touched. When the counter
// resource is unreachable the allocator degrades to a locally generated
// fallback identifier (F-XXXXXXXX) rather than blocking the submission; the
// fallback flag lets telemetry and tests detect degraded allocations even
// though end users never see the difference.
type Allocator struct {
	store Store
	key   string

	log       observability.Logger
	fallbacks observability.Counter // order_id_fallback_total
}

func NewAllocator(store Store, key string, tel observability.Observability) *Allocator {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Allocator{
		store:     store,
		key:       key,
		log:       tel.Logger().With(observability.F("component", componentCounter)),
		fallbacks: tel.Metrics().Counter(observability.MOrderIDFallback),
	}
}

// Allocate returns the next identifier for the given submission time.
// It never fails; counter trouble is swallowed into the fallback path.
func (a *Allocator) Allocate(ctx context.Context, now time.Time) (string, bool) {
	field := now.Format(dateLayout)

	n, err := a.store.Increment(ctx, a.key, field)
	if err != nil {
		id := fallbackID()
		if a.fallbacks != nil {
			a.fallbacks.Add(1)
		}
		logctx.FromOr(ctx, a.log).Warn("order_id_fallback",
			observability.F("fallback_id", id),
			observability.F("error", err.Error()),
		)
		return id, true
	}

	return fmt.Sprintf("%s_%02d", field, n), false
}

// fallbackID is visually distinct from the canonical YYYYMMDD_NN form.
func fallbackID() string {
	return fallbackPrefix + strings.ToUpper(uuid.NewString()[:8])
}
