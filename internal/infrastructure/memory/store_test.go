package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkassab/orderlink/internal/domain/cart"
	"github.com/mkassab/orderlink/internal/domain/catalog"
	"github.com/mkassab/orderlink/internal/domain/order"
	"github.com/mkassab/orderlink/internal/infrastructure/memory"
)

func submitted(t *testing.T, id string) *order.SubmittedOrder {
	t.Helper()
	lines := []cart.Line{{Item: catalog.Item{ID: "P1", Price: decimal.New(10, 0)}, Quantity: 2}}
	o, err := order.NewSubmitted(id, "Acme", "Hilltown", lines, decimal.New(20, 0), time.Now())
	require.NoError(t, err)
	return o
}

func TestOrderStorePersistAndGet(t *testing.T) {
	s := memory.NewOrderStore()
	ctx := context.Background()

	o := submitted(t, "20250901_01")
	require.NoError(t, s.Persist(ctx, o))

	got, err := s.Get(ctx, "20250901_01")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, order.StatusNew, got.Status)

	// stored record is isolated from the caller's copy
	got.Lines[0].Quantity = 99
	again, err := s.Get(ctx, "20250901_01")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestOrderStoreConflictAndNotFound(t *testing.T) {
	s := memory.NewOrderStore()
	ctx := context.Background()

	require.NoError(t, s.Persist(ctx, submitted(t, "20250901_01")))
	assert.ErrorIs(t, s.Persist(ctx, submitted(t, "20250901_01")), order.ErrConflict)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestCounterStoreIncrementsPerField(t *testing.T) {
	s := memory.NewCounterStore()
	ctx := context.Background()

	n, err := s.Increment(ctx, "order_counters", "20250901")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.Increment(ctx, "order_counters", "20250901")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// a new field starts its own sequence
	n, err = s.Increment(ctx, "order_counters", "20250902")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSettingsSourceNotConfigured(t *testing.T) {
	empty := memory.NewSettingsSource("", "")
	_, err := empty.Fetch(context.Background())
	assert.Error(t, err)

	src := memory.NewSettingsSource("1234", "555")
	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1234", got.AccessCode)
}
