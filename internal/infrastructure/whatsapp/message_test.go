package whatsapp_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkassab/orderlink/internal/domain/cart"
	"github.com/mkassab/orderlink/internal/domain/catalog"
	"github.com/mkassab/orderlink/internal/domain/order"
	"github.com/mkassab/orderlink/internal/infrastructure/whatsapp"
)

func sampleOrder(t *testing.T) *order.SubmittedOrder {
	t.Helper()
	lines := []cart.Line{
		{
			Item: catalog.Item{
				ID:            "P1",
				Title:         "Olive Oil",
				QuantityLabel: "1L",
				Price:         decimal.RequireFromString("30.00"),
			},
			Quantity: 2,
		},
		{
			Item: catalog.Item{
				ID:             "P2",
				Title:          "Seed Mix",
				LocalizedTitle: "Mezcla",
				Price:          decimal.RequireFromString("115.20"),
				SoldOut:        true,
			},
			Quantity: 1,
		},
	}
	total := decimal.RequireFromString("175.20")
	at := time.Date(2025, time.September, 1, 10, 30, 0, 0, time.UTC)
	o, err := order.NewSubmitted("20250901_01", "Acme Foods", "Hilltown", lines, total, at)
	require.NoError(t, err)
	return o
}

func TestRenderTextLayout(t *testing.T) {
	text := whatsapp.RenderText(sampleOrder(t))
	lines := strings.Split(text, "\n")

	assert.Equal(t, "*** NEW ORDER ***", lines[0])
	assert.Equal(t, "Order ID: 20250901_01", lines[2])
	assert.Equal(t, "Date: Monday, September 1, 2025", lines[3])
	assert.Equal(t, "Customer: Acme Foods", lines[4])
	assert.Equal(t, "City: Hilltown", lines[5])

	assert.Contains(t, text, "* Olive Oil 1L")
	assert.Contains(t, text, "   Qty: 2   Subtotal: $60.00")
	assert.Contains(t, text, "* Seed Mix (Mezcla) [SOLD OUT]")
	assert.Contains(t, text, "   Qty: 1   Subtotal: $115.20")
	assert.Contains(t, text, "Subtotal: $175.20")
	assert.Equal(t, "Please confirm this order.", lines[len(lines)-1])
}

func TestRenderTextDeterministic(t *testing.T) {
	o := sampleOrder(t)
	assert.Equal(t, whatsapp.RenderText(o), whatsapp.RenderText(o))
}

func TestRenderTextCityPlaceholder(t *testing.T) {
	o := sampleOrder(t)
	o.City = ""
	assert.Contains(t, whatsapp.RenderText(o), "City: N/A")
}

func TestNormalizeDestination(t *testing.T) {
	assert.Equal(t, "15551234567", whatsapp.NormalizeDestination("+1 (555) 123-4567"))
	assert.Equal(t, "", whatsapp.NormalizeDestination("call me"))
}

func TestEncodeText(t *testing.T) {
	got := whatsapp.EncodeText("a b\nc&d")
	assert.Equal(t, "a%20b%0Ac%26d", got)
	assert.NotContains(t, got, "+")
}

func TestCompose(t *testing.T) {
	c := whatsapp.NewComposer()

	text, link, err := c.Compose(sampleOrder(t), "+1 (555) 123-4567")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://wa.me/15551234567?text="))
	assert.Equal(t, "https://wa.me/15551234567?text="+whatsapp.EncodeText(text), link)

	_, _, err = c.Compose(sampleOrder(t), "no digits here")
	assert.ErrorIs(t, err, whatsapp.ErrNoDestination)
}
