package cart

import (
	"github.com/shopspring/decimal"

	"github.com/mkassab/orderlink/internal/domain/catalog"
)

// MaxQuantity caps a single line. Requests beyond it are capped, not rejected.
const MaxQuantity = 99

// Line is one catalog item plus the quantity selected for the current order.
type Line struct {
	catalog.Item
	Quantity int
}

// Subtotal returns price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the selected lines keyed by item id. Display order is first
// insertion order and stays stable across quantity updates. A line with a
// non-positive quantity is never stored; it is removed instead.
//
// Cart is not safe for concurrent use. A session has exactly one writer.
type Cart struct {
	lines map[string]*Line
	order []string
}

func New() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Upsert adds the item with the given quantity, replaces the quantity of an
// existing line, or removes the line when the clamped quantity is zero. It is
// a total function: out-of-range quantities are clamped to [0, MaxQuantity]
// before the zero check.
func (c *Cart) Upsert(item catalog.Item, quantity int) {
	q := clamp(quantity)
	if q <= 0 {
		c.remove(item.ID)
		return
	}
	if line, ok := c.lines[item.ID]; ok {
		line.Quantity = q
		return
	}
	c.lines[item.ID] = &Line{Item: item, Quantity: q}
	c.order = append(c.order, item.ID)
}

// SetQuantity applies Upsert's removal/replace semantics by id alone. An
// unknown id with a positive quantity is a silent no-op; an unknown id with a
// zero quantity is already absent, which is the requested state.
func (c *Cart) SetQuantity(itemID string, quantity int) {
	q := clamp(quantity)
	if q <= 0 {
		c.remove(itemID)
		return
	}
	if line, ok := c.lines[itemID]; ok {
		line.Quantity = q
	}
}

// Quantity returns the selected quantity for the item, zero when absent.
func (c *Cart) Quantity(itemID string) int {
	if line, ok := c.lines[itemID]; ok {
		return line.Quantity
	}
	return 0
}

// Len returns the number of lines.
func (c *Cart) Len() int { return len(c.lines) }

// Lines returns a snapshot of the cart in display order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		if line, ok := c.lines[id]; ok {
			out = append(out, *line)
		}
	}
	return out
}

// Total recomputes the charge as the sum of line subtotals. It is never
// cached across mutations.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		if line, ok := c.lines[id]; ok {
			total = total.Add(line.Subtotal())
		}
	}
	return total
}

// Reset empties the cart.
func (c *Cart) Reset() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

func (c *Cart) remove(itemID string) {
	if _, ok := c.lines[itemID]; !ok {
		return
	}
	delete(c.lines, itemID)
	for i, id := range c.order {
		if id == itemID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func clamp(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
