package session

import (
	"github.com/mkassab/orderlink/internal/domain/cart"
)

// Field names a resettable piece of session state for Clear's preserve set.
type Field string

const (
	FieldCompanyName        Field = "company_name"
	FieldCity               Field = "city"
	FieldContactDestination Field = "contact_destination"
)

// Context is the order state of one client session: identity fields stamped
// after the access gate, the lazily resolved contact destination, and the
// cart. It has exactly one writer (the active session); the engine holds no
// timers and performs no I/O, so every mutation is a plain state transition.
type Context struct {
	CompanyName        string
	City               string
	ContactDestination string
	Cart               *cart.Cart
}

func NewContext() *Context {
	return &Context{Cart: cart.New()}
}

// Clear empties the cart and resets identity fields to their initial values,
// except the fields named in preserve. After a successful submission callers
// preserve FieldContactDestination so a fresh order reuses known settings.
func (c *Context) Clear(preserve ...Field) {
	keep := make(map[Field]bool, len(preserve))
	for _, f := range preserve {
		keep[f] = true
	}
	if !keep[FieldCompanyName] {
		c.CompanyName = ""
	}
	if !keep[FieldCity] {
		c.City = ""
	}
	if !keep[FieldContactDestination] {
		c.ContactDestination = ""
	}
	c.Cart.Reset()
}
