package order

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkassab/orderlink/internal/domain/cart"
)

var (
	ErrNotFound  = errors.New("order: not found")
	ErrConflict  = errors.New("order: already exists")
	ErrEmptyCart = errors.New("order: cart is empty")
	ErrNoID      = errors.New("order: identifier is required")
)

// StatusNew is stamped on every order at submission time.
const StatusNew = "New"

// SubmittedOrder is the immutable record of one successful checkout. It is
// created exactly once and never mutated afterwards.
type SubmittedOrder struct {
	Identifier  string
	CompanyName string
	City        string
	Lines       []cart.Line
	Total       decimal.Decimal
	Status      string
	SubmittedAt time.Time
}

// NewSubmitted snapshots the given lines into a SubmittedOrder. The lines
// slice is copied so later cart mutations cannot reach the record.
func NewSubmitted(identifier, companyName, city string, lines []cart.Line, total decimal.Decimal, submittedAt time.Time) (*SubmittedOrder, error) {
	if identifier == "" {
		return nil, ErrNoID
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	snapshot := make([]cart.Line, len(lines))
	copy(snapshot, lines)
	return &SubmittedOrder{
		Identifier:  identifier,
		CompanyName: companyName,
		City:        city,
		Lines:       snapshot,
		Total:       total,
		Status:      StatusNew,
		SubmittedAt: submittedAt,
	}, nil
}

// Clone returns a deep enough copy for store implementations that hand
// records across goroutine boundaries.
func (o *SubmittedOrder) Clone() *SubmittedOrder {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = make([]cart.Line, len(o.Lines))
	copy(clone.Lines, o.Lines)
	return &clone
}

// Store persists submitted orders. Persist must fail rather than overwrite:
// a duplicate identifier is ErrConflict.
type Store interface {
	Persist(ctx context.Context, o *SubmittedOrder) error
	Get(ctx context.Context, identifier string) (*SubmittedOrder, error)
}
