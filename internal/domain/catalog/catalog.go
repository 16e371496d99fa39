package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrUnavailable = errors.New("catalog: source unavailable")

// Item is one purchasable catalog entry. Immutable once fetched for a session.
type Item struct {
	ID             string
	Title          string
	LocalizedTitle string
	QuantityLabel  string
	CompanyName    string
	Price          decimal.Decimal
	Images         []string
	SoldOut        bool
}

// Source supplies the catalog. On transport failure implementations return an
// empty list together with the error; callers log and do not retry.
type Source interface {
	FetchAll(ctx context.Context) ([]Item, error)
}
