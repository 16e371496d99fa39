package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/mkassab/orderlink/internal/domain/catalog"
)

// CatalogSource serves a fixed item list loaded at startup. It stands in for
// the external catalog backend; items are immutable for the process lifetime.
type CatalogSource struct {
	items []catalog.Item
}

func NewCatalogSource(items ...catalog.Item) *CatalogSource {
	return &CatalogSource{items: items}
}

type seedItem struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	LocalizedTitle string   `json:"localized_title"`
	QuantityLabel  string   `json:"quantity_label"`
	CompanyName    string   `json:"company_name"`
	Price          string   `json:"price"`
	Images         []string `json:"images"`
	SoldOut        bool     `json:"sold_out"`
}

// LoadCatalogSource reads a JSON seed file of items.
func LoadCatalogSource(path string) (*CatalogSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog seed: read %s: %w", path, err)
	}
	var seeds []seedItem
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return nil, fmt.Errorf("catalog seed: parse %s: %w", path, err)
	}

	items := make([]catalog.Item, 0, len(seeds))
	for _, s := range seeds {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog seed: item %s: price %q: %w", s.ID, s.Price, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("catalog seed: item %s: price must not be negative", s.ID)
		}
		items = append(items, catalog.Item{
			ID:             s.ID,
			Title:          s.Title,
			LocalizedTitle: s.LocalizedTitle,
			QuantityLabel:  s.QuantityLabel,
			CompanyName:    s.CompanyName,
			Price:          price,
			Images:         s.Images,
			SoldOut:        s.SoldOut,
		})
	}
	return NewCatalogSource(items...), nil
}

func (s *CatalogSource) FetchAll(ctx context.Context) ([]catalog.Item, error) {
	_ = ctx
	out := make([]catalog.Item, len(s.items))
	copy(out, s.items)
	return out, nil
}
