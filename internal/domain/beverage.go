package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is exchanged as JSON numbers, matching the storefront.
	decimal.MarshalJSONWithoutQuotes = true
}

type Beverage struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
	IsAvailable bool            `json:"isAvailable"`
	CreatedDate time.Time       `json:"createdDate"`
}

// EnforceAvailability keeps a sold-out beverage unavailable. A beverage with stock may
// still be switched off by hand, so the opposite direction is never forced.
func (b *Beverage) EnforceAvailability() {
	if b.Stock == 0 {
		b.IsAvailable = false
	}
}

// Take removes qty units from stock. Callers check Stock >= qty first.
func (b *Beverage) Take(qty int) {
	b.Stock -= qty
	b.EnforceAvailability()
}

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type BrandSummary struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	TotalStock int    `json:"totalStock"`
}

type BeverageSort string

const (
	SortByName  BeverageSort = "name"
	SortByPrice BeverageSort = "price"
	SortByDate  BeverageSort = "date"
)

// BeverageFilter narrows a catalog listing. Zero values mean "no constraint".
type BeverageFilter struct {
	Category   string
	Type       string
	Brand      string
	Size       string
	Keyword    string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	SortBy     BeverageSort
	Descending bool
}
