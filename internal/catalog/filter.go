// Package catalog holds the static product catalog and the filter-and-sort
// pipeline that produces the visible subset for a set of criteria.
package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/textnorm"
)

// AllCategories disables the category stage.
const AllCategories = "all"

// SortKey selects the ordering of the visible products.
type SortKey string

const (
	// SortByName orders by name, ascending, using Spanish collation.
	SortByName SortKey = "name"
	// SortByPrice orders by base price, ascending.
	SortByPrice SortKey = "price"
	// SortByStock orders by stock, descending.
	SortByStock SortKey = "stock"
)

// collationTag is the locale used for name ordering.
var collationTag = language.Spanish

// Criteria bundles every user-selectable filter. The zero value keeps all
// products in catalog order.
type Criteria struct {
	// Category is AllCategories (or empty) to keep everything, else a tag.
	Category string
	// Supplier is empty to keep everything, else a tag.
	Supplier string
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     SortKey
}

// DefaultCriteria is the "clear filters" state; only the sort key survives.
func DefaultCriteria(sort SortKey) Criteria {
	return Criteria{Category: AllCategories, Sort: sort}
}

// ParseSortKey maps user input onto a SortKey. Unknown values fall back to
// SortByName.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortByName, SortByPrice, SortByStock:
		return k
	default:
		return SortByName
	}
}

// Filter returns the products of all that satisfy c, in the order c.Sort
// requests. It never mutates all and the result only holds elements of all.
// Stages run in order: category, supplier, search, price range, sort.
func Filter(all []product.Product, c Criteria) []product.Product {
	out := make([]product.Product, 0, len(all))
	query := textnorm.Normalize(c.Search)

	for _, p := range all {
		if c.Category != "" && c.Category != AllCategories && p.Category != c.Category {
			continue
		}
		if c.Supplier != "" && p.Supplier != c.Supplier {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if c.MinPrice != nil && p.BasePrice.LessThan(*c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && p.BasePrice.GreaterThan(*c.MaxPrice) {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, c.Sort)
	return out
}

func matchesQuery(p product.Product, query string) bool {
	return strings.Contains(textnorm.Normalize(p.Name), query) ||
		strings.Contains(textnorm.Normalize(p.SKU), query)
}

func sortProducts(ps []product.Product, key SortKey) {
	switch key {
	case SortByName:
		// Collator is not safe for concurrent use.
		col := collate.New(collationTag)
		slices.SortStableFunc(ps, func(a, b product.Product) int {
			return col.CompareString(a.Name, b.Name)
		})
	case SortByPrice:
		slices.SortStableFunc(ps, func(a, b product.Product) int {
			return a.BasePrice.Cmp(b.BasePrice)
		})
	case SortByStock:
		slices.SortStableFunc(ps, func(a, b product.Product) int {
			return b.Stock - a.Stock
		})
	}
}
