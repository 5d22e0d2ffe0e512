package catalog

import "github.com/xenking/promo-storefront/internal/domain/product"

// Facet is a filter option with the number of products carrying it.
type Facet struct {
	ID    string
	Count int
}

// Facets lists the categories and suppliers of the catalog in order of first
// appearance, counted from the data rather than configured by hand.
type Facets struct {
	Total      int
	Categories []Facet
	Suppliers  []Facet
}

// BuildFacets counts categories and suppliers across all.
func BuildFacets(all []product.Product) Facets {
	return Facets{
		Total:      len(all),
		Categories: countBy(all, func(p product.Product) string { return p.Category }),
		Suppliers:  countBy(all, func(p product.Product) string { return p.Supplier }),
	}
}

func countBy(all []product.Product, key func(product.Product) string) []Facet {
	var facets []Facet
	index := make(map[string]int)
	for _, p := range all {
		k := key(p)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(facets)
			index[k] = i
			facets = append(facets, Facet{ID: k})
		}
		facets[i].Count++
	}
	return facets
}
