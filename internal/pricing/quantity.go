package pricing

import (
	"math"
	"strings"

	"github.com/xenking/promo-storefront/internal/domain/product"
)

// QuantityCeiling caps any single request regardless of stock.
const QuantityCeiling = 9999

// MaxQuantity returns min(QuantityCeiling, stock). It is zero for products
// without stock.
func MaxQuantity(p product.Product) int {
	return max(0, min(QuantityCeiling, p.Stock))
}

// ClampQuantity corrects quantity into [1, MaxQuantity(p)]. The lower bound
// wins when the product has no stock.
func ClampQuantity(p product.Product, quantity int) int {
	return max(1, min(quantity, MaxQuantity(p)))
}

// ParseQuantity coerces raw user input to a quantity. Like a browser number
// field read with parseInt, it takes the leading digits after an optional
// sign and ignores the rest, so "12abc" is 12 and "3.9" is 3. Input without
// leading digits, and non-positive values, become 1. Values too large for int
// saturate at math.MaxInt and are left for ClampQuantity to cap.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		d := int(s[digits] - '0')
		if n > (math.MaxInt-d)/10 {
			n = math.MaxInt
			continue
		}
		n = n*10 + d
	}
	if digits == 0 || neg || n < 1 {
		return 1
	}
	return n
}
