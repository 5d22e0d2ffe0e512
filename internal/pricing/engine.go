// Package pricing computes quantity-tiered unit prices, line totals and
// discount percentages for catalog products.
//
// Two selection rules live here and are intentionally kept apart:
// BestUnitPrice picks the cheapest absolute price among every break the
// quantity qualifies for, while BestTier (tier.go) picks the applicable tier
// with the largest fractional discount.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-storefront/internal/domain/product"
)

var hundred = decimal.NewFromInt(100)

// BestUnitPrice returns the unit price for quantity. Among the breaks whose
// MinQty is at most quantity it returns the minimum Price, not the price of
// the break with the highest threshold. With no applicable break the base
// price is returned. The result never exceeds the base price.
func BestUnitPrice(p product.Product, quantity int) decimal.Decimal {
	best := p.BasePrice
	for _, pb := range p.PriceBreaks {
		if pb.MinQty <= quantity && pb.Price.LessThan(best) {
			best = pb.Price
		}
	}
	return best
}

// CalculateTotal returns BestUnitPrice * quantity. Non-positive quantities
// total zero.
func CalculateTotal(p product.Product, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	return BestUnitPrice(p, quantity).Mul(decimal.NewFromInt(int64(quantity)))
}

// DiscountPercent returns how much cheaper the tiered total is than the base
// total, as a percentage. It returns zero when the base total is not positive.
func DiscountPercent(p product.Product, quantity int) decimal.Decimal {
	baseTotal := p.BasePrice.Mul(decimal.NewFromInt(int64(quantity)))
	if !baseTotal.IsPositive() {
		return decimal.Zero
	}
	discounted := CalculateTotal(p, quantity)
	return baseTotal.Sub(discounted).Div(baseTotal).Mul(hundred)
}

// Breakdown is the calculator view of one product at one quantity.
type Breakdown struct {
	Quantity        int
	MaxQuantity     int
	UnitPrice       decimal.Decimal
	Total           decimal.Decimal
	BaseTotal       decimal.Decimal
	DiscountPercent decimal.Decimal
	// ActiveBreaks holds indices into PriceBreaks whose threshold is met.
	ActiveBreaks []int
}

// Quote clamps quantity into the purchasable range and prices it.
func Quote(p product.Product, quantity int) Breakdown {
	q := ClampQuantity(p, quantity)

	active := make([]int, 0, len(p.PriceBreaks))
	for i, pb := range p.PriceBreaks {
		if q >= pb.MinQty {
			active = append(active, i)
		}
	}

	return Breakdown{
		Quantity:        q,
		MaxQuantity:     MaxQuantity(p),
		UnitPrice:       BestUnitPrice(p, q),
		Total:           CalculateTotal(p, q),
		BaseTotal:       p.BasePrice.Mul(decimal.NewFromInt(int64(q))),
		DiscountPercent: DiscountPercent(p, q),
		ActiveBreaks:    active,
	}
}
