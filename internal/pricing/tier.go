package pricing

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/promo-storefront/internal/domain/product"
)

// Tier expresses a volume break as a fractional discount (0.1 = 10%).
type Tier struct {
	MinQty   int
	Discount decimal.Decimal
}

// TierPrice is the result of CalcPrice.
type TierPrice struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Discount       decimal.Decimal
}

// BestTier returns the applicable tier with the highest discount. Ties keep
// the earlier tier. The zero Tier is returned when nothing applies.
//
// This is not the rule BestUnitPrice uses; see the package doc.
func BestTier(quantity int, tiers []Tier) Tier {
	applicable := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if quantity >= t.MinQty {
			applicable = append(applicable, t)
		}
	}
	if len(applicable) == 0 {
		return Tier{Discount: decimal.Zero}
	}
	slices.SortStableFunc(applicable, func(a, b Tier) int {
		return b.Discount.Cmp(a.Discount)
	})
	return applicable[0]
}

// CalcPrice applies the best tier for quantity to unit * quantity.
func CalcPrice(unit decimal.Decimal, quantity int, tiers []Tier) TierPrice {
	discount := BestTier(quantity, tiers).Discount
	subtotal := unit.Mul(decimal.NewFromInt(int64(quantity)))
	amount := subtotal.Mul(discount)
	return TierPrice{
		Subtotal:       subtotal,
		DiscountAmount: amount,
		Total:          subtotal.Sub(amount),
		Discount:       discount,
	}
}

// TiersFromBreaks converts the display discount percentages of a product's
// price breaks into tiers. Breaks without a display discount are skipped.
func TiersFromBreaks(breaks []product.PriceBreak) []Tier {
	tiers := make([]Tier, 0, len(breaks))
	for _, pb := range breaks {
		if pb.Discount == nil {
			continue
		}
		tiers = append(tiers, Tier{
			MinQty:   pb.MinQty,
			Discount: pb.Discount.Div(hundred),
		})
	}
	return tiers
}
