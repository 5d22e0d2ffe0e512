package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-storefront/internal/cart"
	"github.com/xenking/promo-storefront/internal/catalog"
	"github.com/xenking/promo-storefront/internal/domain/product"
	"github.com/xenking/promo-storefront/internal/pricing"
	"github.com/xenking/promo-storefront/internal/quote"
)

// writeJSON encodes a response body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// encodePercent rounds a percentage for display.
func encodePercent(e *jx.Encoder, v decimal.Decimal) {
	encodeDecimal(e, v.Round(2))
}

func encodeOptDecimal(e *jx.Encoder, v *decimal.Decimal) {
	if v == nil {
		e.Null()
		return
	}
	encodeDecimal(e, *v)
}

func encodeProduct(e *jx.Encoder, p product.Product) {
	e.Obj(func(e *jx.Encoder) {
		encodeProductFields(e, p)
	})
}

func encodeProductFields(e *jx.Encoder, p product.Product) {
	e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
	e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
	e.Field("sku", func(e *jx.Encoder) { e.Str(p.SKU) })
	e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
	e.Field("supplier", func(e *jx.Encoder) { e.Str(p.Supplier) })
	e.Field("basePrice", func(e *jx.Encoder) { encodeDecimal(e, p.BasePrice) })
	e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
	e.Field("status", func(e *jx.Encoder) { e.Str(string(p.Status)) })
	e.Field("purchasable", func(e *jx.Encoder) { e.Bool(p.Purchasable()) })
	e.Field("maxQty", func(e *jx.Encoder) { e.Int(pricing.MaxQuantity(p)) })
	e.Field("priceBreaks", func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, pb := range p.PriceBreaks {
				e.Obj(func(e *jx.Encoder) {
					e.Field("minQty", func(e *jx.Encoder) { e.Int(pb.MinQty) })
					e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, pb.Price) })
					e.Field("discount", func(e *jx.Encoder) { encodeOptDecimal(e, pb.Discount) })
				})
			}
		})
	})
}

func encodeProducts(e *jx.Encoder, ps []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for _, p := range ps {
			encodeProduct(e, p)
		}
	})
}

func encodeCriteria(e *jx.Encoder, c catalog.Criteria) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("category", func(e *jx.Encoder) { e.Str(c.Category) })
		e.Field("supplier", func(e *jx.Encoder) { e.Str(c.Supplier) })
		e.Field("q", func(e *jx.Encoder) { e.Str(c.Search) })
		e.Field("minPrice", func(e *jx.Encoder) { encodeOptDecimal(e, c.MinPrice) })
		e.Field("maxPrice", func(e *jx.Encoder) { encodeOptDecimal(e, c.MaxPrice) })
		e.Field("sort", func(e *jx.Encoder) { e.Str(string(c.Sort)) })
	})
}

func encodeFacetList(e *jx.Encoder, fs []catalog.Facet) {
	e.Arr(func(e *jx.Encoder) {
		for _, f := range fs {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(f.ID) })
				e.Field("count", func(e *jx.Encoder) { e.Int(f.Count) })
			})
		}
	})
}

func encodeBreakdown(e *jx.Encoder, b pricing.Breakdown) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("qty", func(e *jx.Encoder) { e.Int(b.Quantity) })
		e.Field("maxQty", func(e *jx.Encoder) { e.Int(b.MaxQuantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { encodeDecimal(e, b.UnitPrice) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, b.Total) })
		e.Field("baseTotal", func(e *jx.Encoder) { encodeDecimal(e, b.BaseTotal) })
		e.Field("discountPercent", func(e *jx.Encoder) { encodePercent(e, b.DiscountPercent) })
		e.Field("activeBreaks", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, i := range b.ActiveBreaks {
					e.Int(i)
				}
			})
		})
	})
}

// encodeTier writes the display badge of the alternate tier model.
func encodeTier(e *jx.Encoder, t pricing.Tier, price pricing.TierPrice) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("minQty", func(e *jx.Encoder) { e.Int(t.MinQty) })
		e.Field("discountPercent", func(e *jx.Encoder) { encodePercent(e, t.Discount.Shift(2)) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, price.Subtotal) })
		e.Field("discountAmount", func(e *jx.Encoder) { encodeDecimal(e, price.DiscountAmount) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, price.Total) })
	})
}

func encodeCart(e *jx.Encoder, lines []cart.Line, count int, subtotal decimal.Decimal) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Int64(l.ProductID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
						e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, l.Price) })
						e.Field("qty", func(e *jx.Encoder) { e.Int(l.Qty) })
						e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, l.Total()) })
					})
				}
			})
		})
		e.Field("count", func(e *jx.Encoder) { e.Int(count) })
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, subtotal) })
	})
}

func encodeSummary(e *jx.Encoder, s quote.Summary) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID.String()) })
		e.Field("company", func(e *jx.Encoder) { e.Str(s.Company) })
		e.Field("contact", func(e *jx.Encoder) { e.Str(s.Contact) })
		e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(s.ItemCount) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, s.Total) })
		e.Field("generatedAt", func(e *jx.Encoder) { e.Str(s.GeneratedAt.UTC().Format(time.RFC3339Nano)) })
	})
}
