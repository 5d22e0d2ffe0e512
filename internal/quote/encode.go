package quote

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes doc as an indented JSON document with the field order
// company, contact, email, notes, items, total, generatedAt.
func Encode(doc Document) []byte {
	e := &jx.Encoder{}
	e.SetIdent(2)

	e.Obj(func(e *jx.Encoder) {
		e.Field("company", func(e *jx.Encoder) { e.Str(doc.Requester.Company) })
		e.Field("contact", func(e *jx.Encoder) { e.Str(doc.Requester.Contact) })
		e.Field("email", func(e *jx.Encoder) { e.Str(doc.Requester.Email) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(doc.Requester.Notes) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range doc.Items {
					encodeItem(e, it)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { encodeNum(e, doc.Total) })
		e.Field("generatedAt", func(e *jx.Encoder) {
			e.Str(doc.GeneratedAt.UTC().Format(time.RFC3339Nano))
		})
	})
	return e.Bytes()
}

func encodeItem(e *jx.Encoder, it Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(it.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(it.Name) })
		e.Field("sku", func(e *jx.Encoder) { encodeOptStr(e, it.SKU) })
		e.Field("supplier", func(e *jx.Encoder) { encodeOptStr(e, it.Supplier) })
		e.Field("qty", func(e *jx.Encoder) { e.Int(it.Qty) })
		e.Field("unit", func(e *jx.Encoder) { encodeNum(e, it.Unit) })
		e.Field("total", func(e *jx.Encoder) { encodeNum(e, it.Total) })
	})
}

func encodeOptStr(e *jx.Encoder, s *string) {
	if s == nil {
		e.Null()
		return
	}
	e.Str(*s)
}

func encodeNum(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}
