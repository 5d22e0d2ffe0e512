package cart

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// EncodeRecord writes lines as the persisted cart record:
// [{"id":1,"name":"...","price":500,"qty":2}, ...].
func EncodeRecord(lines []Line) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, l := range lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(l.ProductID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		e.Num(jx.Num(l.Price.String()))
		e.FieldStart("qty")
		e.Int(l.Qty)
		e.ObjEnd()
	}
	e.ArrEnd()

	return append([]byte(nil), e.Bytes()...)
}

// DecodeRecord parses a persisted cart record. Unknown fields are skipped.
// Anything but whitespace after the array, and lines with a non-positive
// quantity, make the record invalid.
func DecodeRecord(data []byte) ([]Line, error) {
	data = bytes.TrimSpace(data)
	if !jx.Valid(data) {
		return nil, errors.New("cart record is not a single JSON value")
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Array {
		return nil, errors.New("cart record is not an array")
	}

	lines := []Line{}
	seen := make(map[int64]struct{})
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return err
		}
		if _, ok := seen[l.ProductID]; ok {
			return errors.Errorf("duplicate line for product %d", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart record")
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var (
		l                     Line
		hasID, hasPrice, hasQ bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int64()
			if err != nil {
				return errors.Wrap(err, "id")
			}
			l.ProductID, hasID = v, true
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			l.Name = v
		case "price":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			v, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			l.Price, hasPrice = v, true
		case "qty":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "qty")
			}
			l.Qty, hasQ = v, true
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return Line{}, err
	}

	switch {
	case !hasID:
		return Line{}, errors.New("line without id")
	case !hasPrice:
		return Line{}, errors.Errorf("line %d without price", l.ProductID)
	case !hasQ || l.Qty < 1:
		return Line{}, errors.Errorf("line %d has invalid qty", l.ProductID)
	}
	return l, nil
}
