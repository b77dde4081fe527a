package models

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a monetary amount with two fraction digits.
// It is stored as Decimal128 in MongoDB and as a string in JSON.
type Money struct {
	decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{decimal.Zero}

// NewMoney rounds f to cents.
func NewMoney(f float64) Money {
	return Money{decimal.NewFromFloat(f).Round(2)}
}

// ParseMoney parses a decimal string such as "12.99".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	return Money{d.Round(2)}, nil
}

func (m Money) Add(o Money) Money {
	return Money{m.Decimal.Add(o.Decimal)}
}

// Times multiplies the amount by an item quantity.
func (m Money) Times(n int) Money {
	return Money{m.Decimal.Mul(decimal.NewFromInt(int64(n)))}
}

func (m Money) Equal(o Money) bool {
	return m.Decimal.Equal(o.Decimal)
}

func (m Money) String() string {
	return m.StringFixed(2)
}

// MarshalJSON always writes two fraction digits, e.g. "12.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.StringFixed(2))), nil
}

// MarshalBSONValue encodes the amount as Decimal128.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.StringFixed(2))
	if err != nil {
		return 0, nil, fmt.Errorf("encode money %s: %w", m.String(), err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue accepts Decimal128, double and string encodings.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeDecimal128:
		d, err := decimal.NewFromString(raw.Decimal128().String())
		if err != nil {
			return fmt.Errorf("decode money: %w", err)
		}
		m.Decimal = d
	case bson.TypeDouble:
		m.Decimal = decimal.NewFromFloat(raw.Double())
	case bson.TypeString:
		parsed, err := ParseMoney(raw.StringValue())
		if err != nil {
			return err
		}
		*m = parsed
	default:
		return fmt.Errorf("decode money: unsupported bson type %s", t)
	}
	return nil
}
