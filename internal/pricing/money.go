package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units (euro cents).
type Money = int64

// FlatShippingFee is charged when the whole cart holds exactly one unit.
const FlatShippingFee Money = 200

// MaxAmount is the largest catalog or item amount accepted, in cents (1 000 000 000.00).
// Larger values decode as absent.
const MaxAmount Money = 100_000_000_000

// MaxMoney is the ceiling of every computed total; arithmetic saturates there
// instead of wrapping.
const MaxMoney Money = math.MaxInt64

var hundred = decimal.NewFromInt(100)

// Amount is a decimal value decoded leniently from a JSON number or numeric string.
// Anything else (null, booleans, objects, garbage strings) decodes as an invalid Amount.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount builds a valid Amount from a euro value expressed as a string, e.g. "17.50".
func NewAmount(value string) Amount {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Amount{}
	}
	return Amount{Value: d, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		raw = s
	}
	*a = NewAmount(raw)
	return nil
}

// MarshalJSON renders the decimal value or null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// Cents converts a euro amount to cents, rounding half away from zero.
// Negative values clamp to zero; values above MaxAmount are rejected.
func (a Amount) Cents() (Money, bool) {
	if !a.Valid {
		return 0, false
	}
	scaled := a.Value.Mul(hundred).Round(0)
	if scaled.Sign() < 0 {
		return 0, true
	}
	cents := scaled.BigInt()
	if !cents.IsInt64() || cents.Int64() > MaxAmount {
		return 0, false
	}
	return cents.Int64(), true
}

// AddMoney adds two non-negative amounts, saturating at MaxMoney.
func AddMoney(a, b Money) Money {
	if a > MaxMoney-b {
		return MaxMoney
	}
	return a + b
}

// MulQty multiplies a non-negative unit amount by a count, saturating at MaxMoney.
func MulQty(unit Money, n int) Money {
	if unit <= 0 || n <= 0 {
		return 0
	}
	if unit > MaxMoney/Money(n) {
		return MaxMoney
	}
	return unit * Money(n)
}

// MoneyPtr returns the amount in cents, or nil when absent.
func (a Amount) MoneyPtr() *Money {
	cents, ok := a.Cents()
	if !ok {
		return nil
	}
	return &cents
}

// Int reports the amount as an integer when it has no fractional part and fits
// in an int64.
func (a Amount) Int() (int64, bool) {
	if !a.Valid || !a.Value.Equal(a.Value.Truncate(0)) {
		return 0, false
	}
	n := a.Value.BigInt()
	if !n.IsInt64() {
		return 0, false
	}
	return n.Int64(), true
}

// Text is a string decoded leniently: JSON strings keep their value, numbers keep
// their literal form and everything else becomes empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	switch {
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			*t = Text(s)
		}
	case trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9'):
		if _, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			*t = Text(trimmed)
		}
	}
	return nil
}

// String returns the trimmed value.
func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// FormatMoney renders cents as a fixed two-decimal euro string.
func FormatMoney(m Money) string {
	return decimal.New(m, -2).StringFixed(2)
}

func cloneMoney(m *Money) *Money {
	if m == nil {
		return nil
	}
	v := *m
	return &v
}
