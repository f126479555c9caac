package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units (BRL centavos).
type Cents int64

var hundred = decimal.NewFromInt(100)

// PercentOf returns amount × pct / 100 rounded half-up to the cent.
// Negative amounts round away from zero.
func PercentOf(amount Cents, pct decimal.Decimal) Cents {
	v := decimal.NewFromInt(int64(amount)).Mul(pct).Div(hundred)
	return Cents(v.Round(0).IntPart())
}

// Proportion returns part × num / den rounded half-up. den must be > 0.
func Proportion(part, num, den Cents) Cents {
	if den <= 0 {
		return 0
	}
	v := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(int64(num))).
		Div(decimal.NewFromInt(int64(den)))
	return Cents(v.Round(0).IntPart())
}

// Decimal returns the amount in major units, e.g. 4000 -> 40.00.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

// Float64 is used only at the edge, for provider SDKs that take floats.
func (c Cents) Float64() float64 {
	f, _ := c.Decimal().Float64()
	return f
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// FromDecimal converts major units to cents, rounding half-up.
func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// ParsePercentage validates a commission percentage in [0, 100].
func ParsePercentage(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("percentage %s out of range", d)
	}
	return d, nil
}
