// Package money provides the fixed-point types used for every monetary value.
//
// All arithmetic happens on integer minor units (cents). Decimal values only
// appear at the serialization boundary, where they are parsed and formatted
// with shopspring/decimal.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of the minor unit.
const Scale = 2

var (
	// ErrInvalidAmount is returned for values that are not decimal numbers.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTooPrecise is returned for values with more than two fractional digits.
	ErrTooPrecise = errors.New("amount has more than two fractional digits")
	// ErrOverflow is returned for values that do not fit the minor-unit range.
	ErrOverflow = errors.New("amount out of range")

	maxUnits = decimal.NewFromInt(math.MaxInt64)
)

// Cents is an amount of money in minor units.
type Cents int64

// MaxAmount is the largest amount a single expense may carry (10 billion
// units). It keeps per-group and global sums far from the int64 limit.
const MaxAmount Cents = 1_000_000_000_000

// FromDecimal converts d to cents. It fails instead of rounding when d has
// more than two fractional digits.
func FromDecimal(d decimal.Decimal) (Cents, error) {
	units, err := toUnits(d)
	return Cents(units), err
}

// Parse reads a decimal string such as "12.30" or "7".
func Parse(s string) (Cents, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return FromDecimal(d)
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(s string) Cents {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Decimal returns the exact decimal value of c.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -Scale)
}

// String formats c with exactly two fractional digits.
func (c Cents) String() string {
	return c.Decimal().StringFixed(Scale)
}

// Abs returns the magnitude of c.
func (c Cents) Abs() Cents {
	if c < 0 {
		return -c
	}
	return c
}

// MarshalJSON writes c as a JSON number with two fractional digits.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (c *Cents) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	v, err := Parse(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// MulPercent returns amount * p / 100 rounded half-to-even to the cent.
func MulPercent(amount Cents, p Percent) Cents {
	d := amount.Decimal().Mul(p.Decimal()).Shift(-2).RoundBank(Scale)
	return Cents(d.Shift(Scale).IntPart())
}

// DivRound divides num by den and rounds the quotient half-to-even.
// den must not be zero.
func DivRound(num, den int64) int64 {
	neg := (num < 0) != (den < 0)
	if num < 0 {
		num = -num
	}
	if den < 0 {
		den = -den
	}
	q, r := num/den, num%den
	switch {
	case r > den-r:
		q++
	case r == den-r && q%2 == 1:
		q++
	}
	if neg {
		return -q
	}
	return q
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

func toUnits(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, d.String())
	}
	if shifted.Abs().GreaterThan(maxUnits) {
		return 0, fmt.Errorf("%w: %s", ErrOverflow, d.String())
	}
	return shifted.IntPart(), nil
}
