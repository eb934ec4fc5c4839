package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Percent is a percentage in hundredths of a percent: 100% is 10000.
type Percent int64

// Whole is one hundred percent.
const Whole Percent = 100 * 100

// PercentFromDecimal converts d (e.g. 33.33) to a Percent. Values with more
// than two fractional digits are rejected.
func PercentFromDecimal(d decimal.Decimal) (Percent, error) {
	units, err := toUnits(d)
	return Percent(units), err
}

// ParsePercent reads a decimal string such as "33.33".
func ParsePercent(s string) (Percent, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return PercentFromDecimal(d)
}

// Decimal returns the exact decimal value of p.
func (p Percent) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -Scale)
}

// String formats p with at most two fractional digits.
func (p Percent) String() string {
	return p.Decimal().String()
}

// MarshalJSON writes p as a JSON number.
func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (p *Percent) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	v, err := ParsePercent(strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
