package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Money is a currency amount in minor units (cents).
type Money int64

const minorUnits = 100

var amountPattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// ParseMoney parses a plain decimal string such as "300", "300.5" or
// "300.50". Signs, exponents, fractions and more than two fractional digits
// are rejected rather than rounded.
func ParseMoney(raw string) (Money, error) {
	raw = strings.TrimSpace(raw)
	if !amountPattern.MatchString(raw) {
		if strings.HasPrefix(raw, "-") {
			return 0, fmt.Errorf("negative amount %q", raw)
		}
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	amount, ok := new(big.Rat).SetString(raw)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}

	cents := new(big.Rat).Mul(amount, big.NewRat(minorUnits, 1))
	if !cents.IsInt() || !cents.Num().IsInt64() {
		return 0, fmt.Errorf("amount %q is out of range", raw)
	}
	return Money(cents.Num().Int64()), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(raw string) Money {
	m, err := ParseMoney(raw)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Mul(n int) Money {
	return m * Money(n)
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorUnits, v%minorUnits)
}

// MarshalJSON renders the amount as a decimal string so clients never see floats.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// accept bare numbers too
		s = string(data)
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m *Money) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*m = Money(v)
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("scan money: %w", err)
		}
		*m = Money(n)
	case nil:
		*m = 0
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
	return nil
}
