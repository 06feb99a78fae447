package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FlexNumber holds a raw JSON scalar that upstream publishers emit
// inconsistently as either a number or a string ("4.31", 4.31, "-", "UNCH").
// The raw text is kept verbatim; callers coerce explicitly.
type FlexNumber struct {
	raw     string
	present bool
}

// NewFlexNumber builds a FlexNumber from raw text, mainly for tests.
func NewFlexNumber(raw string) FlexNumber {
	return FlexNumber{raw: raw, present: true}
}

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		s = unquoted
	}
	f.raw = s
	f.present = true
	return nil
}

// Present reports whether the field appeared in the payload at all.
func (f FlexNumber) Present() bool {
	return f.present
}

func (f FlexNumber) String() string {
	return f.raw
}

// Decimal coerces the raw text to an exact decimal. Absent fields and
// non-numeric text both fail with ErrValueCoercion.
func (f FlexNumber) Decimal() (decimal.Decimal, error) {
	if !f.present {
		return decimal.Decimal{}, fmt.Errorf("%w: field absent", ErrValueCoercion)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(f.raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrValueCoercion, f.raw)
	}
	return d, nil
}

// Int64 coerces the raw text to an integer, accepting values published as
// floats with a zero fraction.
func (f FlexNumber) Int64() (int64, error) {
	if !f.present {
		return 0, fmt.Errorf("%w: field absent", ErrValueCoercion)
	}
	s := strings.TrimSpace(f.raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrValueCoercion, f.raw)
	}
	return d.IntPart(), nil
}

// IsSentinel reports whether the raw text is one of the publisher's
// "not available" markers.
func (f FlexNumber) IsSentinel() bool {
	switch strings.ToLower(strings.TrimSpace(f.raw)) {
	case "-", "n/a", "none", "":
		return true
	}
	return false
}
