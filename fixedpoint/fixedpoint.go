/*
Package fixedpoint provides an exact fixed-point monetary value.

PURPOSE:
  Every monetary quantity in the engine is an Amount: a signed value stored
  as an integer count of 2^-14 currency units inside an int64. That leaves
  50 bits (including sign) for the whole-currency part. Arithmetic is plain
  integer arithmetic, so adding and subtracting amounts never drifts the way
  binary floating point does.

KEY PROPERTIES:
  - Exact: Add/Sub/Cmp introduce no rounding, ever.
  - Bounded: results that leave the int64 range fail with ErrOverflow.
    Currency values are never silently wrapped.
  - Parsing is the ONLY place rounding happens: decimal strings with more
    precision than 2^-14 are rounded to the nearest representable unit,
    ties away from zero.

FORMATTING:
  String renders the shortest decimal string that parses back to the same
  raw value. A whole amount prints with no fraction ("2", not "2.0000"),
  and "1.9999" survives a parse/format round trip unchanged.

SEE ALSO:
  - engine/ledger.go: Consumes Amount for all balance arithmetic
  - fixedpoint_test.go: Cross-checks arithmetic against shopspring/decimal
*/
package fixedpoint

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// REPRESENTATION
// =============================================================================

// FracBits is the number of fractional bits. One representable unit is
// 2^-FracBits of a whole currency unit.
const FracBits = 14

// unitsPerWhole is the raw value of 1.0.
const unitsPerWhole = int64(1) << FracBits // 16384

// maxWhole is the largest whole-currency magnitude whose raw value still
// fits: 2^49 - 1 whole units (50 integer bits including sign).
const maxWhole = (int64(1) << (63 - FracBits)) - 1

// fracScale is 5^14. Multiplying the fractional raw part by it yields the
// exact 14-digit decimal expansion (10^14 / 2^14 = 5^14).
const fracScale = int64(6103515625)

// Amount is an immutable fixed-point monetary value.
// The zero value is 0.
type Amount struct {
	raw int64
}

// Zero is the additive identity.
var Zero = Amount{}

// ErrOverflow is returned when an operation leaves the representable range.
// Overflow is a fatal condition for a processing run: it means the feed's
// numeric range assumptions are violated and results can no longer be trusted.
var ErrOverflow = errors.New("fixed-point overflow")

// ParseError describes a decimal string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// FromInt returns the Amount representing a whole number of currency units.
// Values outside the 50-bit whole range return ErrOverflow.
func FromInt(v int64) (Amount, error) {
	if v > maxWhole || v < -maxWhole-1 {
		return Zero, ErrOverflow
	}
	return Amount{raw: v * unitsPerWhole}, nil
}

// FromRaw wraps a raw count of 2^-14 units. Used by storage layers that
// persist the backing integer directly.
func FromRaw(raw int64) Amount { return Amount{raw: raw} }

// Raw exposes the backing integer for storage layers.
func (a Amount) Raw() int64 { return a.raw }

// Parse converts a decimal string such as "1.9999" or "-0.5" into an Amount.
// Fractional precision beyond 2^-14 is rounded to the nearest representable
// unit, ties away from zero. Whole parts outside the 50-bit range, or raw
// values that would not fit, fail with ErrOverflow wrapped in a ParseError.
func Parse(s string) (Amount, error) {
	input := s
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, &ParseError{Input: input, Reason: "empty string"}
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	wholePart, fracPart, _ := strings.Cut(s, ".")
	if wholePart == "" && fracPart == "" {
		return Zero, &ParseError{Input: input, Reason: "no digits"}
	}

	var whole int64
	for _, c := range wholePart {
		if c < '0' || c > '9' {
			return Zero, &ParseError{Input: input, Reason: "unexpected character in integer part"}
		}
		if whole > maxWhole/10 {
			return Zero, &ParseError{Input: input, Reason: ErrOverflow.Error()}
		}
		whole = whole*10 + int64(c-'0')
		if whole > maxWhole {
			return Zero, &ParseError{Input: input, Reason: ErrOverflow.Error()}
		}
	}

	frac, err := parseFraction(fracPart)
	if err != nil {
		return Zero, &ParseError{Input: input, Reason: err.Error()}
	}

	raw := whole*unitsPerWhole + frac
	if raw < 0 {
		// whole == maxWhole and the fraction rounded up past the top.
		return Zero, &ParseError{Input: input, Reason: ErrOverflow.Error()}
	}
	if neg {
		raw = -raw
	}
	return Amount{raw: raw}, nil
}

// parseFraction converts the digits after the decimal point to a raw count
// of 2^-14 units, rounded to nearest (ties away from zero). Midpoints
// between representable units have exactly 15 decimal digits, so digits
// beyond the 15th cannot change the nearest unit and are ignored.
func parseFraction(digits string) (int64, error) {
	if digits == "" {
		return 0, nil
	}
	var num, denom uint64 = 0, 1
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, errors.New("unexpected character in fractional part")
		}
		if denom == 1e15 {
			continue
		}
		num = num*10 + uint64(c-'0')
		denom *= 10
	}
	// num < 10^15, so num * 2^14 still fits in a uint64.
	scaled := num * uint64(unitsPerWhole)
	q := scaled / denom
	if (scaled%denom)*2 >= denom {
		q++
	}
	return int64(q), nil
}

// MustParse is Parse for literals in tests and fixtures. It panics on error.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// =============================================================================
// ARITHMETIC - exact, overflow-checked
// =============================================================================

// Add returns a + b, or ErrOverflow if the sum leaves the int64 range.
func (a Amount) Add(b Amount) (Amount, error) {
	sum := a.raw + b.raw
	if (a.raw > 0 && b.raw > 0 && sum < 0) || (a.raw < 0 && b.raw < 0 && sum >= 0) {
		return Zero, ErrOverflow
	}
	return Amount{raw: sum}, nil
}

// Sub returns a - b, or ErrOverflow if the difference leaves the int64 range.
func (a Amount) Sub(b Amount) (Amount, error) {
	diff := a.raw - b.raw
	if (a.raw > 0 && b.raw < 0 && diff < 0) || (a.raw < 0 && b.raw > 0 && diff >= 0) {
		return Zero, ErrOverflow
	}
	return Amount{raw: diff}, nil
}

// Neg returns -a.
func (a Amount) Neg() Amount { return Amount{raw: -a.raw} }

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.raw < b.raw:
		return -1
	case a.raw > b.raw:
		return 1
	default:
		return 0
	}
}

func (a Amount) IsNegative() bool          { return a.raw < 0 }
func (a Amount) IsZero() bool              { return a.raw == 0 }
func (a Amount) LessThan(b Amount) bool    { return a.raw < b.raw }
func (a Amount) GreaterThan(b Amount) bool { return a.raw > b.raw }

// =============================================================================
// FORMATTING
// =============================================================================

// String renders the shortest decimal string that parses back to the same
// value. Whole amounts print with no fractional part.
func (a Amount) String() string {
	raw := a.raw
	sign := ""
	if raw < 0 {
		sign = "-"
		raw = -raw
	}
	whole := raw >> FracBits
	frac := raw & (unitsPerWhole - 1)
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}

	// Exact 14-digit decimal expansion of the fractional part.
	exact := frac * fracScale

	// Find the fewest decimal digits that round-trip to the same raw frac.
	divisor := int64(1e13) // rounds exact to 1 decimal digit
	denom := int64(10)
	for digits := 1; digits <= 14; digits++ {
		candidate := (exact + divisor/2) / divisor
		back := candidate * unitsPerWhole
		q := back / denom
		if (back%denom)*2 >= denom {
			q++
		}
		// candidate == denom means the fraction rounded up to 1.0 at this
		// width; q comes back as a full unit and the check rejects it.
		if q == frac {
			return fmt.Sprintf("%s%d.%0*d", sign, whole, digits, candidate)
		}
		divisor /= 10
		denom *= 10
	}
	// Unreachable: 14 digits is always exact.
	return fmt.Sprintf("%s%d.%014d", sign, whole, exact)
}
