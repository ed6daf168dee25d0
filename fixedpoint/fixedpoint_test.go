package fixedpoint_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tindleaj/payments/fixedpoint"
)

// =============================================================================
// PARSING
// =============================================================================

func TestParse_WholeAndFraction(t *testing.T) {
	cases := []struct {
		input string
		raw   int64
	}{
		{"0", 0},
		{"1", 1 << 14},
		{"2.5", 2<<14 + 1<<13},
		{"-1", -(1 << 14)},
		{"-0.5", -(1 << 13)},
		{"+3", 3 << 14},
		{" 1.25 ", 1<<14 + 1<<12},
		{"0.00006103515625", 1}, // exactly one representable unit
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			a, err := fixedpoint.Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.raw, a.Raw())
		})
	}
}

func TestParse_RoundsToNearestUnit(t *testing.T) {
	// 0.0001 is below the 2^-14 resolution: 0.0001 * 16384 = 1.6384,
	// which rounds to 2 raw units, not down to 1.
	a, err := fixedpoint.Parse("0.0001")
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Raw())

	// Ties round away from zero. 1/32768 is exactly half a raw unit.
	b, err := fixedpoint.Parse("0.000030517578125")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Raw())

	c, err := fixedpoint.Parse("-0.000030517578125")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), c.Raw())
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", ".", "-", "abc", "1.2.3", "1,5", "1e3", "12a"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			_, err := fixedpoint.Parse(input)
			assert.Error(t, err)
			var perr *fixedpoint.ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestParse_WholePartOverflow(t *testing.T) {
	// 2^49 whole units is one past the representable maximum.
	_, err := fixedpoint.Parse("562949953421312")
	assert.Error(t, err)

	// 2^49 - 1 still fits.
	a, err := fixedpoint.Parse("562949953421311")
	require.NoError(t, err)
	assert.Equal(t, "562949953421311", a.String())
}

// =============================================================================
// ROUND TRIP - spec'd property: parse(s).String() == s at full resolution
// =============================================================================

func TestString_RoundTrip(t *testing.T) {
	for _, s := range []string{
		"0", "1", "2", "-1",
		"1.9999", "0.0001", "2.5", "-0.5",
		"1.5", "100.25", "-42.0625",
	} {
		t.Run(s, func(t *testing.T) {
			a, err := fixedpoint.Parse(s)
			require.NoError(t, err)
			assert.Equal(t, s, a.String())
		})
	}
}

func TestString_ReparsesToSameValue(t *testing.T) {
	// For every representable fraction, formatting then parsing must return
	// the identical raw value. This is the no-loss guarantee for reporting.
	for frac := int64(0); frac < 1<<14; frac += 7 {
		a := fixedpoint.FromRaw(5<<14 + frac)
		b, err := fixedpoint.Parse(a.String())
		require.NoError(t, err, "formatted %q", a.String())
		assert.Equal(t, a.Raw(), b.Raw(), "formatted %q", a.String())
	}
}

func TestString_WholeValueHasNoFraction(t *testing.T) {
	// The worked example: 1.9999 + 0.0001 renders as "2".
	a := fixedpoint.MustParse("1.9999")
	b := fixedpoint.MustParse("0.0001")
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "2", sum.String())
}

// =============================================================================
// ARITHMETIC
// =============================================================================

func TestAdd_Sub_Exact(t *testing.T) {
	a := fixedpoint.MustParse("1.5")
	b := fixedpoint.MustParse("0.25")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "1.75", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "1.25", diff.String())

	back, err := sum.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Cmp(a), "add then sub must be exact")
}

func TestAdd_Overflow(t *testing.T) {
	top := fixedpoint.FromRaw(math.MaxInt64)
	one := fixedpoint.FromRaw(1)

	_, err := top.Add(one)
	assert.ErrorIs(t, err, fixedpoint.ErrOverflow)

	bottom := fixedpoint.FromRaw(math.MinInt64)
	_, err = bottom.Sub(one)
	assert.ErrorIs(t, err, fixedpoint.ErrOverflow)
}

func TestCmp_And_Predicates(t *testing.T) {
	a := fixedpoint.MustParse("1")
	b := fixedpoint.MustParse("2")

	assert.Equal(t, -1, a.Cmp(b))
	assert.Equal(t, 1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(a))
	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.Neg().IsNegative())
	assert.True(t, fixedpoint.Zero.IsZero())
	assert.False(t, fixedpoint.Zero.IsNegative())
}

func TestFromInt(t *testing.T) {
	a, err := fixedpoint.FromInt(5)
	require.NoError(t, err)
	assert.Equal(t, "5", a.String())

	_, err = fixedpoint.FromInt(1 << 50)
	assert.ErrorIs(t, err, fixedpoint.ErrOverflow)
}

// =============================================================================
// DECIMAL ORACLE - shopspring/decimal as an exact reference
// =============================================================================

// rawToDecimal converts a raw unit count to its exact decimal value.
func rawToDecimal(raw int64) decimal.Decimal {
	return decimal.New(raw, 0).Div(decimal.New(1<<14, 0))
}

func TestParse_MatchesDecimalOracle(t *testing.T) {
	// For inputs representable exactly at 2^-14, parsing must agree with
	// exact decimal arithmetic scaled by 2^14.
	inputs := []string{"0.5", "0.25", "0.125", "7.0625", "11.75", "3"}
	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			a, err := fixedpoint.Parse(s)
			require.NoError(t, err)

			want := decimal.RequireFromString(s).Mul(decimal.New(1<<14, 0))
			require.True(t, want.IsInteger(), "test input must be representable")
			assert.Equal(t, want.IntPart(), a.Raw())
		})
	}
}

func TestAdd_MatchesDecimalOracle(t *testing.T) {
	pairs := [][2]int64{
		{1, 1}, {16384, -16384}, {32766, 2}, {-5, 12345}, {999999, -1},
	}
	for _, p := range pairs {
		a, b := fixedpoint.FromRaw(p[0]), fixedpoint.FromRaw(p[1])
		sum, err := a.Add(b)
		require.NoError(t, err)

		// Compare in raw units: the formatted string is shortest-form, so
		// scaling it back by 2^14 recovers the exact sum.
		want := rawToDecimal(p[0]).Add(rawToDecimal(p[1])).Mul(decimal.New(1<<14, 0))
		require.True(t, want.IsInteger())
		assert.Equal(t, want.IntPart(), sum.Raw(), "raw %d + %d", p[0], p[1])
	}
}

func TestString_MatchesDecimalOracle(t *testing.T) {
	// Formatted output, parsed as an exact decimal, must round to the same
	// raw value the Amount holds. Shortest-form never loses precision.
	for _, raw := range []int64{1, 2, 3, 100, 16383, 16385, 32766, -7, -16381} {
		a := fixedpoint.FromRaw(raw)
		d := decimal.RequireFromString(a.String())
		back := d.Mul(decimal.New(1<<14, 0)).Round(0).IntPart()
		assert.Equal(t, raw, back, "formatted %q", a.String())
	}
}
