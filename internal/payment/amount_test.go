package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAmountAcceptsPlainDecimals(t *testing.T) {
	for _, input := range []string{"0", "12500", "12500.00", "0.01", "-42.5", "+7"} {
		_, err := ParseAmount(input)
		require.NoError(t, err, "input %q", input)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "  ", "abc", "1,000.00", "1e5", "10.12345", "12.", "."} {
		_, err := ParseAmount(input)
		require.Error(t, err, "input %q", input)
	}
}

func TestAmountComparisonIsExact(t *testing.T) {
	threshold, err := ParseAmount("12500.00")
	require.NoError(t, err)

	over, err := ParseAmount("12500.01")
	require.NoError(t, err)
	require.Equal(t, 1, over.Cmp(threshold))

	equal, err := ParseAmount("12500")
	require.NoError(t, err)
	require.Equal(t, 0, equal.Cmp(threshold))

	under, err := ParseAmount("12499.9999")
	require.NoError(t, err)
	require.Equal(t, -1, under.Cmp(threshold))
}

func TestParseAmountRejectsOverflowingValues(t *testing.T) {
	// Values whose digits fit in int64 but wrap once padded to full
	// scale must be rejected, never compared with a corrupted sign.
	for _, input := range []string{
		"461168601842738790",
		"922337203685477580.7",
		"99999999999999999999",
	} {
		_, err := ParseAmount(input)
		require.Error(t, err, "input %q", input)
	}

	// A large but representable amount still compares correctly.
	big, err := ParseAmount("400000000000000")
	require.NoError(t, err)
	threshold, err := ParseAmount("12500.00")
	require.NoError(t, err)
	require.Equal(t, 1, big.Cmp(threshold))
}

func TestAmountNegativeOrdering(t *testing.T) {
	neg, err := ParseAmount("-5")
	require.NoError(t, err)

	zero, err := ParseAmount("0")
	require.NoError(t, err)

	require.Equal(t, -1, neg.Cmp(zero))
	require.True(t, zero.IsZero())
}

func TestAmountDecimalPlaces(t *testing.T) {
	a, err := ParseAmount("10.123")
	require.NoError(t, err)
	require.Equal(t, 3, a.DecimalPlaces())

	b, err := ParseAmount("10")
	require.NoError(t, err)
	require.Equal(t, 0, b.DecimalPlaces())
}
