package normalizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/bridge-explorer/normalizer"
)

func TestToDecimal(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name      string
		Amount    string
		Precision int
		Expected  string
	}{
		{"six digits precision four", "123456", 4, "12.3456"},
		{"zero precision", "123456", 0, "123456"},
		{"zero", "0", 6, "0"},
		{"smaller than one", "42", 6, "0.000042"},
		{"trailing zeros", "1500000", 6, "1.5"},
		{"whole amount", "1000000", 6, "1"},
		{"leading zeros", "000120", 2, "1.2"},
		{"beyond float64", "123456789012345678901234567890", 18, "123456789012.34567890123456789"},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			res, err := normalizer.ToDecimal(test.Amount, test.Precision)
			require.NoError(t, err)
			require.Equal(t, test.Expected, res)
		})
	}
}

func TestToDecimal_Invalid(t *testing.T) {
	t.Parallel()

	for _, amount := range []string{"", "-1", "1.5", "abc", "1e6"} {
		_, err := normalizer.ToDecimal(amount, 6)
		require.Error(t, err, amount)
	}
	_, err := normalizer.ToDecimal("1", -1)
	require.Error(t, err)
}

func TestToBaseUnits_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Amount    string
		Precision int
	}{
		{"123456", 4},
		{"1", 18},
		{"1000000", 6},
		{"0", 6},
		{"98765432109876543210", 0},
	} {
		decimal, err := normalizer.ToDecimal(test.Amount, test.Precision)
		require.NoError(t, err)
		back, err := normalizer.ToBaseUnits(decimal, test.Precision)
		require.NoError(t, err)
		require.Equal(t, test.Amount, back)
	}
}

func TestToBaseUnits_TooPrecise(t *testing.T) {
	t.Parallel()

	_, err := normalizer.ToBaseUnits("1.2345", 2)
	require.Error(t, err)

	res, err := normalizer.ToBaseUnits("1.2300", 2)
	require.NoError(t, err)
	require.Equal(t, "123", res)

	res, err = normalizer.ToBaseUnits(".5", 1)
	require.NoError(t, err)
	require.Equal(t, "5", res)

	for _, value := range []string{"-1", "1e6", "abc", "1.2.3"} {
		_, err = normalizer.ToBaseUnits(value, 6)
		require.Error(t, err, value)
	}
}
