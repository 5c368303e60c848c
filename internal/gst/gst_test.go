package gst_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/pelletworks/pelletport/internal/gst"
)

func TestCalculateInterState(t *testing.T) {
	breakdown, err := gst.Calculate(decimal.NewFromInt(820000), "MH", "GJ", decimal.NewFromInt(18))
	require.NoError(t, err)

	require.Equal(t, gst.TypeIGST, breakdown.Type)
	require.True(t, breakdown.Amount.Equal(decimal.NewFromInt(147600)))
	require.True(t, breakdown.Total.Equal(decimal.NewFromInt(967600)))
	require.Nil(t, breakdown.CGST)
	require.Nil(t, breakdown.SGST)
}

func TestCalculateIntraState(t *testing.T) {
	breakdown, err := gst.Calculate(decimal.NewFromInt(820000), "MH", "MH", decimal.NewFromInt(18))
	require.NoError(t, err)

	require.Equal(t, gst.TypeCGSTSGST, breakdown.Type)
	require.True(t, breakdown.Amount.Equal(decimal.NewFromInt(147600)))
	require.True(t, breakdown.Total.Equal(decimal.NewFromInt(967600)))
	require.NotNil(t, breakdown.CGST)
	require.NotNil(t, breakdown.SGST)
	require.True(t, breakdown.CGST.Equal(decimal.NewFromInt(73800)))
	require.True(t, breakdown.SGST.Equal(decimal.NewFromInt(73800)))
}

func TestCalculateTaxInvariantToJurisdictionSplit(t *testing.T) {
	subtotals := []int64{1, 999, 820000, 12345678}
	rates := []string{"5", "12", "18", "28"}

	for _, sub := range subtotals {
		for _, rate := range rates {
			subtotal := decimal.NewFromInt(sub)
			r := decimal.RequireFromString(rate)

			intra, err := gst.Calculate(subtotal, "KA", "KA", r)
			require.NoError(t, err)
			inter, err := gst.Calculate(subtotal, "KA", "TN", r)
			require.NoError(t, err)

			require.True(t, intra.Amount.Equal(inter.Amount),
				"tax amount must not depend on the split for subtotal=%d rate=%s", sub, rate)
			require.True(t, intra.CGST.Add(*intra.SGST).Equal(intra.Amount),
				"halves must sum to the full amount for subtotal=%d rate=%s", sub, rate)
			require.True(t, intra.Total.Equal(subtotal.Add(intra.Amount)))
		}
	}
}

func TestCalculateStateComparisonIgnoresCase(t *testing.T) {
	breakdown, err := gst.Calculate(decimal.NewFromInt(1000), " mh ", "MH", decimal.NewFromInt(18))
	require.NoError(t, err)
	require.Equal(t, gst.TypeCGSTSGST, breakdown.Type)
}

func TestCalculateRejectsNonPositiveSubtotal(t *testing.T) {
	_, err := gst.Calculate(decimal.Zero, "MH", "GJ", decimal.NewFromInt(18))
	require.ErrorIs(t, err, gst.ErrInvalidSubtotal)

	_, err = gst.Calculate(decimal.NewFromInt(-5), "MH", "GJ", decimal.NewFromInt(18))
	require.ErrorIs(t, err, gst.ErrInvalidSubtotal)
}

func TestCalculateRejectsBadRateOrState(t *testing.T) {
	_, err := gst.Calculate(decimal.NewFromInt(100), "MH", "GJ", decimal.NewFromInt(-1))
	require.ErrorIs(t, err, gst.ErrInvalidRate)

	_, err = gst.Calculate(decimal.NewFromInt(100), "", "GJ", decimal.NewFromInt(18))
	require.ErrorIs(t, err, gst.ErrInvalidState)
}
