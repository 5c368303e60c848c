// Package gst computes the Indian goods-and-services-tax split for a sale.
// Inter-state sales attract IGST; intra-state sales split the same rate
// evenly between CGST and SGST.
package gst

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeIGST     Type = "IGST"
	TypeCGSTSGST Type = "CGST_SGST"
)

var (
	ErrInvalidSubtotal = errors.New("invalid_subtotal")
	ErrInvalidRate     = errors.New("invalid_rate")
	ErrInvalidState    = errors.New("invalid_state")
)

var hundred = decimal.NewFromInt(100)

// Breakdown is the tax split for one invoice. CGST and SGST are set only
// on the intra-state path.
type Breakdown struct {
	Type   Type
	Rate   decimal.Decimal
	Amount decimal.Decimal
	CGST   *decimal.Decimal
	SGST   *decimal.Decimal
	Total  decimal.Decimal
}

// Calculate derives the tax for a subtotal. The rate is a percentage
// (18 means 18%). Amounts are rounded to two decimal places.
func Calculate(subtotal decimal.Decimal, buyerState, sellerState string, rate decimal.Decimal) (Breakdown, error) {
	if !subtotal.IsPositive() {
		return Breakdown{}, ErrInvalidSubtotal
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return Breakdown{}, ErrInvalidRate
	}

	buyer := strings.ToUpper(strings.TrimSpace(buyerState))
	seller := strings.ToUpper(strings.TrimSpace(sellerState))
	if buyer == "" || seller == "" {
		return Breakdown{}, ErrInvalidState
	}

	amount := subtotal.Mul(rate).Div(hundred).Round(2)
	breakdown := Breakdown{
		Rate:   rate,
		Amount: amount,
		Total:  subtotal.Add(amount),
	}

	if buyer != seller {
		breakdown.Type = TypeIGST
		return breakdown, nil
	}

	breakdown.Type = TypeCGSTSGST
	half := amount.Div(decimal.NewFromInt(2)).Round(2)
	cgst := half
	sgst := amount.Sub(half)
	breakdown.CGST = &cgst
	breakdown.SGST = &sgst
	return breakdown, nil
}
