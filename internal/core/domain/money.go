package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Balances and amounts use two-decimal fixed-point arithmetic
// throughout; money is never represented as a binary float.

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// FormatAmount renders an amount for human display with comma grouping
// and two decimal places, e.g. 1234567.8 -> "1,234,567.80".
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(2).StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	for i := len(intPart) - 3; i > 0; i -= 3 {
		intPart = intPart[:i] + "," + intPart[i:]
	}
	s = intPart + "." + frac
	if neg {
		s = "-" + s
	}
	return s
}

// Transfer fee schedule: flat bands on the transfer amount. The
// credit-side charge is computed for amounts over its threshold but is
// not applied to the recipient; it is carried on events for visibility
// until product confirms whether recipients should be charged.
var (
	feeBand1 = decimal.NewFromInt(25000)
	feeBand2 = decimal.NewFromInt(50000)
	feeBand3 = decimal.NewFromInt(100000)

	feeTier1 = decimal.New(1076, -2) // 10.76
	feeTier2 = decimal.New(2667, -2) // 26.67
	feeTier3 = decimal.New(5000, -2) // 50.00
	feeTier4 = decimal.New(10000, -2) // 100.00

	creditChargeFloor = decimal.NewFromInt(10000)
	creditChargeFlat  = decimal.New(5000, -2) // 50.00
)

// TransferFee is the deterministic charge computed for a transfer.
type TransferFee struct {
	Charge          decimal.Decimal // debited from the sender on top of the amount
	CreditCharge    decimal.Decimal // informational only, never debited
	AmountWithCharge decimal.Decimal
}

// CalculateTransferFee applies the flat fee bands to a transfer amount.
func CalculateTransferFee(amount decimal.Decimal) TransferFee {
	var charge decimal.Decimal
	switch {
	case amount.LessThan(feeBand1):
		charge = feeTier1
	case amount.LessThan(feeBand2):
		charge = feeTier2
	case amount.LessThan(feeBand3):
		charge = feeTier3
	default:
		charge = feeTier4
	}

	creditCharge := decimal.Zero
	if amount.GreaterThan(creditChargeFloor) {
		creditCharge = creditChargeFlat
	}

	return TransferFee{
		Charge:           charge,
		CreditCharge:     creditCharge,
		AmountWithCharge: amount.Add(charge).Round(2),
	}
}
