/*
Package finance provides the amortization arithmetic for loan contracts.

PURPOSE:
  Pure monetary computation: simple interest, per-installment amounts,
  principal/interest splits, late-payment penalties and early-settlement
  quotes. Nothing here touches storage or the clock; every function is a
  plain function of its arguments.

KEY CONCEPTS IN THIS FILE:
  - Money: int64 amount in rial, the smallest currency unit. All stored
    and computed amounts use it; toman (rial/10) is display-only.
  - Rounding: Half-up to the nearest rial, via decimal.Decimal. Rates are
    percentages and are rounded to 4 decimal places before use.

DESIGN PRINCIPLES:
  1. No floating point in results: float64 appears only as the rate input
     type; all arithmetic runs on decimal.Decimal.
  2. Non-positive inputs yield zero rather than errors: these functions
     are arithmetic, validation belongs to the callers.
  3. Even splits drift: PrincipalPortion * count need not equal the
     principal. The schedule generator absorbs drift at the amount level.

SEE ALSO:
  - contract/schedule.go: Uses these functions to materialize schedules
  - contract/ledger.go: Penalty accrual during payment application
*/
package finance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in rial, the smallest currency unit.
type Money int64

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ratio converts a percentage to a multiplier, rounded to 4 decimal places.
func ratio(percent float64) decimal.Decimal {
	return decimal.NewFromFloat(percent).Div(hundred).Round(4)
}

func toMoney(d decimal.Decimal) Money {
	return Money(d.Round(0).IntPart())
}

// =============================================================================
// SCHEDULE ARITHMETIC
// =============================================================================

// SimpleInterest computes principal * (annualRatePercent/100) * (months/12),
// rounded half-up to the nearest rial. Zero when any input is non-positive.
func SimpleInterest(principal Money, annualRatePercent float64, months int) Money {
	if principal <= 0 || annualRatePercent <= 0 || months <= 0 {
		return 0
	}
	interest := decimal.NewFromInt(int64(principal)).
		Mul(ratio(annualRatePercent)).
		Mul(decimal.NewFromInt(int64(months))).
		Div(twelve)
	return toMoney(interest)
}

// TotalAmount is the full repayable amount: principal plus simple interest.
func TotalAmount(principal Money, annualRatePercent float64, months int) Money {
	return principal + SimpleInterest(principal, annualRatePercent, months)
}

// InstallmentAmount divides a total evenly across count installments,
// rounded half-up. A non-positive count returns the total unmodified.
func InstallmentAmount(total Money, count int) Money {
	if count <= 0 {
		return total
	}
	return toMoney(decimal.NewFromInt(int64(total)).Div(decimal.NewFromInt(int64(count))))
}

// PrincipalPortion is the flat principal share of one installment.
func PrincipalPortion(principal Money, count int) Money {
	return InstallmentAmount(principal, count)
}

// InterestPortion is the flat interest share of one installment.
func InterestPortion(interest Money, count int) Money {
	return InstallmentAmount(interest, count)
}

// =============================================================================
// PENALTY AND SETTLEMENT
// =============================================================================

// Penalty computes remaining * (dailyRatePercent/100) * delayDays, rounded
// half-up. Zero when any input is non-positive.
func Penalty(remaining Money, dailyRatePercent float64, delayDays int) Money {
	if remaining <= 0 || dailyRatePercent <= 0 || delayDays <= 0 {
		return 0
	}
	penalty := decimal.NewFromInt(int64(remaining)).
		Mul(ratio(dailyRatePercent)).
		Mul(decimal.NewFromInt(int64(delayDays)))
	return toMoney(penalty)
}

// EarlySettlement quotes a full payoff: the remaining principal plus the
// remaining interest discounted by discountRatePercent (clamped to [0,100]).
// Negative remaining inputs yield zero.
func EarlySettlement(remainingPrincipal, remainingInterest Money, discountRatePercent float64) Money {
	if remainingPrincipal < 0 || remainingInterest < 0 {
		return 0
	}
	if discountRatePercent < 0 {
		discountRatePercent = 0
	}
	if discountRatePercent > 100 {
		discountRatePercent = 100
	}
	discounted := decimal.NewFromInt(int64(remainingInterest)).
		Mul(decimal.NewFromInt(1).Sub(ratio(discountRatePercent)))
	return toMoney(decimal.NewFromInt(int64(remainingPrincipal)).Add(discounted))
}

// =============================================================================
// READ-SIDE HELPERS
// =============================================================================

// ProgressPercentage is paid*100/total capped at 100, 0 when total is
// non-positive. Computed on decimals so large portfolios cannot overflow
// before the division.
func ProgressPercentage(paid, total Money) int {
	if total <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(paid)).
		Mul(hundred).
		Div(decimal.NewFromInt(int64(total))).
		IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// =============================================================================
// DISPLAY - derived presentation values, never stored
// =============================================================================

// RialToToman converts to the display unit.
func RialToToman(rial Money) Money { return rial / 10 }

// TomanToRial converts from the display unit.
func TomanToRial(toman Money) Money { return toman * 10 }

// FormatRial renders an amount with thousands separators, e.g. "1,500,000 ریال".
func FormatRial(amount Money) string {
	return groupDigits(int64(amount)) + " ریال"
}

// FormatToman renders the display unit, e.g. "150,000 تومان".
func FormatToman(amount Money) string {
	return groupDigits(int64(RialToToman(amount))) + " تومان"
}

func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
