/*
schedule.go - Amortization schedule generation

PURPOSE:
  Materializes the ordered installment list for a new contract. Runs
  exactly once per contract; a contract is never re-amortized after
  creation.

ROUNDING REMAINDER:
  The flat per-installment amount is total/count rounded half-up, so
  amount*count can miss the total by a few rial in either direction. The
  difference is folded into the final installment, which keeps the sum of
  installment amounts exactly equal to the contract total. The
  principal/interest portions are flat on every installment and are
  allowed to drift; only the amount level is corrected.

DUE DATES:
  Each due date is one solar month after the previous one, starting from
  the contract start date. Stepping is calendar-correct (clamped to the
  target month's length), not a fixed 30-day increment.
*/
package contract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/finance"
)

// Terms are the inputs to schedule generation.
type Terms struct {
	CustomerID       string
	Principal        Money
	AnnualRate       float64 // percent, 0..100
	InstallmentCount int     // 1..60
	StartDate        calendar.Date
	PenaltyRate      *float64 // daily percent; nil applies DefaultPenaltyRate
	Description      string
}

func (t Terms) validate() error {
	if t.Principal <= 0 {
		return &InvalidAmountError{Field: "principal", Amount: t.Principal, Reason: "must be positive"}
	}
	if t.AnnualRate < 0 || t.AnnualRate > 100 {
		return fmt.Errorf("%w: annual rate %.2f out of range [0,100]", ErrInvalidAmount, t.AnnualRate)
	}
	if t.InstallmentCount < MinInstallments || t.InstallmentCount > MaxInstallments {
		return fmt.Errorf("%w: installment count %d out of range [%d,%d]",
			ErrInvalidAmount, t.InstallmentCount, MinInstallments, MaxInstallments)
	}
	if t.StartDate.IsZero() {
		return &calendar.InvalidDateError{Reason: "start date required"}
	}
	if t.PenaltyRate != nil && *t.PenaltyRate < 0 {
		return fmt.Errorf("%w: penalty rate %.2f must not be negative", ErrInvalidAmount, *t.PenaltyRate)
	}
	return nil
}

// BuildSchedule computes the contract's derived amounts and generates its
// installments. contractNumber must already be allocated (see
// NextContractNumber); createdAt is the creation timestamp recorded on the
// contract, supplied by the caller to keep generation deterministic.
func BuildSchedule(terms Terms, contractNumber string, createdAt time.Time) (*Contract, []Installment, error) {
	if err := terms.validate(); err != nil {
		return nil, nil, err
	}

	count := terms.InstallmentCount
	interest := finance.SimpleInterest(terms.Principal, terms.AnnualRate, count)
	total := terms.Principal + interest
	perInstallment := finance.InstallmentAmount(total, count)
	principalPortion := finance.PrincipalPortion(terms.Principal, count)
	interestPortion := finance.InterestPortion(interest, count)

	penaltyRate := DefaultPenaltyRate
	if terms.PenaltyRate != nil {
		penaltyRate = *terms.PenaltyRate
	}

	c := &Contract{
		ID:                uuid.New().String(),
		ContractNumber:    contractNumber,
		CustomerID:        terms.CustomerID,
		PrincipalAmount:   terms.Principal,
		InterestRate:      terms.AnnualRate,
		InterestAmount:    interest,
		TotalAmount:       total,
		InstallmentCount:  count,
		InstallmentAmount: perInstallment,
		StartDate:         terms.StartDate,
		PenaltyRate:       penaltyRate,
		Status:            ContractActive,
		Description:       terms.Description,
		CreatedAt:         createdAt,
	}

	// Half-up rounding can leave the flat amounts over or under the total.
	remainder := total - perInstallment*Money(count)

	installments := make([]Installment, 0, count)
	dueDate := terms.StartDate
	for n := 1; n <= count; n++ {
		dueDate = calendar.AddMonths(dueDate, 1)

		amount := perInstallment
		if n == count {
			amount += remainder
		}

		installments = append(installments, Installment{
			ID:               uuid.New().String(),
			ContractID:       c.ID,
			Number:           n,
			Amount:           amount,
			PrincipalPortion: principalPortion,
			InterestPortion:  interestPortion,
			DueDate:          dueDate,
			Status:           InstallmentPending,
		})
	}

	c.EndDate = dueDate
	return c, installments, nil
}

// =============================================================================
// CONTRACT NUMBERING
// =============================================================================

const contractNumberPrefix = "C"

// NextContractNumber allocates the next number in the
// C<4-digit year><4-digit sequence> series. lastIssued is the
// lexicographically greatest number already stored ("" when none exist);
// the sequence restarts at 1 whenever the year component changes or the
// previous number cannot be parsed.
func NextContractNumber(lastIssued string, solarYear int) string {
	prefix := fmt.Sprintf("%s%04d", contractNumberPrefix, solarYear)
	sequence := 1
	if strings.HasPrefix(lastIssued, prefix) {
		if n, err := strconv.Atoi(lastIssued[len(prefix):]); err == nil {
			sequence = n + 1
		}
	}
	return fmt.Sprintf("%s%04d", prefix, sequence)
}
