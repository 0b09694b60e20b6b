/*
Package contract implements the installment loan ledger engine.

PURPOSE:
  Turns contract terms into a fixed amortization schedule, applies
  payments against that schedule while accruing late-payment penalties,
  and advances installment and contract lifecycle state. Read-side folds
  summarize portfolio state across contracts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Contract: terms plus derived amounts and lifecycle status
  - Installment: one scheduled payment, mutated only by the ledger
  - Statuses: two small state machines with consistency rules between them

OWNERSHIP:
  A contract owns its installments exclusively: they are created as a
  batch at contract creation and never inserted individually afterwards.
  Installments carry the parent contract's id rather than a pointer, so
  the pair can be loaded and saved independently by the store.

SEE ALSO:
  - schedule.go: Schedule generation and contract numbering
  - ledger.go: Payment application and status transitions
  - aggregate.go: Portfolio-level folds
*/
package contract

import (
	"time"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/finance"
)

// Money re-exports the monetary unit so callers of this package rarely
// need to import finance directly.
type Money = finance.Money

// DefaultPenaltyRate is the daily late-payment penalty percentage applied
// when a contract is created without an explicit rate. It is fixed at
// creation time and never re-applied later.
const DefaultPenaltyRate = 0.5

// Installment count bounds for a single contract.
const (
	MinInstallments = 1
	MaxInstallments = 60
)

// =============================================================================
// STATUSES
// =============================================================================

type ContractStatus string

const (
	ContractDraft     ContractStatus = "DRAFT"
	ContractActive    ContractStatus = "ACTIVE"
	ContractCompleted ContractStatus = "COMPLETED"
	ContractOverdue   ContractStatus = "OVERDUE"
	ContractCancelled ContractStatus = "CANCELLED"
)

type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "PENDING"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentOverdue       InstallmentStatus = "OVERDUE"
	InstallmentPaid          InstallmentStatus = "PAID"
	// InstallmentCompleted is an equivalent terminal marker accepted from
	// external data; the payment engine itself only ever produces PAID.
	InstallmentCompleted InstallmentStatus = "COMPLETED"
)

// IsSettled reports whether a status is terminal (fully settled).
func (s InstallmentStatus) IsSettled() bool {
	return s == InstallmentPaid || s == InstallmentCompleted
}

type PaymentMethod string

const (
	PayCash     PaymentMethod = "CASH"
	PayCard     PaymentMethod = "CARD"
	PayTransfer PaymentMethod = "TRANSFER"
	PayCheque   PaymentMethod = "CHEQUE"
	PayOnline   PaymentMethod = "ONLINE"
)

// =============================================================================
// CONTRACT
// =============================================================================

type Contract struct {
	ID             string
	ContractNumber string // unique, format C<solar year><4-digit sequence>
	CustomerID     string // opaque reference, not owned by this engine

	PrincipalAmount   Money
	InterestRate      float64 // annual, percent
	InterestAmount    Money
	TotalAmount       Money // always PrincipalAmount + InterestAmount
	InstallmentCount  int
	InstallmentAmount Money // flat per-installment amount before remainder
	StartDate         calendar.Date
	EndDate           calendar.Date // due date of the last installment
	PenaltyRate       float64       // daily, percent

	Status      ContractStatus
	Description string
	CreatedAt   time.Time
}

// RemainingAmount is the contract total minus everything paid so far
// across the given installments.
func (c *Contract) RemainingAmount(installments []Installment) Money {
	var paid Money
	for _, inst := range installments {
		paid += inst.PaidAmount
	}
	return c.TotalAmount - paid
}

// PaidInstallmentCount counts fully settled installments.
func (c *Contract) PaidInstallmentCount(installments []Installment) int {
	n := 0
	for _, inst := range installments {
		if inst.Status.IsSettled() {
			n++
		}
	}
	return n
}

// Progress is the paid share of the contract total, 0..100.
func (c *Contract) Progress(installments []Installment) int {
	var paid Money
	for _, inst := range installments {
		paid += inst.PaidAmount
	}
	return finance.ProgressPercentage(paid, c.TotalAmount)
}

// =============================================================================
// INSTALLMENT
// =============================================================================

type Installment struct {
	ID         string
	ContractID string // owning contract

	Number           int // 1-based sequence inside the contract
	Amount           Money
	PrincipalPortion Money
	InterestPortion  Money
	DueDate          calendar.Date

	PaidAmount    Money // monotonically non-decreasing
	PenaltyAmount Money // accrued, monotonically non-decreasing
	PaymentDate   time.Time
	PaymentMethod PaymentMethod
	ReceiptNumber string
	Notes         string

	Status InstallmentStatus
}

// Remaining is the outstanding balance: the unpaid part of the scheduled
// amount plus every penalty accrued so far. Fully settled means
// PaidAmount covers Amount + PenaltyAmount, not Amount alone.
func (i *Installment) Remaining() Money {
	return (i.Amount - i.PaidAmount) + i.PenaltyAmount
}

// DelayDays is the number of days the installment is late as of today.
// Zero for settled installments and before the due date.
func (i *Installment) DelayDays(today calendar.Date) int {
	if i.Status.IsSettled() {
		return 0
	}
	if today.After(i.DueDate) {
		return calendar.DaysBetween(i.DueDate, today)
	}
	return 0
}

// IsOverdue reports whether the due date has passed without full settlement.
func (i *Installment) IsOverdue(today calendar.Date) bool {
	return !i.Status.IsSettled() && today.After(i.DueDate)
}

// PendingPenalty computes the penalty the installment would accrue if paid
// today, on the unpaid scheduled amount only. It does not mutate anything.
func (i *Installment) PendingPenalty(dailyRatePercent float64, today calendar.Date) Money {
	return finance.Penalty(i.Amount-i.PaidAmount, dailyRatePercent, i.DelayDays(today))
}
