/*
ledger.go - Payment application and lifecycle state machine

PURPOSE:
  The Ledger is the single write path for contracts and installments
  after creation. It applies payments (computing penalties as it goes),
  settles installments, cancels contracts, and advances the two status
  machines while keeping them consistent with each other.

STATE MACHINES:
  Installment: PENDING/OVERDUE/PARTIALLY_PAID are open; PAID (and the
  equivalent COMPLETED, accepted from external data) are terminal.
  Contract: COMPLETED is terminal and one-way; an ACTIVE contract with at
  least one overdue open installment becomes OVERDUE; CANCELLED is an
  explicit operation that never touches installments.

PENALTY ACCRUAL:
  When a payment lands after the due date, the penalty on the unpaid
  scheduled amount is computed for the full delay and ADDED to the
  accumulated penalty, never overwritten.

DETERMINISM:
  Every date-sensitive operation takes today as an explicit parameter.
  The ledger never reads the system clock.

CONCURRENCY:
  The store is assumed to serialize writers per contract. Payment
  application and the completion re-evaluation for the same contract must
  not run concurrently; the sweep may run concurrently across different
  contracts.
*/
package contract

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/finance"
)

// Ledger coordinates the engine's state mutations over a Store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// =============================================================================
// CONTRACT CREATION
// =============================================================================

// CreateContract allocates the next contract number, builds the
// amortization schedule and persists the aggregate. The contract's
// creation timestamp derives from today, keeping the operation a pure
// function of its inputs.
func (l *Ledger) CreateContract(ctx context.Context, terms Terms, today calendar.Date) (*Contract, []Installment, error) {
	if terms.CustomerID != "" {
		ok, err := l.store.CustomerExists(ctx, terms.CustomerID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, &NotFoundError{Kind: "customer", ID: terms.CustomerID}
		}
	}

	last, err := l.store.LastContractNumber(ctx)
	if err != nil {
		return nil, nil, err
	}
	number := NextContractNumber(last, calendar.ToSolar(today).Year)

	c, installments, err := BuildSchedule(terms, number, today.Time)
	if err != nil {
		return nil, nil, err
	}
	if err := l.store.SaveContract(ctx, c, installments); err != nil {
		return nil, nil, err
	}
	return c, installments, nil
}

// =============================================================================
// PAYMENT APPLICATION
// =============================================================================

// PayInstallment applies a payment against an installment as of today,
// then re-evaluates the owning contract for completion.
func (l *Ledger) PayInstallment(ctx context.Context, installmentID string, amount Money, method PaymentMethod, receipt, notes string, today calendar.Date) (*Installment, error) {
	inst, err := l.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &NotFoundError{Kind: "installment", ID: installmentID}
	}
	c, err := l.store.GetContract(ctx, inst.ContractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Kind: "contract", ID: inst.ContractID}
	}

	if err := applyPayment(c, inst, amount, method, receipt, notes, today); err != nil {
		return nil, err
	}
	if err := l.store.UpdateInstallment(ctx, inst); err != nil {
		return nil, err
	}
	if err := l.checkCompletion(ctx, c); err != nil {
		return nil, err
	}
	return inst, nil
}

// applyPayment is the pure payment-application rule. It mutates the
// installment in place and leaves persistence to the caller.
func applyPayment(c *Contract, inst *Installment, amount Money, method PaymentMethod, receipt, notes string, today calendar.Date) error {
	if inst.Status.IsSettled() {
		return fmt.Errorf("installment %d of %s: %w", inst.Number, c.ContractNumber, ErrAlreadySettled)
	}
	if amount <= 0 {
		return &InvalidAmountError{Field: "payment", Amount: amount, Reason: "must be positive"}
	}

	if inst.IsOverdue(today) {
		inst.PenaltyAmount += inst.PendingPenalty(c.PenaltyRate, today)
	}

	inst.PaidAmount += amount
	inst.PaymentDate = today.Time
	inst.PaymentMethod = method
	inst.ReceiptNumber = receipt
	inst.Notes = notes

	switch {
	case inst.PaidAmount >= inst.Amount+inst.PenaltyAmount:
		inst.Status = InstallmentPaid
	case inst.PaidAmount > 0:
		inst.Status = InstallmentPartiallyPaid
	}
	return nil
}

// QuickSettle pays off an installment's entire outstanding balance,
// including the penalty the settlement itself triggers, in one cash
// payment.
func (l *Ledger) QuickSettle(ctx context.Context, installmentID string, today calendar.Date) (*Installment, error) {
	inst, err := l.store.GetInstallment(ctx, installmentID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, &NotFoundError{Kind: "installment", ID: installmentID}
	}
	c, err := l.store.GetContract(ctx, inst.ContractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Kind: "contract", ID: inst.ContractID}
	}

	// The settle amount must also cover the penalty that applying the
	// payment today will accrue, or the installment would land in
	// PARTIALLY_PAID instead of PAID.
	var pending Money
	if inst.IsOverdue(today) {
		pending = inst.PendingPenalty(c.PenaltyRate, today)
	}
	remaining := inst.Remaining() + pending
	if remaining <= 0 && inst.Status.IsSettled() {
		return nil, fmt.Errorf("installment %d of %s: %w", inst.Number, c.ContractNumber, ErrAlreadySettled)
	}

	receipt := "QUICKPAY-" + uuid.New().String()[:8]
	if err := applyPayment(c, inst, remaining, PayCash, receipt, "تسویه سریع قسط", today); err != nil {
		return nil, err
	}
	if err := l.store.UpdateInstallment(ctx, inst); err != nil {
		return nil, err
	}
	if err := l.checkCompletion(ctx, c); err != nil {
		return nil, err
	}
	return inst, nil
}

// checkCompletion promotes a contract to COMPLETED once every installment
// is settled. COMPLETED is terminal: already-completed contracts are
// never re-evaluated.
func (l *Ledger) checkCompletion(ctx context.Context, c *Contract) error {
	if c.Status == ContractCompleted {
		return nil
	}
	installments, err := l.store.ListInstallments(ctx, c.ID)
	if err != nil {
		return err
	}
	// A contract with no stored installments is never "fully settled".
	if len(installments) == 0 {
		return nil
	}
	for _, inst := range installments {
		if !inst.Status.IsSettled() {
			return nil
		}
	}
	c.Status = ContractCompleted
	return l.store.UpdateContract(ctx, c)
}

// =============================================================================
// CANCELLATION
// =============================================================================

// CancelContract sets a contract to CANCELLED and appends a timestamped
// reason to its description. Installments are left untouched. Completed
// contracts cannot be cancelled.
func (l *Ledger) CancelContract(ctx context.Context, contractID, reason string, today calendar.Date) (*Contract, error) {
	c, err := l.store.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &NotFoundError{Kind: "contract", ID: contractID}
	}
	if c.Status == ContractCompleted {
		return nil, fmt.Errorf("contract %s: %w", c.ContractNumber, ErrAlreadyCompleted)
	}

	c.Status = ContractCancelled
	c.Description += fmt.Sprintf("\n[لغو شده در %s]: %s", calendar.FormatSolar(today), reason)

	if err := l.store.UpdateContract(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// =============================================================================
// PERIODIC SWEEPS
// =============================================================================

// SweepOverdue marks every PENDING installment whose due date has passed
// as OVERDUE and returns how many were updated. Idempotent: a second
// sweep with the same today finds nothing left to mark. PARTIALLY_PAID
// installments are governed by payment application only, and settled
// installments never regress.
func (l *Ledger) SweepOverdue(ctx context.Context, today calendar.Date) (int, error) {
	pending, err := l.store.ListPendingDueBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range pending {
		inst := pending[i]
		inst.Status = InstallmentOverdue
		if err := l.store.UpdateInstallment(ctx, &inst); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// RefreshStatuses re-evaluates every ACTIVE contract: fully settled ones
// become COMPLETED, those with an overdue open installment become
// OVERDUE. Idempotent.
func (l *Ledger) RefreshStatuses(ctx context.Context, today calendar.Date) error {
	active, err := l.store.ListContractsByStatus(ctx, ContractActive)
	if err != nil {
		return err
	}
	for i := range active {
		c := active[i]
		installments, err := l.store.ListInstallments(ctx, c.ID)
		if err != nil {
			return err
		}

		allSettled := true
		hasOverdue := false
		for _, inst := range installments {
			if !inst.Status.IsSettled() {
				allSettled = false
			}
			if inst.IsOverdue(today) {
				hasOverdue = true
			}
		}

		switch {
		case allSettled && len(installments) > 0:
			c.Status = ContractCompleted
		case hasOverdue:
			c.Status = ContractOverdue
		default:
			continue
		}
		if err := l.store.UpdateContract(ctx, &c); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// SETTLEMENT QUOTES
// =============================================================================

// EarlySettlementQuote prices a full early payoff of a contract: the
// remaining principal plus the remaining interest discounted at the given
// rate, summed over the unsettled installments.
func (l *Ledger) EarlySettlementQuote(ctx context.Context, contractID string, discountRatePercent float64) (Money, error) {
	c, err := l.store.GetContract(ctx, contractID)
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, &NotFoundError{Kind: "contract", ID: contractID}
	}
	installments, err := l.store.ListInstallments(ctx, c.ID)
	if err != nil {
		return 0, err
	}

	var remainingPrincipal, remainingInterest Money
	for _, inst := range installments {
		if inst.Status.IsSettled() {
			continue
		}
		remainingPrincipal += inst.PrincipalPortion
		remainingInterest += inst.InterestPortion
	}
	return finance.EarlySettlement(remainingPrincipal, remainingInterest, discountRatePercent), nil
}
