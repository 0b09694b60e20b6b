package contract_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
	"github.com/tiknet10-byte/paymaster-v2/contract/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func solar(t *testing.T, year, month, day int) calendar.Date {
	t.Helper()
	d, err := calendar.ToCivil(year, month, day)
	require.NoError(t, err)
	return d
}

// newContract creates a ledger over a memory store with one active
// contract: 12,000,000 at 18% over 12 installments starting 1403/01/15.
func newContract(t *testing.T) (*contract.Ledger, *store.Memory, *contract.Contract, []contract.Installment) {
	t.Helper()
	mem := store.NewMemory()
	mem.AddCustomer("cust-1")
	ledger := contract.NewLedger(mem)

	today := solar(t, 1403, 1, 10)
	c, insts, err := ledger.CreateContract(context.Background(), contract.Terms{
		CustomerID:       "cust-1",
		Principal:        12_000_000,
		AnnualRate:       18,
		InstallmentCount: 12,
		StartDate:        solar(t, 1403, 1, 15),
	}, today)
	require.NoError(t, err)
	require.Len(t, insts, 12)
	return ledger, mem, c, insts
}

// =============================================================================
// CONTRACT CREATION
// =============================================================================

func TestCreateContract_AllocatesSequentialNumbers(t *testing.T) {
	mem := store.NewMemory()
	mem.AddCustomer("cust-1")
	ledger := contract.NewLedger(mem)
	ctx := context.Background()
	today := solar(t, 1403, 1, 10)

	terms := contract.Terms{
		CustomerID:       "cust-1",
		Principal:        12_000_000,
		AnnualRate:       18,
		InstallmentCount: 12,
		StartDate:        solar(t, 1403, 1, 15),
	}

	first, _, err := ledger.CreateContract(ctx, terms, today)
	require.NoError(t, err)
	second, _, err := ledger.CreateContract(ctx, terms, today)
	require.NoError(t, err)

	assert.Equal(t, "C14030001", first.ContractNumber)
	assert.Equal(t, "C14030002", second.ContractNumber)

	// A later year restarts the sequence.
	third, _, err := ledger.CreateContract(ctx, terms, solar(t, 1404, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, "C14040001", third.ContractNumber)
}

func TestCreateContract_UnknownCustomer(t *testing.T) {
	mem := store.NewMemory()
	ledger := contract.NewLedger(mem)

	_, _, err := ledger.CreateContract(context.Background(), contract.Terms{
		CustomerID:       "nobody",
		Principal:        12_000_000,
		AnnualRate:       18,
		InstallmentCount: 12,
		StartDate:        solar(t, 1403, 1, 15),
	}, solar(t, 1403, 1, 10))

	assert.True(t, contract.IsNotFound(err))
}

func TestCreateContract_AnonymousCustomerAllowed(t *testing.T) {
	// An empty customer id skips the existence check: walk-in contracts.
	mem := store.NewMemory()
	ledger := contract.NewLedger(mem)

	c, _, err := ledger.CreateContract(context.Background(), contract.Terms{
		Principal:        12_000_000,
		AnnualRate:       18,
		InstallmentCount: 12,
		StartDate:        solar(t, 1403, 1, 15),
	}, solar(t, 1403, 1, 10))

	require.NoError(t, err)
	assert.Empty(t, c.CustomerID)
}

// =============================================================================
// PAYMENT APPLICATION
// =============================================================================

func TestPayInstallment_FullOnTime(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()

	// WHEN: paying the full amount on the due date
	today := solar(t, 1403, 2, 15)
	inst, err := ledger.PayInstallment(ctx, insts[0].ID, insts[0].Amount, contract.PayCard, "RCPT-1", "", today)
	require.NoError(t, err)

	// THEN: settled with no penalty
	assert.Equal(t, contract.InstallmentPaid, inst.Status)
	assert.Equal(t, insts[0].Amount, inst.PaidAmount)
	assert.Equal(t, contract.Money(0), inst.PenaltyAmount)
	assert.Equal(t, contract.PayCard, inst.PaymentMethod)
	assert.Equal(t, "RCPT-1", inst.ReceiptNumber)
	assert.False(t, inst.PaymentDate.IsZero())
}

func TestPayInstallment_PartialThenFull(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 10)

	inst, err := ledger.PayInstallment(ctx, insts[0].ID, 500_000, contract.PayCash, "", "", today)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPartiallyPaid, inst.Status)
	assert.Equal(t, contract.Money(500_000), inst.PaidAmount)

	inst, err = ledger.PayInstallment(ctx, insts[0].ID, inst.Remaining(), contract.PayCash, "", "", today)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, inst.Status)
	assert.Equal(t, insts[0].Amount, inst.PaidAmount)
}

func TestPayInstallment_LateAccruesPenalty(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()

	// First installment due 1403/02/15; paying 10 days late at the
	// default 0.5%/day accrues 59,000 on the 1,180,000 unpaid amount.
	today := solar(t, 1403, 2, 25)
	inst, err := ledger.PayInstallment(ctx, insts[0].ID, insts[0].Amount, contract.PayCash, "", "", today)
	require.NoError(t, err)

	assert.Equal(t, contract.Money(59_000), inst.PenaltyAmount)
	assert.Equal(t, contract.InstallmentPartiallyPaid, inst.Status,
		"payment covered the amount but not the penalty")
	assert.Equal(t, contract.Money(59_000), inst.Remaining())

	// Settling the penalty on the same day accrues nothing further on
	// the already-paid scheduled amount.
	inst, err = ledger.PayInstallment(ctx, insts[0].ID, 59_000, contract.PayCash, "", "", today)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, inst.Status)
	assert.Equal(t, contract.Money(59_000), inst.PenaltyAmount)
}

func TestPayInstallment_RejectsSettled(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 15)

	_, err := ledger.PayInstallment(ctx, insts[0].ID, insts[0].Amount, contract.PayCash, "", "", today)
	require.NoError(t, err)

	_, err = ledger.PayInstallment(ctx, insts[0].ID, 1, contract.PayCash, "", "", today)
	assert.ErrorIs(t, err, contract.ErrAlreadySettled)
}

func TestPayInstallment_RejectsNonPositiveAmount(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 15)

	_, err := ledger.PayInstallment(ctx, insts[0].ID, 0, contract.PayCash, "", "", today)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)

	_, err = ledger.PayInstallment(ctx, insts[0].ID, -100, contract.PayCash, "", "", today)
	assert.ErrorIs(t, err, contract.ErrInvalidAmount)
}

func TestPayInstallment_UnknownInstallment(t *testing.T) {
	ledger, _, _, _ := newContract(t)

	_, err := ledger.PayInstallment(context.Background(), "no-such-id", 100, contract.PayCash, "", "", solar(t, 1403, 2, 15))
	assert.True(t, contract.IsNotFound(err))
}

// =============================================================================
// QUICK SETTLE
// =============================================================================

func TestQuickSettle_OverduePaysAmountPlusPenalty(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()

	// 10 days late: settle must cover the 59,000 penalty too.
	today := solar(t, 1403, 2, 25)
	inst, err := ledger.QuickSettle(ctx, insts[0].ID, today)
	require.NoError(t, err)

	assert.Equal(t, contract.InstallmentPaid, inst.Status)
	assert.Equal(t, contract.Money(59_000), inst.PenaltyAmount)
	assert.Equal(t, inst.Amount+inst.PenaltyAmount, inst.PaidAmount)
	assert.Equal(t, contract.PayCash, inst.PaymentMethod)
	assert.True(t, strings.HasPrefix(inst.ReceiptNumber, "QUICKPAY-"))
	assert.Equal(t, contract.Money(0), inst.Remaining())
}

func TestQuickSettle_AfterPartialPayment(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 10)

	_, err := ledger.PayInstallment(ctx, insts[0].ID, 400_000, contract.PayCash, "", "", today)
	require.NoError(t, err)

	inst, err := ledger.QuickSettle(ctx, insts[0].ID, today)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, inst.Status)
	assert.Equal(t, inst.Amount, inst.PaidAmount)
}

func TestQuickSettle_RejectsSettled(t *testing.T) {
	ledger, _, _, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 15)

	_, err := ledger.QuickSettle(ctx, insts[0].ID, today)
	require.NoError(t, err)

	_, err = ledger.QuickSettle(ctx, insts[0].ID, today)
	assert.ErrorIs(t, err, contract.ErrAlreadySettled)
}

// =============================================================================
// COMPLETION
// =============================================================================

func TestContractCompletion_AfterLastInstallment(t *testing.T) {
	ledger, mem, c, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 1)

	for i, inst := range insts {
		_, err := ledger.QuickSettle(ctx, inst.ID, today)
		require.NoError(t, err)

		stored, err := mem.GetContract(ctx, c.ID)
		require.NoError(t, err)
		if i < len(insts)-1 {
			assert.Equal(t, contract.ContractActive, stored.Status, "after %d settlements", i+1)
		} else {
			assert.Equal(t, contract.ContractCompleted, stored.Status)
		}
	}
}

func TestContractCompletion_IsTerminal(t *testing.T) {
	ledger, mem, c, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 1)

	for _, inst := range insts {
		_, err := ledger.QuickSettle(ctx, inst.ID, today)
		require.NoError(t, err)
	}

	// Completed contracts cannot be cancelled.
	_, err := ledger.CancelContract(ctx, c.ID, "انصراف مشتری", today)
	assert.ErrorIs(t, err, contract.ErrAlreadyCompleted)

	stored, err := mem.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ContractCompleted, stored.Status)
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestCancelContract(t *testing.T) {
	ledger, mem, c, _ := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 3, 1)

	cancelled, err := ledger.CancelContract(ctx, c.ID, "انصراف مشتری", today)
	require.NoError(t, err)

	assert.Equal(t, contract.ContractCancelled, cancelled.Status)
	assert.Contains(t, cancelled.Description, "1403/03/01")
	assert.Contains(t, cancelled.Description, "انصراف مشتری")

	stored, err := mem.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ContractCancelled, stored.Status)
}

func TestCancelContract_Unknown(t *testing.T) {
	ledger, _, _, _ := newContract(t)

	_, err := ledger.CancelContract(context.Background(), "no-such-id", "reason", solar(t, 1403, 3, 1))
	assert.True(t, contract.IsNotFound(err))
}

// =============================================================================
// SWEEPS
// =============================================================================

func TestSweepOverdue(t *testing.T) {
	ledger, mem, c, insts := newContract(t)
	ctx := context.Background()

	// Two installments (due 02/15 and 03/15) are past due by 1403/04/01.
	today := solar(t, 1403, 4, 1)
	marked, err := ledger.SweepOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	first, err := mem.GetInstallment(ctx, insts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentOverdue, first.Status)

	// Idempotent: a second sweep finds nothing left.
	marked, err = ledger.SweepOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, marked)

	// Status refresh flips the contract to OVERDUE.
	require.NoError(t, ledger.RefreshStatuses(ctx, today))
	stored, err := mem.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, contract.ContractOverdue, stored.Status)
}

func TestSweepOverdue_LeavesPaidAlone(t *testing.T) {
	ledger, mem, _, insts := newContract(t)
	ctx := context.Background()

	_, err := ledger.PayInstallment(ctx, insts[0].ID, insts[0].Amount, contract.PayCash, "", "", solar(t, 1403, 2, 15))
	require.NoError(t, err)

	_, err = ledger.SweepOverdue(ctx, solar(t, 1403, 4, 1))
	require.NoError(t, err)

	first, err := mem.GetInstallment(ctx, insts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPaid, first.Status)
}

func TestSweepOverdue_DueTodayNotOverdue(t *testing.T) {
	ledger, mem, _, insts := newContract(t)
	ctx := context.Background()

	// Due date itself is not late.
	marked, err := ledger.SweepOverdue(ctx, solar(t, 1403, 2, 15))
	require.NoError(t, err)
	assert.Equal(t, 0, marked)

	first, err := mem.GetInstallment(ctx, insts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, contract.InstallmentPending, first.Status)
}

// =============================================================================
// SETTLEMENT QUOTES
// =============================================================================

func TestEarlySettlementQuote(t *testing.T) {
	ledger, _, c, insts := newContract(t)
	ctx := context.Background()
	today := solar(t, 1403, 2, 15)

	// Pay off the first two installments, quote the remaining ten.
	for _, inst := range insts[:2] {
		_, err := ledger.QuickSettle(ctx, inst.ID, today)
		require.NoError(t, err)
	}

	// 10 unsettled installments: principal 10*1,000,000, interest
	// 10*180,000 discounted 20% -> 10,000,000 + 1,440,000.
	quote, err := ledger.EarlySettlementQuote(ctx, c.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, contract.Money(11_440_000), quote)

	// Zero discount is just the outstanding sum.
	quote, err = ledger.EarlySettlementQuote(ctx, c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, contract.Money(11_800_000), quote)
}

func TestEarlySettlementQuote_UnknownContract(t *testing.T) {
	ledger, _, _, _ := newContract(t)

	_, err := ledger.EarlySettlementQuote(context.Background(), "no-such-id", 10)
	assert.True(t, contract.IsNotFound(err))
}
