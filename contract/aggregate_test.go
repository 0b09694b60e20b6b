package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
)

func aggDate(t *testing.T) calendar.Date {
	t.Helper()
	d, err := calendar.ToCivil(1403, 4, 1)
	require.NoError(t, err)
	return d
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, nil, aggDate(t))

	assert.Equal(t, 0, stats.TotalContracts)
	assert.Equal(t, 0, stats.ActiveContracts)
	assert.Equal(t, 0, stats.OverdueInstallments)
	assert.Equal(t, Money(0), stats.TotalReceivable)
	assert.Equal(t, Money(0), stats.TotalReceived)
	assert.Equal(t, Money(0), stats.TotalOverdue)
	assert.Equal(t, Money(0), stats.TotalPenalty)
	assert.Equal(t, 0, stats.CollectionPercentage)
	assert.Empty(t, stats.ContractsByStatus)
}

func TestAggregate_MixedPortfolio(t *testing.T) {
	today := aggDate(t)
	due := func(y, m, d int) calendar.Date {
		t.Helper()
		dd, err := calendar.ToCivil(y, m, d)
		require.NoError(t, err)
		return dd
	}

	contracts := []Contract{
		{ID: "c1", Status: ContractActive, TotalAmount: 14_160_000},
		{ID: "c2", Status: ContractActive, TotalAmount: 10_875_000},
		{ID: "c3", Status: ContractCompleted, TotalAmount: 5_000_000},
		{ID: "c4", Status: ContractCancelled, TotalAmount: 8_000_000},
	}

	installments := []Installment{
		// Settled, counts toward received.
		{ContractID: "c1", Amount: 1_180_000, PaidAmount: 1_180_000, DueDate: due(1403, 2, 15), Status: InstallmentPaid},
		// Overdue with penalty, partially paid.
		{ContractID: "c1", Amount: 1_180_000, PaidAmount: 300_000, PenaltyAmount: 40_000, DueDate: due(1403, 3, 15), Status: InstallmentPartiallyPaid},
		// Pending and not yet due.
		{ContractID: "c1", Amount: 1_180_000, DueDate: due(1403, 4, 15), Status: InstallmentPending},
		// Marked overdue by a sweep, nothing paid.
		{ContractID: "c2", Amount: 1_553_571, DueDate: due(1403, 2, 20), Status: InstallmentOverdue},
	}

	stats := Aggregate(contracts, installments, today)

	assert.Equal(t, 4, stats.TotalContracts)
	assert.Equal(t, 2, stats.ActiveContracts)
	assert.Equal(t, 2, stats.ContractsByStatus[ContractActive])
	assert.Equal(t, 1, stats.ContractsByStatus[ContractCompleted])
	assert.Equal(t, 1, stats.ContractsByStatus[ContractCancelled])

	// Receivable counts ACTIVE contracts only.
	assert.Equal(t, Money(25_035_000), stats.TotalReceivable)
	assert.Equal(t, Money(1_180_000), stats.TotalReceived)

	// Both past-due open installments count, on unpaid amounts.
	assert.Equal(t, 2, stats.OverdueInstallments)
	assert.Equal(t, Money(880_000+1_553_571), stats.TotalOverdue)
	assert.Equal(t, Money(40_000), stats.TotalPenalty)

	// 1,180,000 / 25,035,000 truncates to 4.
	assert.Equal(t, 4, stats.CollectionPercentage)
}

func TestAggregate_PartialPaymentsNotReceivedUntilSettled(t *testing.T) {
	today := aggDate(t)
	installments := []Installment{
		{Amount: 1_000_000, PaidAmount: 999_999, DueDate: today.AddDays(30), Status: InstallmentPartiallyPaid},
	}

	stats := Aggregate(nil, installments, today)
	assert.Equal(t, Money(0), stats.TotalReceived)
}

func TestCollectionPercentage_Caps(t *testing.T) {
	assert.Equal(t, 0, collectionPercentage(500, 0))
	assert.Equal(t, 0, collectionPercentage(500, -1))
	assert.Equal(t, 100, collectionPercentage(1_500, 1_000), "overcollection caps at 100")
	assert.Equal(t, 50, collectionPercentage(500, 1_000))
}
