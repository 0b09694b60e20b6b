/*
aggregate.go - Portfolio-level read-side folds

PURPOSE:
  Pure read-only summaries over collections of contracts and
  installments. Nothing here mutates state; the caller supplies the
  current collections and today's date and gets totals back.

  Every fold is defined as zero over an empty collection.
*/
package contract

import (
	"github.com/shopspring/decimal"
	"github.com/tiknet10-byte/paymaster-v2/calendar"
)

// PortfolioStats summarizes ledger state across all contracts.
type PortfolioStats struct {
	TotalContracts      int
	ContractsByStatus   map[ContractStatus]int
	ActiveContracts     int
	OverdueInstallments int

	TotalReceivable Money // contract totals over ACTIVE contracts
	TotalReceived   Money // paid amounts over PAID installments
	TotalOverdue    Money // unpaid scheduled amount over overdue open installments
	TotalPenalty    Money // accrued penalties

	CollectionPercentage int // received/receivable, 0..100
}

// Aggregate folds the given collections into portfolio statistics as of
// today.
func Aggregate(contracts []Contract, installments []Installment, today calendar.Date) PortfolioStats {
	stats := PortfolioStats{
		TotalContracts:    len(contracts),
		ContractsByStatus: make(map[ContractStatus]int),
	}

	for _, c := range contracts {
		stats.ContractsByStatus[c.Status]++
		if c.Status == ContractActive {
			stats.ActiveContracts++
			stats.TotalReceivable += c.TotalAmount
		}
	}

	for _, inst := range installments {
		if inst.Status == InstallmentPaid || inst.Status == InstallmentCompleted {
			stats.TotalReceived += inst.PaidAmount
		}
		if inst.IsOverdue(today) {
			stats.OverdueInstallments++
			stats.TotalOverdue += inst.Amount - inst.PaidAmount
		}
		if inst.PenaltyAmount > 0 {
			stats.TotalPenalty += inst.PenaltyAmount
		}
	}

	stats.CollectionPercentage = collectionPercentage(stats.TotalReceived, stats.TotalReceivable)
	return stats
}

// collectionPercentage is received*100/receivable capped at 100, computed
// on decimals so the multiplication cannot overflow before the division.
func collectionPercentage(received, receivable Money) int {
	if receivable <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(received)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(receivable))).
		IntPart()
	if pct > 100 {
		return 100
	}
	return int(pct)
}
