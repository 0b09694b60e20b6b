package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
)

func mustSolar(t *testing.T, year, month, day int) calendar.Date {
	t.Helper()
	d, err := calendar.ToCivil(year, month, day)
	require.NoError(t, err)
	return d
}

func testTerms(start calendar.Date) Terms {
	return Terms{
		CustomerID:       "cust-1",
		Principal:        12_000_000,
		AnnualRate:       18,
		InstallmentCount: 12,
		StartDate:        start,
	}
}

// =============================================================================
// SCHEDULE GENERATION
// =============================================================================

func TestBuildSchedule_EvenSplit(t *testing.T) {
	// GIVEN: 12,000,000 at 18% over 12 months (divides evenly)
	start := mustSolar(t, 1403, 1, 15)
	c, insts, err := BuildSchedule(testTerms(start), "C14030001", time.Now())
	require.NoError(t, err)

	// THEN: derived amounts match the flat simple-interest formula
	assert.Equal(t, Money(2_160_000), c.InterestAmount)
	assert.Equal(t, Money(14_160_000), c.TotalAmount)
	assert.Equal(t, Money(1_180_000), c.InstallmentAmount)
	assert.Equal(t, ContractActive, c.Status)
	assert.Equal(t, "C14030001", c.ContractNumber)

	require.Len(t, insts, 12)
	var sum Money
	for _, inst := range insts {
		assert.Equal(t, Money(1_180_000), inst.Amount)
		assert.Equal(t, InstallmentPending, inst.Status)
		assert.Equal(t, c.ID, inst.ContractID)
		sum += inst.Amount
	}
	assert.Equal(t, c.TotalAmount, sum, "installments must sum to the total exactly")
}

func TestBuildSchedule_RemainderIntoLastInstallment(t *testing.T) {
	// GIVEN: 10,000,000 at 15% over 7 months (does not divide evenly)
	start := mustSolar(t, 1403, 1, 15)
	terms := Terms{
		CustomerID:       "cust-1",
		Principal:        10_000_000,
		AnnualRate:       15,
		InstallmentCount: 7,
		StartDate:        start,
	}
	c, insts, err := BuildSchedule(terms, "C14030001", time.Now())
	require.NoError(t, err)

	assert.Equal(t, Money(875_000), c.InterestAmount)
	assert.Equal(t, Money(10_875_000), c.TotalAmount)
	assert.Equal(t, Money(1_553_571), c.InstallmentAmount)

	// THEN: first 6 flat, the 3-rial shortfall goes to the last
	require.Len(t, insts, 7)
	var sum Money
	for i, inst := range insts {
		if i < 6 {
			assert.Equal(t, Money(1_553_571), inst.Amount, "installment %d", i+1)
		} else {
			assert.Equal(t, Money(1_553_574), inst.Amount, "last installment carries the remainder")
		}
		sum += inst.Amount
	}
	assert.Equal(t, c.TotalAmount, sum)
}

func TestBuildSchedule_DueDatesOneSolarMonthApart(t *testing.T) {
	start := mustSolar(t, 1403, 6, 31)
	terms := testTerms(start)
	terms.InstallmentCount = 3

	c, insts, err := BuildSchedule(terms, "C14030001", time.Now())
	require.NoError(t, err)

	// Shahrivar 31 steps clamp into the 30-day autumn months.
	assert.Equal(t, "1403/07/30", calendar.FormatSolar(insts[0].DueDate))
	assert.Equal(t, "1403/08/30", calendar.FormatSolar(insts[1].DueDate))
	assert.Equal(t, "1403/09/30", calendar.FormatSolar(insts[2].DueDate))

	// End date is the last due date, and dates are strictly increasing.
	assert.True(t, c.EndDate.Equal(insts[2].DueDate))
	for i := 1; i < len(insts); i++ {
		assert.True(t, insts[i-1].DueDate.Before(insts[i].DueDate))
	}
}

func TestBuildSchedule_PenaltyRateDefault(t *testing.T) {
	start := mustSolar(t, 1403, 1, 15)

	c, _, err := BuildSchedule(testTerms(start), "C14030001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, DefaultPenaltyRate, c.PenaltyRate)

	custom := 1.25
	terms := testTerms(start)
	terms.PenaltyRate = &custom
	c, _, err = BuildSchedule(terms, "C14030002", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1.25, c.PenaltyRate)
}

func TestBuildSchedule_Validation(t *testing.T) {
	start := mustSolar(t, 1403, 1, 15)

	bad := testTerms(start)
	bad.Principal = 0
	_, _, err := BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad = testTerms(start)
	bad.AnnualRate = 101
	_, _, err = BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad = testTerms(start)
	bad.InstallmentCount = 0
	_, _, err = BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad = testTerms(start)
	bad.InstallmentCount = MaxInstallments + 1
	_, _, err = BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad = testTerms(start)
	bad.StartDate = calendar.Date{}
	_, _, err = BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	negPenalty := -0.5
	bad = testTerms(start)
	bad.PenaltyRate = &negPenalty
	_, _, err = BuildSchedule(bad, "C14030001", time.Now())
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestBuildSchedule_ZeroRateContract(t *testing.T) {
	start := mustSolar(t, 1403, 1, 15)
	terms := testTerms(start)
	terms.AnnualRate = 0

	c, insts, err := BuildSchedule(terms, "C14030001", time.Now())
	require.NoError(t, err)
	assert.Equal(t, Money(0), c.InterestAmount)
	assert.Equal(t, c.PrincipalAmount, c.TotalAmount)

	var sum Money
	for _, inst := range insts {
		assert.Equal(t, Money(0), inst.InterestPortion)
		sum += inst.Amount
	}
	assert.Equal(t, c.TotalAmount, sum)
}

// =============================================================================
// CONTRACT NUMBERING
// =============================================================================

func TestNextContractNumber(t *testing.T) {
	assert.Equal(t, "C14030001", NextContractNumber("", 1403))
	assert.Equal(t, "C14030002", NextContractNumber("C14030001", 1403))
	assert.Equal(t, "C14030100", NextContractNumber("C14030099", 1403))

	// New year resets the sequence.
	assert.Equal(t, "C14040001", NextContractNumber("C14030042", 1404))

	// Unparseable previous numbers restart the series.
	assert.Equal(t, "C14030001", NextContractNumber("C1403XYZW", 1403))
	assert.Equal(t, "C14030001", NextContractNumber("garbage", 1403))
}
