package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestValidateCharge(t *testing.T) {
	require.NoError(t, ValidateCharge(5000, 0, 0))
	require.NoError(t, ValidateCharge(5000, 200, 5200))

	require.ErrorIs(t, ValidateCharge(0, 0, 0), ErrInvalidAmount)
	require.ErrorIs(t, ValidateCharge(-100, 0, 0), ErrInvalidAmount)
	require.ErrorIs(t, ValidateCharge(100, -1, 0), ErrInvalidAmount)
	require.ErrorIs(t, ValidateCharge(100, 0, -1), ErrInvalidAmount)
	require.ErrorIs(t, ValidateCharge(100, 50, 200), ErrInvalidAmount)
}

func TestRecomputePendingBeforeDueDate(t *testing.T) {
	fee := &Fee{Amount: 500000, DueDate: date(2026, time.March, 10)}

	Recompute(fee, date(2026, time.March, 1))

	require.Equal(t, int64(500000), fee.FinalAmount)
	require.Equal(t, int64(500000), fee.BalanceAmount)
	require.Equal(t, FeeStatusPending, fee.Status)
}

func TestRecomputeOverdueWhenUnpaidPastDue(t *testing.T) {
	fee := &Fee{Amount: 500000, DueDate: date(2026, time.March, 10)}

	Recompute(fee, date(2026, time.March, 11))
	require.Equal(t, FeeStatusOverdue, fee.Status)

	// Due date itself is not yet overdue.
	fee.Status = ""
	Recompute(fee, date(2026, time.March, 10))
	require.Equal(t, FeeStatusPending, fee.Status)
}

func TestRecomputePartialAndPaid(t *testing.T) {
	fee := &Fee{
		Amount:   500000,
		LateFee:  20000,
		Discount: 10000,
		DueDate:  date(2026, time.March, 10),
	}

	fee.PaidAmount = 200000
	Recompute(fee, date(2026, time.March, 15))
	require.Equal(t, int64(510000), fee.FinalAmount)
	require.Equal(t, int64(310000), fee.BalanceAmount)
	require.Equal(t, FeeStatusPartial, fee.Status)
	require.Nil(t, fee.PaidDate)

	fee.PaidAmount = 510000
	Recompute(fee, date(2026, time.March, 20))
	require.Equal(t, int64(0), fee.BalanceAmount)
	require.Equal(t, FeeStatusPaid, fee.Status)
	require.NotNil(t, fee.PaidDate)
	require.Equal(t, date(2026, time.March, 20), *fee.PaidDate)
}

func TestRecomputeKeepsFirstPaidDate(t *testing.T) {
	fee := &Fee{Amount: 1000, DueDate: date(2026, time.March, 10), PaidAmount: 1000}

	Recompute(fee, date(2026, time.March, 5))
	first := *fee.PaidDate

	Recompute(fee, date(2026, time.April, 1))
	require.Equal(t, first, *fee.PaidDate)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	fee := &Fee{
		Amount:     500000,
		LateFee:    5000,
		PaidAmount: 100000,
		DueDate:    date(2026, time.March, 10),
	}
	today := date(2026, time.April, 2)

	Recompute(fee, today)
	snapshot := *fee
	Recompute(fee, today)
	require.Equal(t, snapshot, *fee)
}

func TestRecomputeWaivedIsSticky(t *testing.T) {
	fee := &Fee{
		Amount:     500000,
		PaidAmount: 100000,
		Status:     FeeStatusWaived,
		DueDate:    date(2026, time.March, 10),
	}

	Recompute(fee, date(2026, time.June, 1))

	// Status stays frozen while the balance is still derived for audit.
	require.Equal(t, FeeStatusWaived, fee.Status)
	require.Equal(t, int64(400000), fee.BalanceAmount)
}

func TestDaysOverdue(t *testing.T) {
	fee := &Fee{Status: FeeStatusOverdue, DueDate: date(2026, time.March, 10)}
	require.Equal(t, 5, DaysOverdue(fee, date(2026, time.March, 15)))
	require.Equal(t, 0, DaysOverdue(fee, date(2026, time.March, 10)))

	pending := &Fee{Status: FeeStatusPending, DueDate: date(2026, time.March, 10)}
	require.Equal(t, 2, DaysOverdue(pending, date(2026, time.March, 12)))
	require.Equal(t, 0, DaysOverdue(pending, date(2026, time.March, 9)))

	paid := &Fee{Status: FeeStatusPaid, DueDate: date(2026, time.March, 10)}
	require.Equal(t, 0, DaysOverdue(paid, date(2026, time.June, 1)))
}

func TestPaymentPercentage(t *testing.T) {
	require.Equal(t, 0, PaymentPercentage(&Fee{FinalAmount: 1000}))
	require.Equal(t, 50, PaymentPercentage(&Fee{FinalAmount: 1000, PaidAmount: 500}))
	require.Equal(t, 100, PaymentPercentage(&Fee{FinalAmount: 1000, PaidAmount: 1000}))

	// Rounded to the nearest whole percent.
	require.Equal(t, 33, PaymentPercentage(&Fee{FinalAmount: 300, PaidAmount: 100}))
	require.Equal(t, 67, PaymentPercentage(&Fee{FinalAmount: 300, PaidAmount: 200}))

	// Fully discounted charges read as settled once anything was collected.
	require.Equal(t, 0, PaymentPercentage(&Fee{FinalAmount: 0}))
	require.Equal(t, 100, PaymentPercentage(&Fee{FinalAmount: 0, PaidAmount: 10}))
}
