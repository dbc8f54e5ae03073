package domain

import "time"

// ValidateCharge rejects charge components that could construct a negative
// final amount.
func ValidateCharge(amount, lateFee, discount int64) error {
	if amount <= 0 || lateFee < 0 || discount < 0 {
		return ErrInvalidAmount
	}
	if amount+lateFee-discount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Recompute rewrites the derived fields of a fee from its inputs. It is the
// only place totals and status change, and it is invoked once at the end of
// every mutating operation. WAIVED freezes the status; balance stays derived
// for audit.
func Recompute(fee *Fee, today time.Time) {
	fee.FinalAmount = fee.Amount + fee.LateFee - fee.Discount
	fee.BalanceAmount = fee.FinalAmount - fee.PaidAmount

	if fee.Status == FeeStatusWaived {
		return
	}

	switch {
	case fee.PaidAmount == 0:
		if dateAfter(today, fee.DueDate) {
			fee.Status = FeeStatusOverdue
		} else {
			fee.Status = FeeStatusPending
		}
	case fee.PaidAmount >= fee.FinalAmount:
		fee.Status = FeeStatusPaid
		if fee.PaidDate == nil {
			paid := truncateToDay(today)
			fee.PaidDate = &paid
		}
	default:
		fee.Status = FeeStatusPartial
	}
}

// DaysOverdue returns how many whole days the fee is past due. Non-zero only
// for OVERDUE fees and PENDING fees already past their due date.
func DaysOverdue(fee *Fee, today time.Time) int {
	pastDue := dateAfter(today, fee.DueDate)
	if fee.Status != FeeStatusOverdue && !(fee.Status == FeeStatusPending && pastDue) {
		return 0
	}
	days := int(truncateToDay(today).Sub(truncateToDay(fee.DueDate)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// PaymentPercentage reports paid/final rounded to a whole percent, capped
// at 100.
func PaymentPercentage(fee *Fee) int {
	if fee.FinalAmount <= 0 {
		if fee.PaidAmount > 0 {
			return 100
		}
		return 0
	}
	if fee.PaidAmount <= 0 {
		return 0
	}
	percent := int((fee.PaidAmount*100 + fee.FinalAmount/2) / fee.FinalAmount)
	if percent > 100 {
		return 100
	}
	return percent
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dateAfter(a, b time.Time) bool {
	return truncateToDay(a).After(truncateToDay(b))
}
