package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	Gain        TransactionType = "GAIN"
	Expenditure TransactionType = "EXPENSE"
)

const (
	LegacyOnce     LegacyRecurrence = "ONCE"
	LegacyFixed    LegacyRecurrence = "FIXED"
	LegacyDuration LegacyRecurrence = "DURATION"
)

type (
	TransactionType  string
	LegacyRecurrence string

	// Transaction is an entry in the legacy "finances" ledger, kept for the
	// couple report. New entries go through Income/Expense instead.
	Transaction struct {
		ID         string
		UserID     string
		Description string
		Value      decimal.Decimal
		Type       TransactionType
		Recurrence LegacyRecurrence
		Category   string
		Date       time.Time
		EndDate    time.Time
	}
)

// Legacy records carried a very large month count instead of a dedicated
// fixed kind. Anything at or above this is treated as fixed-monthly.
const fixedMonthsSentinel = 999

// NormalizeIncomeKind maps the overlapping legacy type strings and month
// counts onto the closed RecurrenceKind set. All records pass through this
// single step at the store boundary.
func NormalizeIncomeKind(typ string, totalMonths int) (RecurrenceKind, int) {
	switch typ {
	case string(FixedMonthly):
		return FixedMonthly, 0
	case string(Period):
		if totalMonths >= fixedMonthsSentinel {
			return FixedMonthly, 0
		}
		if totalMonths < 1 {
			totalMonths = 1
		}
		return Period, totalMonths
	default:
		return OneTime, 0
	}
}

// NormalizeExpenseKind maps the legacy isFixed/isInstallment booleans and
// type strings onto the closed RecurrenceKind set.
func NormalizeExpenseKind(typ string, isFixed, isInstallment bool, installments int) (RecurrenceKind, int) {
	switch {
	case isFixed || typ == string(FixedMonthly):
		return FixedMonthly, 0
	case isInstallment || typ == string(Installment):
		if installments < 1 {
			installments = 1
		}
		return Installment, installments
	default:
		return OneTime, 0
	}
}
