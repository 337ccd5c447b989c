// Package sheets defines the ports for the spreadsheet mirror. The couple
// keeps a shared spreadsheet as an external, human-readable copy of the
// ledger; the worker appends a row there for every mirrored record.
package sheets

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one mirrored ledger line.
type Row struct {
	Date        time.Time
	Collection  string
	RecordID    string
	Description string
	Amount      decimal.Decimal
	Actor       string
}

// LedgerWriter appends rows to the mirror. Implementations must tolerate
// duplicate rows; the event stream is at-least-once.
type LedgerWriter interface {
	Append(ctx context.Context, row Row) (rowRef string, err error)
}
