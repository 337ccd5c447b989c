// Package worker consumes change events and mirrors new ledger records to
// the couple's shared spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reisftw/duogesto/internal/amqp"
	"github.com/reisftw/duogesto/internal/core"
	"github.com/reisftw/duogesto/internal/sheets"
)

// RecordReader fetches the records the mirror cares about. Events carry only
// coordinates; the worker always reads the current state from the store.
type RecordReader interface {
	GetIncome(ctx context.Context, id string) (core.Income, error)
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetMovement(ctx context.Context, id string) (core.Movement, error)
}

type MirrorWorker struct {
	store  RecordReader
	ledger sheets.LedgerWriter
}

func NewMirrorWorker(store RecordReader, ledger sheets.LedgerWriter) *MirrorWorker {
	return &MirrorWorker{store: store, ledger: ledger}
}

// HandleChangeEvent mirrors newly created ledger records. Updates and
// deletes are skipped: the spreadsheet is an append-only journal, not a
// replica.
func (w *MirrorWorker) HandleChangeEvent(ctx context.Context, msg *amqp.ChangeEvent) error {
	if msg.Op != "create" {
		slog.DebugContext(ctx, "Skipping non-create event",
			"collection", msg.Collection, "op", msg.Op, "id", msg.ID)
		return nil
	}

	var row sheets.Row
	switch msg.Collection {
	case "incomes":
		in, err := w.store.GetIncome(ctx, msg.ID)
		if err != nil {
			return fmt.Errorf("get income: %w", err)
		}
		row = sheets.Row{
			Date:        msg.Timestamp,
			Collection:  msg.Collection,
			RecordID:    in.ID,
			Description: in.Description,
			Amount:      in.Amount,
			Actor:       in.Owner,
		}
	case "expenses":
		e, err := w.store.GetExpense(ctx, msg.ID)
		if err != nil {
			return fmt.Errorf("get expense: %w", err)
		}
		row = sheets.Row{
			Date:        msg.Timestamp,
			Collection:  msg.Collection,
			RecordID:    e.ID,
			Description: e.Description,
			Amount:      e.Amount.Neg(),
			Actor:       e.Owner,
		}
	case "bank_history":
		m, err := w.store.GetMovement(ctx, msg.ID)
		if err != nil {
			return fmt.Errorf("get movement: %w", err)
		}
		row = sheets.Row{
			Date:        msg.Timestamp,
			Collection:  msg.Collection,
			RecordID:    m.ID,
			Description: m.Reason,
			Amount:      m.Amount,
			Actor:       m.By,
		}
	default:
		slog.DebugContext(ctx, "Collection not mirrored", "collection", msg.Collection)
		return nil
	}

	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored record to ledger",
		"collection", msg.Collection,
		"id", msg.ID,
		"row_ref", ref)
	return nil
}
