// Package memory is an in-memory LedgerWriter for tests and for running the
// worker without Google credentials.
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/reisftw/duogesto/internal/sheets"
)

type Writer struct {
	mu   sync.Mutex
	rows []sheets.Row
}

var _ sheets.LedgerWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) Append(_ context.Context, row sheets.Row) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = append(w.rows, row)
	return strconv.Itoa(len(w.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (w *Writer) Rows() []sheets.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]sheets.Row, len(w.rows))
	copy(out, w.rows)
	return out
}
