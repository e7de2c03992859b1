package store

// RowBuffer accumulates rows between flushes. It belongs to one goroutine
// and is not safe for concurrent use.
type RowBuffer struct {
	rows []MoveRow
}

// NewRowBuffer returns a buffer with room for capacity rows.
func NewRowBuffer(capacity int) *RowBuffer {
	return &RowBuffer{rows: make([]MoveRow, 0, capacity)}
}

// Append adds rows to the buffer.
func (b *RowBuffer) Append(rows ...MoveRow) {
	b.rows = append(b.rows, rows...)
}

// Len returns the number of buffered rows.
func (b *RowBuffer) Len() int { return len(b.rows) }

// Rows returns the buffered rows. The slice is reused after Reset.
func (b *RowBuffer) Rows() []MoveRow { return b.rows }

// Reset empties the buffer, keeping its capacity.
func (b *RowBuffer) Reset() { b.rows = b.rows[:0] }
