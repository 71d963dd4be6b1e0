package ingest

import "fmt"

// Cursor is the paging state of one entity stream: a start position >= 1
// while pending, CursorExhausted once an empty page was seen, or CursorUnset
// before the first run.
type Cursor int

const (
	CursorUnset     Cursor = 0
	CursorExhausted Cursor = -1
)

// Pending reports whether the stream still has a page to fetch.
func (c Cursor) Pending() bool { return c >= 1 }

func (c Cursor) Exhausted() bool { return c == CursorExhausted }

// Position is the next start position; only meaningful when Pending.
func (c Cursor) Position() int { return int(c) }

func (c Cursor) String() string {
	switch {
	case c.Pending():
		return fmt.Sprintf("PENDING(%d)", int(c))
	case c.Exhausted():
		return "EXHAUSTED"
	default:
		return "UNSET"
	}
}
