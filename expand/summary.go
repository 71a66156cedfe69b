package expand

import "github.com/arloliu/minlog/registry"

// Summary describes one finished session.
type Summary struct {
	// Records is the number of records written to the output.
	Records int
	// Skipped is the number of records dropped after a substitution failure.
	Skipped int
	// Reserved is the number of written records that use a reserved format id.
	Reserved int
	// BytesRead is the number of bytes consumed from the source, header included.
	BytesRead int64
	// BytesWritten is the number of bytes written to the output.
	BytesWritten int64
	// Warnings holds every non-fatal condition in stream order.
	Warnings []error
	// Catalog lists the formats registered during the session, ordered by id.
	Catalog []*registry.Record
	// State is the terminal state, StateDone or StateAborted.
	State State
}

// Formats returns the number of distinct format ids seen.
func (s Summary) Formats() int {
	return len(s.Catalog)
}

// Observer is notified once per finished session, after the output is flushed.
type Observer interface {
	SessionFinished(summary Summary, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(summary Summary, err error)

// SessionFinished implements Observer.
func (f ObserverFunc) SessionFinished(summary Summary, err error) {
	f(summary, err)
}
