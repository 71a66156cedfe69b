// Package errs defines the error taxonomy of a compressed log decode session.
//
// Every condition the decoder can report has a sentinel, so callers classify
// with errors.Is. Conditions raised while decoding carry context in an *Error.
// Whether a condition ends the session is a property of its kind, see Fatal.
package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidHeader means the magic header is missing, wrong or truncated.
	ErrInvalidHeader = errors.New("not a compressed log stream")
	// ErrEndOfStream means fewer bytes were available than a fixed read required.
	ErrEndOfStream = errors.New("end of stream")
	// ErrFormatArgCountMismatch means the analyzed argument count differs from the declared one.
	ErrFormatArgCountMismatch = errors.New("format argument count mismatch")
	// ErrAmbiguousArgLength means a multi-width argument declared a length none of its widths match.
	ErrAmbiguousArgLength = errors.New("ambiguous argument length")
	// ErrSingleWidthArgLength means a single-width argument declared the wrong length.
	ErrSingleWidthArgLength = errors.New("argument length mismatch")
	// ErrSubstitution means decoded values could not be substituted into the format.
	ErrSubstitution = errors.New("substitution failure")
	// ErrMissingNUL means a string that should end in NUL did not.
	ErrMissingNUL = errors.New("missing trailing NUL")
	// ErrIO means the source or sink failed for a reason other than end of stream.
	ErrIO = errors.New("i/o failure")
)

// Error describes one condition raised during a decode session.
type Error struct {
	// Kind is one of the package sentinels.
	Kind error
	// FormatID is the record's format id, valid when HasFormatID is set.
	FormatID    uint32
	HasFormatID bool
	// Format is the format text the condition relates to, if known.
	Format string
	// Arg is the 1-based argument ordinal, 0 when not argument scoped.
	Arg int
	// Piece names what was being read or done, e.g. "format length" or "argument value".
	Piece string
	// Offset is the stream offset at which the condition was detected.
	Offset int64
	// Err is the underlying cause, may be nil.
	Err error
}

// Error renders the condition in one line.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Kind.Error())
	if e.Piece != "" {
		sb.WriteString(" while reading ")
		if e.Arg > 0 {
			sb.WriteString(Ordinal(e.Arg))
			sb.WriteString(" ")
		}
		sb.WriteString(e.Piece)
	} else if e.Arg > 0 {
		sb.WriteString(" at ")
		sb.WriteString(Ordinal(e.Arg))
		sb.WriteString(" argument")
	}
	if e.HasFormatID {
		fmt.Fprintf(&sb, " of log record %d", e.FormatID)
	}
	if e.Format != "" {
		fmt.Fprintf(&sb, " for %q", e.Format)
	}
	fmt.Fprintf(&sb, " (offset %d)", e.Offset)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// Fatal reports whether the condition ends the session.
func (e *Error) Fatal() bool {
	return IsFatal(e.Kind)
}

// IsFatal reports whether err is of a kind that ends a decode session.
//
// Invalid headers, mid-record end of stream, ambiguous argument lengths and
// i/o failures are fatal. Count mismatches, single-width mismatches, missing
// NULs and substitution failures are recovered locally.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidHeader),
		errors.Is(err, ErrEndOfStream),
		errors.Is(err, ErrAmbiguousArgLength),
		errors.Is(err, ErrIO):
		return true
	default:
		return false
	}
}

// KindName returns a short stable name for the kind of err, used as a metric label.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrEndOfStream):
		return "end_of_stream"
	case errors.Is(err, ErrFormatArgCountMismatch):
		return "arg_count_mismatch"
	case errors.Is(err, ErrAmbiguousArgLength):
		return "ambiguous_arg_length"
	case errors.Is(err, ErrSingleWidthArgLength):
		return "single_width_arg_length"
	case errors.Is(err, ErrSubstitution):
		return "substitution"
	case errors.Is(err, ErrMissingNUL):
		return "missing_nul"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "unknown"
	}
}

// Ordinal renders n as "1st", "2nd", "3rd", "4th", "11th", "22nd" and so on.
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}

	return strconv.Itoa(n) + suffix
}
