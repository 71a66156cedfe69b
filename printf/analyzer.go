// Package printf analyzes and renders C printf-style format strings.
//
// The analyzer is a best-effort scanner, not a validator: it extracts one
// argument type per conversion letter and rewrites the text so it can be
// rendered later with decoded values (Append). The format text comes from
// the stream and is never trusted to be well formed.
package printf

import (
	"fmt"

	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
)

// conversions maps a conversion letter to the argument type it consumes.
var conversions = [256]format.ArgType{
	'c': format.ArgChar,
	's': format.ArgString,
	'd': format.ArgInt,
	'i': format.ArgInt,
	'p': format.ArgInt,
	'o': format.ArgUint,
	'x': format.ArgUint,
	'X': format.ArgUint,
	'u': format.ArgUint,
	'f': format.ArgFloat,
	'F': format.ArgFloat,
	'e': format.ArgFloat,
	'E': format.ArgFloat,
	'a': format.ArgFloat,
	'A': format.ArgFloat,
	'g': format.ArgFloat,
	'G': format.ArgFloat,
}

// Analysis is the result of analyzing one raw format string.
type Analysis struct {
	// Raw is the format string as read from the stream.
	Raw string
	// Rewritten is Raw with integer length modifiers stripped and %p normalized.
	Rewritten string
	// ArgTypes lists one type per conversion, in order of appearance.
	ArgTypes []format.ArgType
}

// Analyze extracts argument types from raw and rewrites it for substitution.
func Analyze(raw string) Analysis {
	return Analysis{
		Raw:       raw,
		Rewritten: Rewrite(raw),
		ArgTypes:  ArgTypes(raw),
	}
}

// ArgTypes scans raw left to right and returns one type per conversion letter.
//
// A '%' opens a pending specifier; "%%" is a literal percent and closes it.
// While a specifier is pending every character is looked up in the
// conversion table and the first hit closes the specifier. Flags, width,
// precision and length modifiers are skipped implicitly because they are not
// conversion letters.
func ArgTypes(raw string) []format.ArgType {
	var types []format.ArgType

	pending := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !pending {
			pending = c == '%'
			continue
		}

		if c == '%' {
			pending = false
			continue
		}

		if t := conversions[c]; t != 0 {
			types = append(types, t)
			pending = false
		}
	}

	return types
}

// CheckArgCount compares the analyzed argument count with the count the
// producer declared. The analyzed list stays authoritative; a difference is
// reported as an errs.ErrFormatArgCountMismatch warning.
func (a Analysis) CheckArgCount(declared uint32) error {
	if uint64(len(a.ArgTypes)) == uint64(declared) {
		return nil
	}

	return fmt.Errorf("%w: declared %d, found %d in format string",
		errs.ErrFormatArgCountMismatch, declared, len(a.ArgTypes))
}
