// Package registry caches the format metadata of one decode session.
//
// A format id's metadata (format text and declared argument count) appears
// in the stream only the first time the id is used. The Registry reads it at
// that point, runs the analyzer once and serves every later record of the
// same id from its cache without touching the stream.
package registry

import (
	"cmp"
	"errors"
	"slices"

	"go.uber.org/zap"

	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/hash"
	"github.com/arloliu/minlog/internal/options"
	"github.com/arloliu/minlog/printf"
	"github.com/arloliu/minlog/stream"
)

// Metadata pieces named in resolution errors.
const (
	PieceFormatLength = "format length"
	PieceFormatString = "format string"
	PieceArgCount     = "argument count"
)

// Record is the analyzed metadata of one format id.
type Record struct {
	// ID is the format id.
	ID uint32
	// Raw is the format text as read from the stream, trailing NUL removed.
	Raw string
	// Format is Raw rewritten for substitution.
	Format string
	// ArgTypes is the analyzed argument list; it decides how many arguments follow.
	ArgTypes []format.ArgType
	// DeclaredArgs is the argument count the producer declared.
	DeclaredArgs uint32
	// Fingerprint is the xxHash64 of Raw.
	Fingerprint uint64
}

// Reserved reports whether the record uses one of the producer's reserved ids.
func (r *Record) Reserved() bool {
	return format.IsReservedFormatID(r.ID)
}

// Analyzer turns a raw format string into its analysis.
type Analyzer func(raw string) printf.Analysis

// Option configures a Registry.
type Option = options.Option[*Registry]

// WithAnalyzer replaces the analyzer. Mostly useful to observe analyzer calls.
func WithAnalyzer(fn Analyzer) Option {
	return options.New(func(r *Registry) error {
		if fn == nil {
			return errors.New("registry: nil analyzer")
		}
		r.analyze = fn

		return nil
	})
}

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	})
}

// Registry maps format ids to records for the lifetime of one session.
//
// Note: Registry is NOT thread-safe. Each session owns its own Registry.
type Registry struct {
	records map[uint32]*Record
	analyze Analyzer
	logger  *zap.Logger
}

// New creates an empty Registry.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		records: make(map[uint32]*Record),
		analyze: printf.Analyze,
		logger:  zap.NewNop(),
	}

	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	return r, nil
}

// Resolve returns the record for id, reading its metadata from src on first use.
//
// On a cache hit nothing is read. On a miss the format length, format text
// and declared argument count are read in that order, the analyzer is run and
// the record is cached.
//
// Returns:
//   - *Record: the resolved record (nil when err is non-nil)
//   - []error: non-fatal *errs.Error warnings (count mismatch, missing NUL)
//   - error: an *errs.Error naming the metadata piece that could not be read
func (r *Registry) Resolve(id uint32, src *stream.Reader) (*Record, []error, error) {
	if rec, ok := r.records[id]; ok {
		return rec, nil, nil
	}

	length, err := src.ReadUint32()
	if err != nil {
		return nil, nil, metadataError(id, "", PieceFormatLength, src, err)
	}

	raw, nulWarn, err := src.ReadString(int(length), true)
	if err != nil {
		return nil, nil, metadataError(id, "", PieceFormatString, src, err)
	}

	declared, err := src.ReadUint32()
	if err != nil {
		return nil, nil, metadataError(id, raw, PieceArgCount, src, err)
	}

	analysis := r.analyze(raw)
	rec := &Record{
		ID:           id,
		Raw:          raw,
		Format:       analysis.Rewritten,
		ArgTypes:     analysis.ArgTypes,
		DeclaredArgs: declared,
		Fingerprint:  hash.Fingerprint(raw),
	}
	r.records[id] = rec

	var warnings []error
	if nulWarn != nil {
		warnings = append(warnings, &errs.Error{
			Kind: errs.ErrMissingNUL, FormatID: id, HasFormatID: true,
			Format: raw, Piece: PieceFormatString, Offset: src.Offset(), Err: nulWarn,
		})
	}
	if mismatch := analysis.CheckArgCount(declared); mismatch != nil {
		warnings = append(warnings, &errs.Error{
			Kind: errs.ErrFormatArgCountMismatch, FormatID: id, HasFormatID: true,
			Format: raw, Offset: src.Offset(), Err: mismatch,
		})
	}

	r.logger.Debug("registered format",
		zap.Uint32("format_id", id),
		zap.String("format", raw),
		zap.Int("args", len(rec.ArgTypes)),
		zap.Uint32("declared_args", declared),
	)

	return rec, warnings, nil
}

// Lookup returns the cached record for id without reading.
func (r *Registry) Lookup(id uint32) (*Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Len returns the number of registered format ids.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns every registered record ordered by id.
func (r *Registry) Records() []*Record {
	out := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b *Record) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

func metadataError(id uint32, raw, piece string, src *stream.Reader, err error) error {
	kind := errs.ErrEndOfStream
	if !errors.Is(err, errs.ErrEndOfStream) {
		kind = errs.ErrIO
	}

	return &errs.Error{
		Kind:        kind,
		FormatID:    id,
		HasFormatID: true,
		Format:      raw,
		Piece:       piece,
		Offset:      src.Offset(),
		Err:         err,
	}
}
