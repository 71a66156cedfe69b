// Package expand drives the decoding of one compressed log stream into text.
//
// An Expander validates the magic header and then runs the record state
// machine (see State) until the stream ends cleanly between records or a
// fatal condition aborts the session. Each call to Expand is an independent
// session with its own format registry, so one Expander may serve many
// streams, including concurrently.
//
// Conditions are classified by the errs package. Fatal ones end the session
// and are returned; everything written before them stays in the output.
// Non-fatal ones are logged, collected in Summary.Warnings and the session
// continues.
package expand

import (
	"bufio"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/arloliu/minlog/decoder"
	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/options"
	"github.com/arloliu/minlog/internal/pool"
	"github.com/arloliu/minlog/printf"
	"github.com/arloliu/minlog/registry"
	"github.com/arloliu/minlog/stream"
)

// Pieces named in session errors.
const (
	PieceHeader      = "header"
	PieceFormatID    = "format id"
	PieceArgLength   = "argument length"
	PieceArgValue    = "argument value"
	PieceWriteOutput = "output"
)

const outputBufferSize = 32 * 1024

// Option configures an Expander.
type Option = options.Option[*Expander]

// WithLogger sets the logger for session diagnostics. The default discards.
func WithLogger(logger *zap.Logger) Option {
	return options.NoError(func(e *Expander) {
		if logger != nil {
			e.logger = logger
		}
	})
}

// WithLittleEndian reads fixed-width fields as little-endian. It is the default.
func WithLittleEndian() Option {
	return WithByteOrder(endian.GetLittleEndianEngine())
}

// WithBigEndian reads fixed-width fields as big-endian.
func WithBigEndian() Option {
	return WithByteOrder(endian.GetBigEndianEngine())
}

// WithByteOrder reads fixed-width fields with engine.
func WithByteOrder(engine endian.EndianEngine) Option {
	return options.New(func(e *Expander) error {
		if engine == nil {
			return errors.New("expand: nil byte order")
		}
		e.engine = engine

		return nil
	})
}

// WithObserver registers an observer notified at the end of every session.
func WithObserver(observer Observer) Option {
	return options.NoError(func(e *Expander) {
		if observer != nil {
			e.observers = append(e.observers, observer)
		}
	})
}

// WithRegistryOptions passes extra options to every session's registry.
func WithRegistryOptions(opts ...registry.Option) Option {
	return options.NoError(func(e *Expander) {
		e.registryOpts = append(e.registryOpts, opts...)
	})
}

// Expander holds session-independent configuration. It is safe for
// concurrent use as long as it is not reconfigured.
type Expander struct {
	logger       *zap.Logger
	engine       endian.EndianEngine
	observers    []Observer
	registryOpts []registry.Option
}

// NewExpander creates an Expander. Without options it reads little-endian
// streams and discards diagnostics.
func NewExpander(opts ...Option) (*Expander, error) {
	e := &Expander{
		logger: zap.NewNop(),
		engine: endian.GetLittleEndianEngine(),
	}

	if err := options.Apply(e, opts...); err != nil {
		return nil, err
	}

	return e, nil
}

// Expand decodes src and writes the expanded text to dst.
//
// The returned error is nil when src ended cleanly between records, and
// otherwise a fatal *errs.Error. Output is flushed on every path. Neither
// src nor dst is closed.
func (e *Expander) Expand(src io.Reader, dst io.Writer) (Summary, error) {
	s, err := e.newSession(src, dst)
	if err != nil {
		return Summary{State: StateAborted}, err
	}
	defer pool.PutLineBuffer(s.line)

	err = s.run()

	if flushErr := s.out.Flush(); flushErr != nil && err == nil {
		err = s.fail(errs.ErrIO, 0, PieceWriteOutput, flushErr)
	}

	s.summary.BytesRead = s.in.Offset()
	s.summary.BytesWritten = s.sink.n
	s.summary.Catalog = s.reg.Records()
	s.summary.State = StateDone
	if err != nil {
		s.summary.State = StateAborted
	}

	s.logFinished(err)
	for _, o := range e.observers {
		o.SessionFinished(s.summary, err)
	}

	return s.summary, err
}

// session is the mutable state of one Expand call.
type session struct {
	e      *Expander
	logger *zap.Logger
	in     *stream.Reader
	sink   *countingWriter
	out    *bufio.Writer
	reg    *registry.Registry
	line   *pool.ByteBuffer

	id     uint32
	rec    *registry.Record
	values []decoder.Value

	summary Summary
}

func (e *Expander) newSession(src io.Reader, dst io.Writer) (*session, error) {
	regOpts := append([]registry.Option{registry.WithLogger(e.logger)}, e.registryOpts...)
	reg, err := registry.New(regOpts...)
	if err != nil {
		return nil, err
	}

	sink := &countingWriter{w: dst}

	return &session{
		e:      e,
		logger: e.logger,
		in:     stream.NewReader(src, e.engine),
		sink:   sink,
		out:    bufio.NewWriterSize(sink, outputBufferSize),
		reg:    reg,
		line:   pool.GetLineBuffer(),
	}, nil
}

func (s *session) run() error {
	s.logger.Debug("session started", zap.String("byte_order", endian.Name(s.e.engine)))

	if err := s.readHeader(); err != nil {
		return err
	}

	state := StateAwaitRecord
	for !state.Terminal() {
		next, err := s.step(state)
		if err != nil {
			return err
		}
		state = next
	}

	return nil
}

func (s *session) step(state State) (State, error) {
	switch state {
	case StateAwaitRecord:
		return s.awaitRecord()
	case StateResolveFormat:
		return s.resolveFormat()
	case StateEmit:
		return s.emit()
	case StateDecodeArgs:
		return s.decodeArgs()
	case StateSubstitute:
		return s.substitute()
	default:
		return StateAborted, errors.New("expand: no transition from " + state.String())
	}
}

func (s *session) readHeader() error {
	b, err := s.in.ReadFixed(len(format.Magic))
	if err != nil {
		kind := errs.ErrInvalidHeader
		if !errors.Is(err, errs.ErrEndOfStream) {
			kind = errs.ErrIO
		}

		return s.fail(kind, 0, PieceHeader, err)
	}

	if string(b) != format.Magic {
		return s.fail(errs.ErrInvalidHeader, 0, PieceHeader, nil)
	}

	return nil
}

// awaitRecord reads the next format id. End of input before any of its bytes
// is the only clean end of a session.
func (s *session) awaitRecord() (State, error) {
	s.rec = nil
	s.values = s.values[:0]

	id, err := s.in.ReadUint32()
	if err == nil {
		s.id = id
		return StateResolveFormat, nil
	}

	var short *stream.ShortReadError
	if !errors.As(err, &short) {
		return StateAborted, s.fail(errs.ErrIO, 0, PieceFormatID, err)
	}

	if short.Got > 0 {
		s.warn(&errs.Error{
			Kind:   errs.ErrEndOfStream,
			Piece:  PieceFormatID,
			Offset: s.in.Offset(),
			Err:    err,
		})
	}

	return StateDone, nil
}

func (s *session) resolveFormat() (State, error) {
	rec, warnings, err := s.reg.Resolve(s.id, s.in)
	for _, w := range warnings {
		s.warn(w)
	}
	if err != nil {
		return StateAborted, s.abort(err)
	}

	s.rec = rec
	if len(rec.ArgTypes) == 0 {
		return StateEmit, nil
	}

	return StateDecodeArgs, nil
}

// emit writes an argument-less record's format text verbatim.
func (s *session) emit() (State, error) {
	if _, err := s.out.WriteString(s.rec.Format); err != nil {
		return StateAborted, s.fail(errs.ErrIO, 0, PieceWriteOutput, err)
	}
	s.recordWritten()

	return StateAwaitRecord, nil
}

func (s *session) decodeArgs() (State, error) {
	for i, t := range s.rec.ArgTypes {
		ordinal := i + 1

		length, err := s.in.ReadUint32()
		if err != nil {
			return StateAborted, s.fail(readFailureKind(err), ordinal, PieceArgLength, err)
		}

		v, warning, err := decoder.Decode(s.in, t, length)
		if err != nil {
			kind := readFailureKind(err)
			if errors.Is(err, errs.ErrAmbiguousArgLength) {
				kind = errs.ErrAmbiguousArgLength
			}

			return StateAborted, s.fail(kind, ordinal, PieceArgValue, err)
		}

		if warning != nil {
			kind := errs.ErrMissingNUL
			if errors.Is(warning, errs.ErrSingleWidthArgLength) {
				kind = errs.ErrSingleWidthArgLength
			}
			s.warn(s.recordError(kind, ordinal, PieceArgValue, warning))
		}

		s.values = append(s.values, v)
	}

	return StateSubstitute, nil
}

// substitute renders the record. A failure drops only this record.
func (s *session) substitute() (State, error) {
	s.line.Reset()

	out, err := printf.Append(s.line.B, s.rec.Format, s.values)
	if err != nil {
		s.summary.Skipped++
		s.warn(s.recordError(errs.ErrSubstitution, 0, "", err))

		return StateAwaitRecord, nil
	}
	s.line.B = out

	if _, err := s.out.Write(s.line.B); err != nil {
		return StateAborted, s.fail(errs.ErrIO, 0, PieceWriteOutput, err)
	}
	s.recordWritten()

	return StateAwaitRecord, nil
}

func (s *session) recordWritten() {
	s.summary.Records++
	if s.rec.Reserved() {
		s.summary.Reserved++
	}
}

// recordError builds an *errs.Error scoped to the current record.
func (s *session) recordError(kind error, arg int, piece string, cause error) *errs.Error {
	e := &errs.Error{
		Kind:   kind,
		Arg:    arg,
		Piece:  piece,
		Offset: s.in.Offset(),
		Err:    cause,
	}
	if s.rec != nil {
		e.FormatID, e.HasFormatID = s.rec.ID, true
		e.Format = s.rec.Raw
	}

	return e
}

func (s *session) fail(kind error, arg int, piece string, cause error) error {
	return s.abort(s.recordError(kind, arg, piece, cause))
}

func (s *session) abort(err error) error {
	s.logger.Error("aborting session", zap.Error(err))
	return err
}

func (s *session) warn(err error) {
	s.summary.Warnings = append(s.summary.Warnings, err)
	s.logger.Warn("recovered", zap.String("kind", errs.KindName(err)), zap.Error(err))
}

func (s *session) logFinished(err error) {
	s.logger.Debug("session finished",
		zap.Stringer("state", s.summary.State),
		zap.Int("records", s.summary.Records),
		zap.Int("skipped", s.summary.Skipped),
		zap.Int("formats", s.summary.Formats()),
		zap.Int("warnings", len(s.summary.Warnings)),
		zap.Int64("bytes_read", s.summary.BytesRead),
		zap.Int64("bytes_written", s.summary.BytesWritten),
		zap.Error(err),
	)
}

func readFailureKind(err error) error {
	if errors.Is(err, errs.ErrEndOfStream) {
		return errs.ErrEndOfStream
	}

	return errs.ErrIO
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)

	return n, err
}
