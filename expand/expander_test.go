package expand

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/arloliu/minlog/endian"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
	"github.com/arloliu/minlog/internal/wiretest"
	"github.com/arloliu/minlog/printf"
	"github.com/arloliu/minlog/registry"
)

func expandBytes(t *testing.T, raw []byte, opts ...Option) (string, Summary, error) {
	t.Helper()

	e, err := NewExpander(opts...)
	require.NoError(t, err)

	var out bytes.Buffer
	summary, err := e.Expand(bytes.NewReader(raw), &out)

	return out.String(), summary, err
}

func TestExpandRoundTrip(t *testing.T) {
	raw := wiretest.New(nil).Record(100, "Hello %d\n", wiretest.Int32(42)).Bytes()

	out, summary, err := expandBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "Hello 42\n", out)
	require.Equal(t, StateDone, summary.State)
	require.Equal(t, 1, summary.Records)
	require.Equal(t, 1, summary.Formats())
	require.Equal(t, int64(len(raw)), summary.BytesRead)
	require.Equal(t, int64(len(out)), summary.BytesWritten)
	require.Empty(t, summary.Warnings)
}

func TestExpandEmptyBody(t *testing.T) {
	out, summary, err := expandBytes(t, []byte(format.Magic))
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, StateDone, summary.State)
	require.Zero(t, summary.Records)
}

func TestExpandCacheReuse(t *testing.T) {
	calls := 0
	counting := registry.WithAnalyzer(func(raw string) printf.Analysis {
		calls++
		return printf.Analyze(raw)
	})

	raw := wiretest.New(nil).
		Record(100, "%s=%ld\n", wiretest.String("a"), wiretest.Int64(1)).
		Record(100, "", wiretest.String("bb"), wiretest.Int64(-2)).
		Bytes()

	out, summary, err := expandBytes(t, raw, WithRegistryOptions(counting))
	require.NoError(t, err)
	require.Equal(t, "a=1\nbb=-2\n", out)
	require.Equal(t, 2, summary.Records)
	require.Equal(t, 1, summary.Formats())
	require.Equal(t, 1, calls)
}

func TestExpandNoArgsRecordIsVerbatim(t *testing.T) {
	raw := wiretest.New(nil).
		Record(format.StartTimeFormatID, "Logging started\n").
		Record(100, "100%% done\n").
		Bytes()

	out, summary, err := expandBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "Logging started\n100%% done\n", out)
	require.Equal(t, 2, summary.Records)
	require.Equal(t, 1, summary.Reserved)
}

func TestExpandMixedArguments(t *testing.T) {
	raw := wiretest.New(nil).
		Record(100, "%c %hhd %hu %lu %x %.2f %s %p\n",
			wiretest.Char('z'),
			wiretest.Int8(-1),
			wiretest.Uint16(65535),
			wiretest.Uint64(1<<40),
			wiretest.Uint32(0xbeef),
			wiretest.Float32(2.5),
			wiretest.String("eth0"),
			wiretest.Int64(0x1234),
		).Bytes()

	out, _, err := expandBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "z -1 65535 1099511627776 beef 2.50 eth0 0x001234\n", out)
}

func TestExpandBigEndian(t *testing.T) {
	raw := wiretest.New(endian.GetBigEndianEngine()).
		Record(100, "%d/%u\n", wiretest.Int32(-7), wiretest.Uint16(513)).
		Bytes()

	out, _, err := expandBytes(t, raw, WithBigEndian())
	require.NoError(t, err)
	require.Equal(t, "-7/513\n", out)
}

func TestExpandInvalidHeader(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"short", []byte("IRON COMP")},
		{"wrong", []byte("IRON COMPRESSED LOX")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, summary, err := expandBytes(t, tt.raw)
			require.ErrorIs(t, err, errs.ErrInvalidHeader)
			require.True(t, errs.IsFatal(err))
			require.Empty(t, out)
			require.Equal(t, StateAborted, summary.State)
		})
	}
}

func TestExpandAmbiguousWidthAborts(t *testing.T) {
	raw := wiretest.New(nil).
		Record(100, "before\n").
		Record(101, "bad %d\n", wiretest.Declared(3, []byte{1, 2, 3})).
		Record(102, "after\n").
		Bytes()

	out, summary, err := expandBytes(t, raw)
	require.ErrorIs(t, err, errs.ErrAmbiguousArgLength)
	require.Equal(t, "before\n", out, "prior output is preserved")
	require.Equal(t, StateAborted, summary.State)
	require.Equal(t, 1, summary.Records)

	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, uint32(101), e.FormatID)
	require.Equal(t, 1, e.Arg)
	require.Equal(t, "bad %d\n", e.Format)
}

func TestExpandSingleWidthRecovery(t *testing.T) {
	raw := wiretest.New(nil).
		Record(100, "[%c]\n", wiretest.Declared(2, []byte{'A', 0})).
		Record(101, "next\n").
		Bytes()

	core, logs := observer.New(zapcore.WarnLevel)
	out, summary, err := expandBytes(t, raw, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.Equal(t, "[A]\nnext\n", out)
	require.Len(t, summary.Warnings, 1)
	require.ErrorIs(t, summary.Warnings[0], errs.ErrSingleWidthArgLength)
	require.Equal(t, 1, logs.FilterMessage("recovered").Len())
}

func TestExpandTruncatedArguments(t *testing.T) {
	t.Run("ends after 1st argument", func(t *testing.T) {
		raw := wiretest.New(nil).
			Record(100, "first\n").
			Uint32(101).Define("%d %d\n", 2).Arg(wiretest.Int32(1)).
			Bytes()

		out, summary, err := expandBytes(t, raw)
		require.ErrorIs(t, err, errs.ErrEndOfStream)
		require.ErrorContains(t, err, "2nd argument")
		require.ErrorContains(t, err, `"%d %d\n"`)
		require.Equal(t, "first\n", out)
		require.Equal(t, StateAborted, summary.State)
	})

	t.Run("ends after 1st argument length", func(t *testing.T) {
		raw := wiretest.New(nil).
			Uint32(101).Define("%d %d\n", 2).Uint32(4).
			Bytes()

		_, _, err := expandBytes(t, raw)
		require.ErrorIs(t, err, errs.ErrEndOfStream)
		require.ErrorContains(t, err, "1st argument value")
	})

	t.Run("ends inside format metadata", func(t *testing.T) {
		raw := wiretest.New(nil).Uint32(100).Uint32(12).Raw([]byte("abc")).Bytes()

		_, _, err := expandBytes(t, raw)
		require.ErrorIs(t, err, errs.ErrEndOfStream)
		require.ErrorContains(t, err, "format string")
	})
}

func TestExpandPartialTrailingFormatID(t *testing.T) {
	raw := wiretest.New(nil).Record(100, "done\n").Raw([]byte{0x64, 0}).Bytes()

	out, summary, err := expandBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "done\n", out)
	require.Len(t, summary.Warnings, 1)
	require.ErrorIs(t, summary.Warnings[0], errs.ErrEndOfStream)
}

func TestExpandSubstitutionFailureSkipsRecord(t *testing.T) {
	// "%*d" analyzes as a single Int but cannot be rendered.
	raw := wiretest.New(nil).
		Record(100, "%s\n", wiretest.String("ok")).
		Uint32(101).Define("%*d\n", 2).Arg(wiretest.Int32(5)).
		Record(102, "tail\n").
		Bytes()

	out, summary, err := expandBytes(t, raw)
	require.NoError(t, err)
	require.Equal(t, "ok\ntail\n", out)
	require.Equal(t, 1, summary.Skipped)
	require.Equal(t, 2, summary.Records)
	require.Len(t, summary.Warnings, 2)
	require.ErrorIs(t, summary.Warnings[0], errs.ErrFormatArgCountMismatch)
	require.ErrorIs(t, summary.Warnings[1], errs.ErrSubstitution)
}

func TestExpandReadsOneByteAtATime(t *testing.T) {
	raw := wiretest.New(nil).
		Record(100, "%s:%d\n", wiretest.String("slow"), wiretest.Int16(9)).
		Bytes()

	e, err := NewExpander()
	require.NoError(t, err)

	var out strings.Builder
	_, err = e.Expand(iotest.OneByteReader(bytes.NewReader(raw)), &out)
	require.NoError(t, err)
	require.Equal(t, "slow:9\n", out.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExpandOutputFailure(t *testing.T) {
	raw := wiretest.New(nil).Record(100, "x\n").Bytes()

	e, err := NewExpander()
	require.NoError(t, err)

	summary, err := e.Expand(bytes.NewReader(raw), failingWriter{})
	require.ErrorIs(t, err, errs.ErrIO)
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, StateAborted, summary.State)
}

func TestExpandSourceFailure(t *testing.T) {
	src := iotest.TimeoutReader(bytes.NewReader([]byte(format.Magic + "\x64")))

	e, err := NewExpander()
	require.NoError(t, err)

	_, err = e.Expand(src, &bytes.Buffer{})
	require.ErrorIs(t, err, errs.ErrIO)
	require.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestExpandObserver(t *testing.T) {
	var (
		got    []Summary
		gotErr []error
	)
	obs := ObserverFunc(func(s Summary, err error) {
		got = append(got, s)
		gotErr = append(gotErr, err)
	})

	e, err := NewExpander(WithObserver(obs))
	require.NoError(t, err)

	_, err = e.Expand(bytes.NewReader(wiretest.New(nil).Record(100, "a\n").Bytes()), &bytes.Buffer{})
	require.NoError(t, err)
	_, err = e.Expand(bytes.NewReader([]byte("nope")), &bytes.Buffer{})
	require.Error(t, err)

	require.Len(t, got, 2)
	require.Equal(t, StateDone, got[0].State)
	require.NoError(t, gotErr[0])
	require.Equal(t, StateAborted, got[1].State)
	require.ErrorIs(t, gotErr[1], errs.ErrInvalidHeader)
}

func TestExpandSessionsAreIndependent(t *testing.T) {
	e, err := NewExpander()
	require.NoError(t, err)

	first := wiretest.New(nil).Record(100, "one %d\n", wiretest.Int32(1)).Bytes()
	// Same id, different format: must not hit the previous session's cache.
	second := wiretest.New(nil).Record(100, "two %s\n", wiretest.String("x")).Bytes()

	var out bytes.Buffer
	_, err = e.Expand(bytes.NewReader(first), &out)
	require.NoError(t, err)
	_, err = e.Expand(bytes.NewReader(second), &out)
	require.NoError(t, err)
	require.Equal(t, "one 1\ntwo x\n", out.String())
}

func TestNewExpanderRejectsNilByteOrder(t *testing.T) {
	_, err := NewExpander(WithByteOrder(nil))
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "AwaitRecord", StateAwaitRecord.String())
	require.Equal(t, "Aborted", StateAborted.String())
	require.True(t, StateDone.Terminal())
	require.False(t, StateSubstitute.Terminal())
}
