package printf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/minlog/decoder"
	"github.com/arloliu/minlog/errs"
	"github.com/arloliu/minlog/format"
)

// directive is one parsed "%[flags][width][.precision][length]conv".
type directive struct {
	minus, plus, space, alt, zero bool

	width     int
	precision int
	hasPrec   bool
	verb      byte
}

// Append renders tmpl with args using C printf rules and appends the result
// to dst.
//
// Length modifiers (h hh l ll j z t L q) are accepted and ignored. The
// failure cases below return an error wrapping errs.ErrSubstitution and leave
// dst unchanged in length:
//   - '*' width or precision, %n, or an unknown conversion letter
//   - a specifier cut off by the end of the text
//   - more conversions than arguments, or arguments left unconverted
//   - a value whose type cannot satisfy its conversion
func Append(dst []byte, tmpl string, args []decoder.Value) ([]byte, error) {
	start := len(dst)
	argi := 0

	for i := 0; i < len(tmpl); {
		pct := strings.IndexByte(tmpl[i:], '%')
		if pct < 0 {
			dst = append(dst, tmpl[i:]...)
			break
		}
		dst = append(dst, tmpl[i:i+pct]...)
		i += pct

		d, next, err := parseDirective(tmpl, i)
		if err != nil {
			return dst[:start], err
		}
		i = next

		if d.verb == '%' {
			dst = append(dst, '%')
			continue
		}

		if argi >= len(args) {
			return dst[:start], substitutionErr("not enough arguments for format string")
		}

		dst, err = d.render(dst, args[argi])
		if err != nil {
			return dst[:start], err
		}
		argi++
	}

	if argi < len(args) {
		return dst[:start], substitutionErr("not all arguments converted during string formatting")
	}

	return dst, nil
}

// Sprintf is Append into a new string.
func Sprintf(tmpl string, args ...decoder.Value) (string, error) {
	b, err := Append(nil, tmpl, args)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func substitutionErr(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrSubstitution, fmt.Sprintf(msg, args...))
}

// parseDirective parses the specifier whose '%' is at tmpl[i].
func parseDirective(tmpl string, i int) (directive, int, error) {
	var d directive

	j := i + 1
flags:
	for ; j < len(tmpl); j++ {
		switch tmpl[j] {
		case '-':
			d.minus = true
		case '+':
			d.plus = true
		case ' ':
			d.space = true
		case '#':
			d.alt = true
		case '0':
			d.zero = true
		default:
			break flags
		}
	}

	if j < len(tmpl) && tmpl[j] == '*' {
		return d, j, substitutionErr("'*' width is not supported")
	}
	d.width, j = parseNumber(tmpl, j)

	if j < len(tmpl) && tmpl[j] == '.' {
		j++
		if j < len(tmpl) && tmpl[j] == '*' {
			return d, j, substitutionErr("'*' precision is not supported")
		}
		d.hasPrec = true
		d.precision, j = parseNumber(tmpl, j)
	}

	for j < len(tmpl) && isLengthModifier(tmpl[j]) {
		j++
	}

	if j >= len(tmpl) {
		return d, j, substitutionErr("incomplete format")
	}

	d.verb = tmpl[j]

	return d, j + 1, nil
}

func parseNumber(s string, j int) (int, int) {
	n := 0
	for j < len(s) && isDigit(s[j]) {
		if n < 1<<20 {
			n = n*10 + int(s[j]-'0')
		}
		j++
	}

	return n, j
}

func isLengthModifier(c byte) bool {
	switch c {
	case 'h', 'l', 'L', 'q', 'j', 'z', 't':
		return true
	default:
		return false
	}
}

func (d directive) render(dst []byte, v decoder.Value) ([]byte, error) {
	switch d.verb {
	case 'd', 'i', 'u', 'o', 'x', 'X':
		return d.renderInteger(dst, v)
	case 'f', 'F', 'e', 'E', 'g', 'G', 'a', 'A':
		return d.renderFloat(dst, v)
	case 'c':
		return d.renderChar(dst, v)
	case 's':
		return d.renderString(dst, v)
	case 'n':
		return dst, substitutionErr("%%n is not supported")
	default:
		return dst, substitutionErr("unsupported format character %q", rune(d.verb))
	}
}

func (d directive) renderInteger(dst []byte, v decoder.Value) ([]byte, error) {
	signed := d.verb == 'd' || d.verb == 'i'

	var (
		mag uint64
		neg bool
	)

	switch v.Type {
	case format.ArgInt:
		n := v.Int()
		switch {
		case n >= 0:
			mag = uint64(n)
		case signed:
			neg, mag = true, uint64(-(n+1))+1
		default:
			// Unsigned conversions see the two's complement at the decoded width.
			mag = twosComplement(n, v.Width)
		}
	case format.ArgUint, format.ArgChar:
		mag = v.Uint()
	case format.ArgFloat:
		f := v.Float()
		if d.verb != 'd' && d.verb != 'i' && d.verb != 'u' {
			return dst, substitutionErr("%%%c format: an integer is required, not float", d.verb)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxUint64 {
			return dst, substitutionErr("cannot convert float %v to integer", f)
		}
		f = math.Trunc(f)
		neg = f < 0
		mag = uint64(math.Abs(f))
	default:
		return dst, substitutionErr("%%%c format: a number is required, not %s", d.verb, v.Type)
	}

	base := 10
	switch d.verb {
	case 'o':
		base = 8
	case 'x', 'X':
		base = 16
	}

	digits := strconv.FormatUint(mag, base)
	if d.verb == 'X' {
		digits = strings.ToUpper(digits)
	}

	if d.hasPrec {
		if d.precision == 0 && mag == 0 {
			digits = ""
		}
		if len(digits) < d.precision {
			digits = strings.Repeat("0", d.precision-len(digits)) + digits
		}
	}

	prefix := ""
	if d.alt {
		switch d.verb {
		case 'o':
			if !strings.HasPrefix(digits, "0") {
				digits = "0" + digits
			}
		case 'x':
			if mag != 0 {
				prefix = "0x"
			}
		case 'X':
			if mag != 0 {
				prefix = "0X"
			}
		}
	}

	sign := ""
	switch {
	case neg:
		sign = "-"
	case signed && d.plus:
		sign = "+"
	case signed && d.space:
		sign = " "
	}

	return d.pad(dst, sign+prefix, digits, d.zero && !d.hasPrec), nil
}

func twosComplement(n int64, width int) uint64 {
	u := uint64(n) //nolint:gosec
	if width <= 0 || width >= 8 {
		return u
	}

	return u & (1<<(uint(width)*8) - 1)
}

func (d directive) renderFloat(dst []byte, v decoder.Value) ([]byte, error) {
	var f float64
	switch v.Type {
	case format.ArgFloat:
		f = v.Float()
	case format.ArgInt:
		f = float64(v.Int())
	case format.ArgUint:
		f = float64(v.Uint())
	default:
		return dst, substitutionErr("%%%c format: a real number is required, not %s", d.verb, v.Type)
	}

	upper := d.verb == 'F' || d.verb == 'E' || d.verb == 'G' || d.verb == 'A'

	sign := ""
	switch {
	case math.Signbit(f):
		sign = "-"
	case d.plus:
		sign = "+"
	case d.space:
		sign = " "
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		body := "inf"
		if math.IsNaN(f) {
			body = "nan"
		}
		if upper {
			body = strings.ToUpper(body)
		}

		return d.pad(dst, sign, body, false), nil
	}

	abs := math.Abs(f)
	prec := 6
	if d.hasPrec {
		prec = d.precision
	}

	var body, prefix string
	switch d.verb {
	case 'f', 'F':
		body = strconv.FormatFloat(abs, 'f', prec, 64)
		if d.alt && prec == 0 {
			body += "."
		}
	case 'e', 'E':
		body = formatExp(abs, prec, d.alt)
	case 'g', 'G':
		body = formatGeneral(abs, prec, d.alt)
	case 'a', 'A':
		p := -1
		if d.hasPrec {
			p = d.precision
		}
		prefix, body = formatHex(abs, p, d.alt)
	}

	if upper {
		prefix = strings.ToUpper(prefix)
		body = strings.ToUpper(body)
	}

	return d.pad(dst, sign+prefix, body, d.zero), nil
}

// formatExp renders C %e: at least two exponent digits, "." kept with '#'.
func formatExp(abs float64, prec int, alt bool) string {
	s := strconv.FormatFloat(abs, 'e', prec, 64)
	if alt && prec == 0 {
		s = s[:1] + "." + s[1:]
	}

	return s
}

// formatGeneral renders C %g: P significant digits, exponent form when the
// exponent is below -4 or at least P, trailing zeros removed unless '#'.
func formatGeneral(abs float64, prec int, alt bool) string {
	if prec == 0 {
		prec = 1
	}

	e := strconv.FormatFloat(abs, 'e', prec-1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])

	var s string
	if exp < -4 || exp >= prec {
		s = e
	} else {
		s = strconv.FormatFloat(abs, 'f', prec-1-exp, 64)
	}

	if alt {
		if !strings.Contains(s, ".") {
			if k := strings.IndexByte(s, 'e'); k >= 0 {
				s = s[:k] + "." + s[k:]
			} else {
				s += "."
			}
		}

		return s
	}

	mant, tail := s, ""
	if k := strings.IndexByte(s, 'e'); k >= 0 {
		mant, tail = s[:k], s[k:]
	}
	if strings.Contains(mant, ".") {
		mant = strings.TrimRight(mant, "0")
		mant = strings.TrimSuffix(mant, ".")
	}

	return mant + tail
}

// formatHex renders C %a as ("0x", "1.8p+1"): no leading zeros in the exponent.
func formatHex(abs float64, prec int, alt bool) (string, string) {
	s := strconv.FormatFloat(abs, 'x', prec, 64)
	s = strings.TrimPrefix(s, "0x")

	k := strings.IndexByte(s, 'p')
	mant, exp := s[:k], s[k+1:]
	expSign, expDigits := exp[:1], strings.TrimLeft(exp[1:], "0")
	if expDigits == "" {
		expDigits = "0"
	}
	if alt && !strings.Contains(mant, ".") {
		mant += "."
	}

	return "0x", mant + "p" + expSign + expDigits
}

func (d directive) renderChar(dst []byte, v decoder.Value) ([]byte, error) {
	var c byte
	switch v.Type {
	case format.ArgChar, format.ArgUint:
		c = byte(v.Uint())
	case format.ArgInt:
		c = byte(v.Int()) //nolint:gosec
	case format.ArgString:
		if len(v.Text()) != 1 {
			return dst, substitutionErr("%%c requires a single character, got %d bytes", len(v.Text()))
		}
		c = v.Text()[0]
	default:
		return dst, substitutionErr("%%c requires int or char, not %s", v.Type)
	}

	return d.pad(dst, "", string([]byte{c}), false), nil
}

func (d directive) renderString(dst []byte, v decoder.Value) ([]byte, error) {
	var s string
	switch v.Type {
	case format.ArgString:
		s = v.Text()
	case format.ArgChar:
		s = string([]byte{v.Char()})
	case format.ArgInt:
		s = strconv.FormatInt(v.Int(), 10)
	case format.ArgUint:
		s = strconv.FormatUint(v.Uint(), 10)
	case format.ArgFloat:
		f := v.Float()
		switch {
		case math.IsNaN(f):
			s = "nan"
		case math.IsInf(f, 0):
			s = "inf"
		default:
			s = formatGeneral(math.Abs(f), 12, false)
		}
		if math.Signbit(f) && !math.IsNaN(f) {
			s = "-" + s
		}
	default:
		return dst, substitutionErr("%%s cannot render %s", v.Type)
	}

	if d.hasPrec && d.precision < len(s) {
		s = s[:d.precision]
	}

	return d.pad(dst, "", s, false), nil
}

// pad appends prefix and body padded to the directive width. Zero padding
// goes between prefix and body; '-' pads on the right with spaces.
func (d directive) pad(dst []byte, prefix, body string, zero bool) []byte {
	fill := d.width - len(prefix) - len(body)
	if fill <= 0 {
		dst = append(dst, prefix...)
		return append(dst, body...)
	}

	switch {
	case d.minus:
		dst = append(dst, prefix...)
		dst = append(dst, body...)
		dst = appendRepeat(dst, ' ', fill)
	case zero:
		dst = append(dst, prefix...)
		dst = appendRepeat(dst, '0', fill)
		dst = append(dst, body...)
	default:
		dst = appendRepeat(dst, ' ', fill)
		dst = append(dst, prefix...)
		dst = append(dst, body...)
	}

	return dst
}

func appendRepeat(dst []byte, c byte, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, c)
	}

	return dst
}
