package printf

import "strings"

// pointerReplacement renders a bare %p as a zero-padded hex address.
const pointerReplacement = "0x%06x"

// Rewrite applies StripLengthModifiers and then NormalizePointers.
func Rewrite(raw string) string {
	return NormalizePointers(StripLengthModifiers(raw))
}

// StripLengthModifiers removes h, hh, l, ll, j, z and t modifiers that sit
// directly before an integer conversion (d i o x X u). Flags, width and
// precision before the modifier are kept, as is the conversion letter.
//
//	"%5ld"   -> "%5d"
//	"%-8llu" -> "%-8u"
func StripLengthModifiers(s string) string {
	var sb strings.Builder
	last := 0

	for i := 0; i < len(s); {
		if s[i] != '%' {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i += 2
			continue
		}

		optEnd := scanOptions(s, i)
		modEnd := scanIntegerModifier(s, optEnd)
		if modEnd > optEnd && modEnd < len(s) && isIntegerConversion(s[modEnd]) {
			if sb.Len() == 0 {
				sb.Grow(len(s))
			}
			sb.WriteString(s[last:optEnd])
			last = modEnd
			i = modEnd + 1

			continue
		}

		i = max(optEnd, i+1)
	}

	if last == 0 {
		return s
	}
	sb.WriteString(s[last:])

	return sb.String()
}

// NormalizePointers rewrites %p conversions as hex integer conversions.
//
// A bare "%p" becomes "0x%06x". A %p carrying flags, width or precision keeps
// them and only the letter becomes 'x', e.g. "%-10p" -> "%-10x".
func NormalizePointers(s string) string {
	var sb strings.Builder
	last := 0

	for i := 0; i < len(s); {
		if s[i] != '%' {
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '%' {
			i += 2
			continue
		}

		optEnd := scanOptions(s, i)
		if optEnd < len(s) && s[optEnd] == 'p' {
			if sb.Len() == 0 {
				sb.Grow(len(s) + len(pointerReplacement))
			}
			sb.WriteString(s[last:i])
			if optEnd == i+1 {
				sb.WriteString(pointerReplacement)
			} else {
				sb.WriteString(s[i:optEnd])
				sb.WriteByte('x')
			}
			last = optEnd + 1
			i = optEnd + 1

			continue
		}

		i = max(optEnd, i+1)
	}

	if last == 0 {
		return s
	}
	sb.WriteString(s[last:])

	return sb.String()
}

// scanOptions returns the index just past "%[flags][width][.precision]"
// for the '%' at index i.
func scanOptions(s string, i int) int {
	j := i + 1
	for j < len(s) && isFlag(s[j]) {
		j++
	}

	j = scanCount(s, j)
	if j < len(s) && s[j] == '.' {
		j = scanCount(s, j+1)
	}

	return j
}

// scanCount skips a width or precision: '*' or a run of digits.
func scanCount(s string, j int) int {
	if j < len(s) && s[j] == '*' {
		return j + 1
	}
	for j < len(s) && isDigit(s[j]) {
		j++
	}

	return j
}

// scanIntegerModifier returns the index past an integer length modifier at j,
// or j when there is none.
func scanIntegerModifier(s string, j int) int {
	if j >= len(s) {
		return j
	}

	switch s[j] {
	case 'h', 'l':
		if j+1 < len(s) && s[j+1] == s[j] {
			return j + 2
		}

		return j + 1
	case 'j', 'z', 't':
		return j + 1
	default:
		return j
	}
}

func isFlag(c byte) bool {
	switch c {
	case '-', '+', ' ', '#', '0':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIntegerConversion(c byte) bool {
	switch c {
	case 'd', 'i', 'o', 'x', 'X', 'u':
		return true
	default:
		return false
	}
}
