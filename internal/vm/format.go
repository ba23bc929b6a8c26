package vm

import (
	"math"
	"strconv"
	"strings"

	"github.com/lumenscript/lumen/internal/heap"
)

// FormatValue is the exported form of formatValue, used by
// internal/natives' str() so scripts can stringify a value the same
// way `print` does without duplicating the formatting rules.
func FormatValue(v heap.Value) string { return formatValue(v) }

// formatValue renders v the way `print` does: numbers without a
// trailing ".0" when they're integral, strings bare (no quotes),
// callables as "<fn name>" tags, classes as their bare name, and
// instances as "Name instance".
func formatValue(v heap.Value) string {
	switch v.Kind {
	case heap.KindNil:
		return "nil"
	case heap.KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case heap.KindNumber:
		return formatNumber(v.AsNumber())
	case heap.KindObj:
		return formatObject(v.AsObject())
	default:
		return "?"
	}
}

// formatNumber reproduces C's printf("%g", value) exactly, matching
// _examples/original_source/src/vm/value.c's printValue, rather than
// Go's shortest-round-trip 'g' mode: 6 significant digits, fixed-point
// notation when the decimal exponent is in [-4, precision), scientific
// notation otherwise, and trailing zeros (and a bare trailing '.')
// trimmed from whichever form is chosen.
func formatNumber(n float64) string {
	return cFormatG(n, 6)
}

func cFormatG(f float64, prec int) string {
	if prec <= 0 {
		prec = 1
	}
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}

	// Normalize to scientific form with prec-1 fractional digits first,
	// purely to learn the decimal exponent C's rule switches on.
	sci := strconv.FormatFloat(f, 'e', prec-1, 64)
	eIdx := strings.IndexByte(sci, 'e')
	mantissa, expPart := sci[:eIdx], sci[eIdx+1:]
	exp, _ := strconv.Atoi(expPart)

	if exp < -4 || exp >= prec {
		mantissa = trimTrailingZeros(mantissa)
		sign := byte('+')
		if exp < 0 {
			sign = '-'
			exp = -exp
		}
		return mantissa + "e" + string(sign) + padExponent(exp)
	}

	fixed := strconv.FormatFloat(f, 'f', prec-1-exp, 64)
	return trimTrailingZeros(fixed)
}

// trimTrailingZeros drops trailing fractional zeros and, if nothing is
// left after the decimal point, the point itself — C's %g never emits
// a bare trailing '.' or insignificant zeros.
func trimTrailingZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// padExponent matches C's %e/%g rule of at least two exponent digits.
func padExponent(exp int) string {
	s := strconv.Itoa(exp)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}

func formatObject(o heap.Object) string {
	switch v := o.(type) {
	case *heap.String:
		return v.Chars
	case *heap.Function:
		if v.Name == nil {
			return "<script>"
		}
		return "<fn " + v.Name.Chars + ">"
	case *heap.Native:
		return "<native fn " + v.Name + ">"
	case *heap.Closure:
		return formatObject(v.Function)
	case *heap.Class:
		return v.Name.Chars
	case *heap.Instance:
		return v.Class.Name.Chars + " instance"
	case *heap.BoundMethod:
		return formatObject(v.Method.Function)
	default:
		return "<object>"
	}
}
