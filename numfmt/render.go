package numfmt

import "strconv"

const (
	defaultFixedPrecision      = 2
	defaultScientificPrecision = 6
	// currencySymbol is the invariant-culture currency sign.
	currencySymbol = "¤"
)

// AppendInt renders v under f into dst and returns the extended slice.
// Alignment follows composite-format semantics: a positive width right-aligns
// (pads left), a negative width left-aligns (pads right); the sign character
// counts against the width.
func AppendInt(dst []byte, v int64, f Format, alignment int) []byte {
	neg := v < 0
	mag := uint64(v)
	if neg {
		mag = uint64(-v)
	}
	return appendValue(dst, neg, mag, f, alignment)
}

// AppendUint renders v under f into dst and returns the extended slice.
func AppendUint(dst []byte, v uint64, f Format, alignment int) []byte {
	return appendValue(dst, false, v, f, alignment)
}

func appendValue(dst []byte, neg bool, mag uint64, f Format, alignment int) []byte {
	var scratch [96]byte
	content := renderContent(scratch[:0], mag, f)
	return appendAligned(dst, neg, content, alignment)
}

func appendAligned(dst []byte, neg bool, content []byte, alignment int) []byte {
	width := alignment
	if width < 0 {
		width = -width
	}
	pad := width - len(content)
	if neg {
		pad--
	}
	if pad < 0 {
		pad = 0
	}
	if alignment > 0 {
		for i := 0; i < pad; i++ {
			dst = append(dst, ' ')
		}
	}
	if neg {
		dst = append(dst, '-')
	}
	dst = append(dst, content...)
	if alignment < 0 {
		for i := 0; i < pad; i++ {
			dst = append(dst, ' ')
		}
	}
	return dst
}

// renderContent produces the unsigned, unaligned body of the formatted
// value; the sign and field padding are applied by the caller.
func renderContent(dst []byte, mag uint64, f Format) []byte {
	switch f.Spec {
	case Custom:
		return renderCustom(dst, mag, f)
	case Decimal:
		return appendPaddedDigits(dst, mag, f.Precision)
	case Hex:
		return renderHex(dst, mag, f)
	case Scientific:
		return renderScientific(dst, mag, f)
	case FixedPoint:
		return renderFixed(dst, mag, precisionOr(f, defaultFixedPrecision), false)
	case Number:
		return renderFixed(dst, mag, precisionOr(f, defaultFixedPrecision), true)
	case Percent:
		dst = renderFixed(dst, mag*100, precisionOr(f, defaultFixedPrecision), true)
		return append(dst, ' ', '%')
	case Currency:
		dst = append(dst, currencySymbol...)
		return renderFixed(dst, mag, precisionOr(f, defaultFixedPrecision), true)
	default:
		// None, General, RoundTrip: plain decimal digits.
		return strconv.AppendUint(dst, mag, 10)
	}
}

func precisionOr(f Format, fallback int) int {
	if f.Precision < 0 {
		return fallback
	}
	return f.Precision
}

func appendPaddedDigits(dst []byte, mag uint64, precision int) []byte {
	var digits [20]byte
	body := strconv.AppendUint(digits[:0], mag, 10)
	for i := len(body); i < precision; i++ {
		dst = append(dst, '0')
	}
	return append(dst, body...)
}

func renderHex(dst []byte, mag uint64, f Format) []byte {
	var digits [16]byte
	body := strconv.AppendUint(digits[:0], mag, 16)
	if f.Upper {
		for i, c := range body {
			if c >= 'a' && c <= 'f' {
				body[i] = c - ('a' - 'A')
			}
		}
	}
	for i := len(body); i < f.Precision; i++ {
		dst = append(dst, '0')
	}
	return append(dst, body...)
}

// renderFixed emits integral digits, optional 3-digit grouping, and a
// fractional tail of zeros. Integer inputs have no fraction to carry, so the
// tail is always zeros.
func renderFixed(dst []byte, mag uint64, precision int, group bool) []byte {
	var digits [20]byte
	body := strconv.AppendUint(digits[:0], mag, 10)
	if group {
		dst = appendGrouped(dst, body)
	} else {
		dst = append(dst, body...)
	}
	if precision > 0 {
		dst = append(dst, '.')
		for i := 0; i < precision; i++ {
			dst = append(dst, '0')
		}
	}
	return dst
}

func appendGrouped(dst []byte, digits []byte) []byte {
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	dst = append(dst, digits[:lead]...)
	for i := lead; i < len(digits); i += 3 {
		dst = append(dst, ',')
		dst = append(dst, digits[i:i+3]...)
	}
	return dst
}

// renderScientific emits d.dddE+ddd with a rounded mantissa of the requested
// precision (default 6) and a three-digit exponent.
func renderScientific(dst []byte, mag uint64, f Format) []byte {
	precision := precisionOr(f, defaultScientificPrecision)
	var digits [20]byte
	body := strconv.AppendUint(digits[:0], mag, 10)
	exponent := len(body) - 1
	if mag == 0 {
		exponent = 0
	}

	mantissa := make([]byte, 0, precision+1)
	mantissa = append(mantissa, body[0])
	for i := 1; i <= precision; i++ {
		if i < len(body) {
			mantissa = append(mantissa, body[i])
		} else {
			mantissa = append(mantissa, '0')
		}
	}
	// Round on the first dropped digit; a full carry (999.. -> 1000..)
	// bumps the exponent.
	if precision+1 < len(body) && body[precision+1] >= '5' {
		i := len(mantissa) - 1
		for i >= 0 {
			if mantissa[i] != '9' {
				mantissa[i]++
				break
			}
			mantissa[i] = '0'
			i--
		}
		if i < 0 {
			mantissa = append([]byte{'1'}, mantissa...)
			mantissa = mantissa[:len(mantissa)-1]
			exponent++
		}
	}

	dst = append(dst, mantissa[0])
	if precision > 0 {
		dst = append(dst, '.')
		dst = append(dst, mantissa[1:]...)
	}
	e := byte('E')
	if !f.Upper {
		e = 'e'
	}
	dst = append(dst, e, '+')
	dst = append(dst, byte('0'+exponent/100%10), byte('0'+exponent/10%10), byte('0'+exponent%10))
	return dst
}

// renderCustom walks the parsed digit skeleton. The integral side is built
// right to left consuming value digits, inserting group commas every three
// digits once grouping is enabled; the fractional side is filled left to
// right from the digits removed by number scaling.
func renderCustom(dst []byte, mag uint64, f Format) []byte {
	// Apply scaling separators: each one divides by 1000 and donates its
	// remainder digits to the fractional source, most significant division
	// first.
	var fracSrc [64]byte
	fracLen := 0
	for i := 0; i < f.NumberScalingSeparators && fracLen+3 <= len(fracSrc); i++ {
		rem := mag % 1000
		mag /= 1000
		copy(fracSrc[3:], fracSrc[:fracLen])
		fracSrc[0] = byte('0' + rem/100)
		fracSrc[1] = byte('0' + rem/10%10)
		fracSrc[2] = byte('0' + rem%10)
		fracLen += 3
	}

	// A zero value contributes no digits of its own; only mandatory '0'
	// placeholders emit.
	var digits [20]byte
	var body []byte
	if mag != 0 {
		body = strconv.AppendUint(digits[:0], mag, 10)
	}

	// Integral side, right to left into reversed.
	var reversed [96]byte
	rev := reversed[:0]
	di := len(body) - 1
	emitted := 0
	emitDigit := func(c byte) {
		if f.GroupSeparatorDigits == 3 && emitted > 0 && emitted%3 == 0 {
			rev = append(rev, ',')
		}
		rev = append(rev, c)
		emitted++
	}
	for i := len(f.intItems) - 1; i >= 0; i-- {
		item := f.intItems[i]
		if item.digit == 0 {
			for j := len(item.text) - 1; j >= 0; j-- {
				rev = append(rev, item.text[j])
			}
			continue
		}
		if di >= 0 {
			emitDigit(body[di])
			di--
		} else if item.digit == '0' {
			emitDigit('0')
		}
	}
	for di >= 0 {
		emitDigit(body[di])
		di--
	}
	for i := len(rev) - 1; i >= 0; i-- {
		dst = append(dst, rev[i])
	}

	if f.fracHoles == 0 {
		return dst
	}
	dst = append(dst, '.')
	k := 0
	for _, item := range f.fracItems {
		if item.digit == 0 {
			dst = append(dst, item.text...)
			continue
		}
		if k < fracLen {
			dst = append(dst, fracSrc[k])
			k++
		} else if item.digit == '0' {
			dst = append(dst, '0')
		}
	}
	return dst
}
