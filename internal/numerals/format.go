package numerals

// Bounds of the values that have a numeral.
const (
	MinValue = 1
	MaxValue = 3999
)

// maxNumeralLen is the length of the longest canonical numeral, MMMDCCCLXXXVIII.
const maxNumeralLen = 15

// Format returns the canonical numeral for n, or an *OutOfRangeError when n
// is outside [MinValue, MaxValue].
func Format(n int) (string, error) {
	if n < MinValue || n > MaxValue {
		return "", &OutOfRangeError{Value: n}
	}
	buf := make([]byte, 0, maxNumeralLen)
	for _, t := range Tiers {
		digit := n / t.Magnitude()
		n %= t.Magnitude()
		buf = appendDigit(buf, t, digit)
	}
	return string(buf), nil
}

// appendDigit appends the glyphs for one digit (0-9) of tier t. The
// thousands tier only ever receives 0-3 after the range check.
func appendDigit(dst []byte, t Tier, digit int) []byte {
	sym, ok := t.Symbols()
	if !ok {
		return appendRepeat(dst, sym.Unit, digit)
	}
	switch digit {
	case 0:
		return dst
	case 1, 2, 3:
		return appendRepeat(dst, sym.Unit, digit)
	case 4:
		return append(dst, sym.Unit, sym.Five)
	case 5, 6, 7, 8:
		return appendRepeat(append(dst, sym.Five), sym.Unit, digit-5)
	case 9:
		return append(dst, sym.Unit, sym.Ten)
	default:
		panic("numerals: digit out of range")
	}
}

func appendRepeat(dst []byte, ch byte, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, ch)
	}
	return dst
}
