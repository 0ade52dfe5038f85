package numerals

import (
	"strings"
	"unicode/utf8"
)

// maxRepeat bounds consecutive repetitions of one unit symbol.
const maxRepeat = 3

// cursor is an immutable read position into a normalized numeral. Parsing
// steps take a cursor and return the advanced one.
type cursor struct {
	input string
	pos   int
}

func (c cursor) done() bool {
	return c.pos >= len(c.input)
}

func (c cursor) peek() byte {
	return c.peekAt(0)
}

func (c cursor) peekAt(offset int) byte {
	i := c.pos + offset
	if i < 0 || i >= len(c.input) {
		return 0
	}
	return c.input[i]
}

// advance consumes the current symbol. The symbol after it, if any, must
// belong to the alphabet of the tier being parsed.
func (c cursor) advance(t Tier) (cursor, error) {
	next := c.pos + 1
	if next < len(c.input) && !t.allows(c.input[next]) {
		return c, c.unexpectedAt(next)
	}
	c.pos = next
	return c, nil
}

func (c cursor) unexpectedAt(i int) *InvalidNumeralError {
	reason := ReasonUnexpectedSymbol
	if _, ok := SymbolValue(c.input[i]); !ok {
		reason = ReasonInvalidSymbol
	}
	return c.failAt(i, reason)
}

func (c cursor) failAt(i int, reason string) *InvalidNumeralError {
	r, _ := utf8.DecodeRuneInString(c.input[i:])
	return &InvalidNumeralError{
		Input:    c.input,
		Reason:   reason,
		Symbol:   r,
		Position: utf8.RuneCountInString(c.input[:i]) + 1,
	}
}

// Parse converts a Roman numeral to its integer value. Letters are matched
// case-insensitively; any input that is not the unique canonical spelling of
// a value in [MinValue, MaxValue] yields an *InvalidNumeralError.
func Parse(input string) (int, error) {
	if input == "" {
		return 0, &InvalidNumeralError{Input: input, Reason: ReasonEmpty}
	}
	c := cursor{input: normalize(input)}

	thousands, c, err := parseThousands(c)
	if err != nil {
		return 0, err
	}
	total := thousands * Thousands.Magnitude()

	for _, t := range Tiers[Hundreds:] {
		var digit int
		digit, c, err = parseDigit(c, t)
		if err != nil {
			return 0, err
		}
		total += digit * t.Magnitude()
	}

	if !c.done() {
		return 0, c.unexpectedAt(c.pos)
	}
	return total, nil
}

// normalize upper-cases ASCII letters only, so that byte offsets and
// non-ASCII runes are preserved for error reporting.
func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if 'a' <= r && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

func parseThousands(c cursor) (int, cursor, error) {
	return repeatUnit(c, Thousands, thousandsUnit)
}

// parseDigit reads one digit group (0-9) of a hundreds, tens or ones tier.
// The accepted shapes are O, OO, OOO, OF, F, FO, FOO, FOOO and OT where O, F
// and T are the tier's unit, five and ten symbols.
func parseDigit(c cursor, t Tier) (int, cursor, error) {
	sym, _ := t.Symbols()
	var err error
	switch c.peek() {
	case sym.Unit:
		switch c.peekAt(1) {
		case sym.Five:
			c, err = consume(c, t, 2)
			return 4, c, err
		case sym.Ten:
			c, err = consume(c, t, 2)
			return 9, c, err
		}
		return repeatUnit(c, t, sym.Unit)
	case sym.Five:
		if c, err = c.advance(t); err != nil {
			return 0, c, err
		}
		var n int
		n, c, err = repeatUnit(c, t, sym.Unit)
		return 5 + n, c, err
	default:
		return 0, c, nil
	}
}

func consume(c cursor, t Tier, n int) (cursor, error) {
	var err error
	for i := 0; i < n; i++ {
		if c, err = c.advance(t); err != nil {
			return c, err
		}
	}
	return c, nil
}

// repeatUnit greedily consumes up to maxRepeat copies of unit. A further copy
// is a grammar violation rather than the start of the next tier.
func repeatUnit(c cursor, t Tier, unit byte) (int, cursor, error) {
	count := 0
	for c.peek() == unit {
		if count == maxRepeat {
			return 0, c, c.failAt(c.pos, ReasonRepeatedSymbol)
		}
		var err error
		if c, err = c.advance(t); err != nil {
			return 0, c, err
		}
		count++
	}
	return count, c, nil
}
