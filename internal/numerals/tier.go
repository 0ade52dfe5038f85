package numerals

import "strings"

// Tier is one decimal magnitude of a numeral, ordered most- to
// least-significant.
type Tier int

const (
	Thousands Tier = iota
	Hundreds
	Tens
	Ones
)

// Tiers lists every tier in parse and format order.
var Tiers = [...]Tier{Thousands, Hundreds, Tens, Ones}

// SymbolTriple holds the symbols worth one, five and ten units of a tier.
// Ten is always the unit symbol of the next tier up.
type SymbolTriple struct {
	Unit byte
	Five byte
	Ten  byte
}

const (
	symbolsAll      = "IVXLCDM"
	symbolsTensTier = "IVXLC"
	symbolsOnesTier = "IVX"
)

var (
	tierMagnitudes = [...]int{
		Thousands: 1000,
		Hundreds:  100,
		Tens:      10,
		Ones:      1,
	}
	tierTriples = [...]SymbolTriple{
		Hundreds: {Unit: 'C', Five: 'D', Ten: 'M'},
		Tens:     {Unit: 'X', Five: 'L', Ten: 'C'},
		Ones:     {Unit: 'I', Five: 'V', Ten: 'X'},
	}
	tierNames = [...]string{
		Thousands: "thousands",
		Hundreds:  "hundreds",
		Tens:      "tens",
		Ones:      "ones",
	}
)

// thousandsUnit is the only symbol the thousands tier may use.
const thousandsUnit byte = 'M'

func (t Tier) String() string {
	if t < Thousands || t > Ones {
		return "unknown"
	}
	return tierNames[t]
}

// Magnitude returns the value of one unit of the tier.
func (t Tier) Magnitude() int {
	return tierMagnitudes[t]
}

// Symbols returns the tier's symbol triple. The thousands tier has no five or
// ten symbol and reports false; callers special-case it.
func (t Tier) Symbols() (SymbolTriple, bool) {
	if t == Thousands {
		return SymbolTriple{Unit: thousandsUnit}, false
	}
	return tierTriples[t], true
}

// ValidChars returns the symbols that may follow a consumed symbol while the
// tier is being parsed.
func (t Tier) ValidChars() string {
	switch t {
	case Ones:
		return symbolsOnesTier
	case Tens:
		return symbolsTensTier
	default:
		return symbolsAll
	}
}

func (t Tier) allows(ch byte) bool {
	return strings.IndexByte(t.ValidChars(), ch) >= 0
}

// SymbolValue reports the value of a single uppercase Roman symbol.
func SymbolValue(ch byte) (int, bool) {
	switch ch {
	case 'I':
		return 1, true
	case 'V':
		return 5, true
	case 'X':
		return 10, true
	case 'L':
		return 50, true
	case 'C':
		return 100, true
	case 'D':
		return 500, true
	case 'M':
		return 1000, true
	default:
		return 0, false
	}
}
