package numerals

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidNumeral = errors.New("invalid roman numeral")
	ErrOutOfRange     = errors.New("value out of range")
)

// Reasons attached to InvalidNumeralError.
const (
	ReasonEmpty            = "empty input"
	ReasonInvalidSymbol    = "invalid symbol"
	ReasonRepeatedSymbol   = "symbol repeated more than three times"
	ReasonUnexpectedSymbol = "unexpected symbol"
)

// InvalidNumeralError reports input that is not the canonical spelling of a
// value in range. Position is 1-based and zero when no single symbol is at
// fault.
type InvalidNumeralError struct {
	Input    string
	Reason   string
	Symbol   rune
	Position int
}

func (e *InvalidNumeralError) Error() string {
	if e.Position <= 0 {
		return fmt.Sprintf("the input: '%s' is not a valid roman numeral: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("the input: '%s' is not a valid roman numeral: %s %q at position %d", e.Input, e.Reason, e.Symbol, e.Position)
}

func (e *InvalidNumeralError) Is(target error) bool {
	return target == ErrInvalidNumeral
}

// OutOfRangeError reports an integer that has no numeral in [MinValue, MaxValue].
type OutOfRangeError struct {
	Value int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("unable to convert %d to roman numeral: only values between %d and %d can be converted", e.Value, MinValue, MaxValue)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
