package numerals

// Engine is the two-operation surface callers such as an HTTP layer consume.
type Engine interface {
	ConvertToInt(numeral string) (int, error)
	ConvertToRomanNumeral(value int) (string, error)
}

// Standard is the stateless Engine backed by Parse and Format.
type Standard struct{}

var _ Engine = Standard{}

func (Standard) ConvertToInt(numeral string) (int, error) {
	return Parse(numeral)
}

func (Standard) ConvertToRomanNumeral(value int) (string, error) {
	return Format(value)
}
