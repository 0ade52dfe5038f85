package app

import (
	"log/slog"

	"roman-numerals/go-backend/internal/numerals"

	"github.com/prometheus/client_golang/prometheus"
)

// Error categories recorded on CategorizedError and in metrics.
const (
	CategoryValidation = "validation"
	CategoryInternal   = "internal"
)

type CategorizedError struct {
	Category string
	Err      error
}

func (e *CategorizedError) Error() string {
	return e.Err.Error()
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// ConversionResult carries both sides of a successful conversion so that
// transports can render whichever one the caller asked for.
type ConversionResult struct {
	Numeral string `json:"numeral" jsonschema:"description=Canonical upper-case Roman numeral,minLength=1,maxLength=15,example=MCMXCIX"`
	Value   int    `json:"value" jsonschema:"description=Integer value,minimum=1,maximum=3999,example=1999"`
}

// ConversionEvent is the payload published for every conversion attempt.
type ConversionEvent struct {
	Operation string `json:"operation"`
	Input     string `json:"input"`
	Outcome   string `json:"outcome"`
	Numeral   string `json:"numeral,omitempty"`
	Value     int    `json:"value,omitempty"`
	Error     string `json:"error,omitempty"`
}

type ServiceOptions struct {
	Engine        numerals.Engine
	Logger        *slog.Logger
	Registerer    prometheus.Registerer
	EventBacklog  int
	PublishEvents bool
}
