package rpc

import (
	"errors"

	"roman-numerals/go-backend/internal/numerals"
)

const (
	rpcCodeInvalidNumeral = -32010
	rpcCodeOutOfRange     = -32011
	rpcCodeInternal       = -32603
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: -32602, Message: "invalid params"}
}

func rpcServiceError(code int, err error) *rpcError {
	return &rpcError{Code: code, Message: err.Error()}
}

// mapConversionRPCError translates service errors into JSON-RPC errors,
// attaching the structured details of the core error as data.
func mapConversionRPCError(err error) *rpcError {
	var invalid *numerals.InvalidNumeralError
	if errors.As(err, &invalid) {
		e := rpcServiceError(rpcCodeInvalidNumeral, invalid)
		data := map[string]any{"input": invalid.Input, "reason": invalid.Reason}
		if invalid.Position > 0 {
			data["symbol"] = string(invalid.Symbol)
			data["position"] = invalid.Position
		}
		e.Data = data
		return e
	}
	var outOfRange *numerals.OutOfRangeError
	if errors.As(err, &outOfRange) {
		e := rpcServiceError(rpcCodeOutOfRange, outOfRange)
		e.Data = map[string]any{
			"value": outOfRange.Value,
			"min":   numerals.MinValue,
			"max":   numerals.MaxValue,
		}
		return e
	}
	return &rpcError{Code: rpcCodeInternal, Message: "internal error"}
}
