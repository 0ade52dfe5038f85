package rpc

import (
	"encoding/json"
	"errors"
	"math"
)

var errInvalidParams = errors.New("invalid params")

// decodeToRomanParams accepts either [n] or {"value": n}.
func decodeToRomanParams(raw json.RawMessage) (int, error) {
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 1 {
			return 0, errInvalidParams
		}
		return decodeStrictInt(arr[0])
	}

	var payload struct {
		Value *any `json:"value"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Value == nil {
		return 0, errInvalidParams
	}
	return decodeStrictInt(*payload.Value)
}

// decodeToIntParams accepts either ["XIV"] or {"numeral": "XIV"}. An empty
// numeral is a valid request that the converter rejects on its own terms.
func decodeToIntParams(raw json.RawMessage) (string, error) {
	var arr []any
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) != 1 {
			return "", errInvalidParams
		}
		numeral, ok := arr[0].(string)
		if !ok {
			return "", errInvalidParams
		}
		return numeral, nil
	}

	var payload struct {
		Numeral *string `json:"numeral"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Numeral == nil {
		return "", errInvalidParams
	}
	return *payload.Numeral, nil
}

// decodeStrictInt accepts only JSON numbers with no fractional part that fit
// in an int. Range checks are left to the converter.
func decodeStrictInt(raw any) (int, error) {
	v, ok := raw.(float64)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errInvalidParams
	}
	if math.Trunc(v) != v {
		return 0, errInvalidParams
	}
	// float64(math.MaxInt) rounds up to a power of two, which is itself
	// out of range.
	limit := float64(math.MaxInt)
	if v >= limit || v < -limit {
		return 0, errInvalidParams
	}
	return int(v), nil
}
