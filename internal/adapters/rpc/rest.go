package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"roman-numerals/go-backend/internal/numerals"

	"github.com/elnormous/contenttype"
)

var (
	jsonMediaType  = contenttype.NewMediaType("application/json")
	plainMediaType = contenttype.NewMediaType("text/plain")
	restMediaTypes = []contenttype.MediaType{jsonMediaType, plainMediaType}
)

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type restErrorBody struct {
	Error restError `json:"error"`
}

func (s *Server) handleConvertFromInt(w http.ResponseWriter, r *http.Request) {
	plain, ok := s.prepareREST(w, r)
	if !ok {
		return
	}
	raw := r.PathValue("intvalue")
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		writeRESTError(w, plain, http.StatusBadRequest, "invalid_integer",
			fmt.Sprintf("the value '%s' is not an integer", raw))
		return
	}
	res, err := s.service.ToRoman(r.Context(), value)
	if err != nil {
		s.writeConversionError(w, plain, err)
		return
	}
	if plain {
		writePlain(w, http.StatusOK, res.Numeral)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleConvertToInt(w http.ResponseWriter, r *http.Request) {
	plain, ok := s.prepareREST(w, r)
	if !ok {
		return
	}
	res, err := s.service.ToInt(r.Context(), r.PathValue("romannumeral"))
	if err != nil {
		s.writeConversionError(w, plain, err)
		return
	}
	if plain {
		writePlain(w, http.StatusOK, strconv.Itoa(res.Value))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// prepareREST runs the checks shared by the conversion routes and reports
// whether the client negotiated text/plain.
func (s *Server) prepareREST(w http.ResponseWriter, r *http.Request) (bool, bool) {
	if !s.applyCORS(w, r) {
		return false, false
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return false, false
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false, false
	}
	if !s.authorizeRPC(w, r) {
		return false, false
	}
	if s.service == nil {
		http.Error(w, "service is not initialized", http.StatusServiceUnavailable)
		return false, false
	}
	plain, err := negotiatePlain(r)
	if err != nil {
		http.Error(w, "not acceptable", http.StatusNotAcceptable)
		return false, false
	}
	if !s.allowRequest(w, r) {
		return false, false
	}
	return plain, true
}

func negotiatePlain(r *http.Request) (bool, error) {
	if strings.TrimSpace(r.Header.Get("Accept")) == "" {
		return false, nil
	}
	mt, _, err := contenttype.GetAcceptableMediaType(r, restMediaTypes)
	if err != nil {
		return false, err
	}
	return mt.Type == plainMediaType.Type && mt.Subtype == plainMediaType.Subtype, nil
}

func (s *Server) writeConversionError(w http.ResponseWriter, plain bool, err error) {
	switch {
	case errors.Is(err, numerals.ErrInvalidNumeral):
		writeRESTError(w, plain, http.StatusUnprocessableEntity, "invalid_numeral", errMessage(err))
	case errors.Is(err, numerals.ErrOutOfRange):
		writeRESTError(w, plain, http.StatusUnprocessableEntity, "out_of_range", errMessage(err))
	default:
		s.logger.Error("conversion failed", "error", err)
		writeRESTError(w, plain, http.StatusInternalServerError, "internal", "internal error")
	}
}

// errMessage returns the message of the innermost typed core error so that
// the response does not leak service-level wrapping.
func errMessage(err error) string {
	var invalid *numerals.InvalidNumeralError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	var outOfRange *numerals.OutOfRangeError
	if errors.As(err, &outOfRange) {
		return outOfRange.Error()
	}
	return err.Error()
}

func writeRESTError(w http.ResponseWriter, plain bool, status int, code, message string) {
	if plain {
		writePlain(w, status, message)
		return
	}
	writeJSON(w, status, restErrorBody{Error: restError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writePlain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintln(w, body)
}
