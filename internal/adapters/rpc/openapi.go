package rpc

import (
	"encoding/json"
	"net/http"
	"sync"

	"roman-numerals/go-backend/internal/app/contracts"

	"github.com/invopop/jsonschema"
)

type toRomanParams struct {
	Value int `json:"value" jsonschema:"description=Integer to convert,minimum=1,maximum=3999"`
}

type toIntParams struct {
	Numeral string `json:"numeral" jsonschema:"description=Roman numeral to parse; case-insensitive"`
}

var openAPIDocument = sync.OnceValues(func() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schemas := map[string]*jsonschema.Schema{
		"ConversionResult": r.Reflect(&contracts.ConversionResult{}),
		"ConversionEvent":  r.Reflect(&contracts.ConversionEvent{}),
		"Error":            r.Reflect(&restErrorBody{}),
		"ToRomanParams":    r.Reflect(&toRomanParams{}),
		"ToIntParams":      r.Reflect(&toIntParams{}),
	}
	ref := func(name string) map[string]any {
		return map[string]any{"$ref": "#/components/schemas/" + name}
	}
	negotiated := func(name string) map[string]any {
		return map[string]any{
			"application/json": map[string]any{"schema": ref(name)},
			"text/plain":       map[string]any{"schema": map[string]any{"type": "string"}},
		}
	}
	pathParam := func(name, typ string) []any {
		return []any{map[string]any{
			"name":     name,
			"in":       "path",
			"required": true,
			"schema":   map[string]any{"type": typ},
		}}
	}
	doc := map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "Roman numerals",
			"version": "1",
		},
		"paths": map[string]any{
			"/romannumerals/convertfromint/{intvalue}": map[string]any{
				"get": map[string]any{
					"summary":    "Convert an integer to a Roman numeral",
					"parameters": pathParam("intvalue", "integer"),
					"responses": map[string]any{
						"200": map[string]any{"description": "converted", "content": negotiated("ConversionResult")},
						"400": map[string]any{"description": "not an integer", "content": negotiated("Error")},
						"422": map[string]any{"description": "out of range", "content": negotiated("Error")},
					},
				},
			},
			"/romannumerals/converttoint/{romannumeral}": map[string]any{
				"get": map[string]any{
					"summary":    "Convert a Roman numeral to an integer",
					"parameters": pathParam("romannumeral", "string"),
					"responses": map[string]any{
						"200": map[string]any{"description": "converted", "content": negotiated("ConversionResult")},
						"422": map[string]any{"description": "invalid numeral", "content": negotiated("Error")},
					},
				},
			},
		},
		"x-jsonrpc": map[string]any{
			"endpoint": "/rpc",
			"methods": map[string]any{
				methodToRoman:     map[string]any{"params": ref("ToRomanParams"), "result": ref("ConversionResult")},
				methodToInt:       map[string]any{"params": ref("ToIntParams"), "result": ref("ConversionResult")},
				methodRPCVersion:  map[string]any{},
				methodHealthCheck: map[string]any{},
			},
			"notifications": map[string]any{
				"endpoint": "/rpc/stream",
				"payload":  ref("ConversionEvent"),
			},
		},
		"components": map[string]any{"schemas": schemas},
	}
	return json.MarshalIndent(doc, "", "  ")
})

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := openAPIDocument()
	if err != nil {
		s.logger.Error("openapi document build failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
