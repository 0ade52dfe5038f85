package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"roman-numerals/go-backend/internal/app"
)

type rpcRequest struct {
	JSONRPC    string          `json:"jsonrpc"`
	ID         json.RawMessage `json:"id"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	APIVersion *int            `json:"api_version,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

const maxRPCBodyBytes int64 = 64 << 10 // 64 KiB

const (
	methodToRoman     = "numerals.to_roman"
	methodToInt       = "numerals.to_int"
	methodRPCVersion  = "rpc.version"
	methodHealthCheck = "health_check"
)

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if !s.applyCORS(w, r) {
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !s.authorizeRPC(w, r) {
		return
	}
	if s.service == nil {
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32099, Message: "service is not initialized"},
		})
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.allowRequest(w, r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRPCBodyBytes)
	var req rpcRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeRPC(w, rpcResponse{
			JSONRPC: "2.0",
			Error:   &rpcError{Code: -32700, Message: "parse error"},
		})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeRPCInvalidRequest(w, req.ID)
		return
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		writeRPCInvalidRequest(w, req.ID)
		return
	}
	if rpcErr := validateRPCAPIVersion(req.APIVersion); rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr})
		return
	}

	ctx := r.Context()
	started := time.Now()
	s.logger.Info("rpc request",
		"request_id", app.CorrelationID(ctx),
		"method", req.Method,
		"rpc_id", string(req.ID),
	)

	result, rpcErr := s.dispatchRPC(ctx, req.Method, req.Params)
	if rpcErr != nil {
		s.logger.Warn("rpc failed",
			"request_id", app.CorrelationID(ctx),
			"method", req.Method,
			"rpc_code", rpcErr.Code,
			"latency_ms", time.Since(started).Milliseconds(),
		)
	} else {
		s.logger.Info("rpc response",
			"request_id", app.CorrelationID(ctx),
			"method", req.Method,
			"latency_ms", time.Since(started).Milliseconds(),
		)
	}
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func (s *Server) dispatchRPC(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case methodHealthCheck:
		return map[string]string{"status": "ok"}, nil
	case methodRPCVersion:
		info := rpcVersionInfo()
		info["server_version"] = s.version
		return info, nil
	case methodToRoman:
		value, err := decodeToRomanParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		res, err := s.service.ToRoman(ctx, value)
		if err != nil {
			return nil, mapConversionRPCError(err)
		}
		return res, nil
	case methodToInt:
		numeral, err := decodeToIntParams(rawParams)
		if err != nil {
			return nil, rpcInvalidParams()
		}
		res, err := s.service.ToInt(ctx, numeral)
		if err != nil {
			return nil, mapConversionRPCError(err)
		}
		return res, nil
	}
	return nil, &rpcError{Code: -32601, Message: "method not found"}
}

var nullID = json.RawMessage("null")

func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	if resp.Error != nil && len(resp.ID) == 0 {
		resp.ID = nullID
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeRPCInvalidRequest(w http.ResponseWriter, id json.RawMessage) {
	writeRPC(w, rpcResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &rpcError{Code: -32600, Message: "invalid request"},
	})
}
