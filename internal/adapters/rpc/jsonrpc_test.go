package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type rpcTestResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

func callRPC(t *testing.T, s *Server, body string) (int, rpcTestResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	var resp rpcTestResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode rpc response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec.Code, resp
}

func TestRPC_ToRoman(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":[14]}`,
		`{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":{"value":14}}`,
	} {
		_, resp := callRPC(t, s, body)
		if resp.Error != nil {
			t.Fatalf("unexpected error: %+v", resp.Error)
		}
		var got struct {
			Numeral string `json:"numeral"`
			Value   int    `json:"value"`
		}
		if err := json.Unmarshal(resp.Result, &got); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if got.Numeral != "XIV" || got.Value != 14 {
			t.Fatalf("unexpected result %+v", got)
		}
		if string(resp.ID) != "1" {
			t.Fatalf("id not echoed: %s", resp.ID)
		}
	}
}

func TestRPC_ToInt(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":"a","method":"numerals.to_int","params":["mmxxiv"]}`,
		`{"jsonrpc":"2.0","id":"a","method":"numerals.to_int","params":{"numeral":"MMXXIV"}}`,
	} {
		_, resp := callRPC(t, s, body)
		if resp.Error != nil {
			t.Fatalf("unexpected error: %+v", resp.Error)
		}
		var got struct {
			Numeral string `json:"numeral"`
			Value   int    `json:"value"`
		}
		if err := json.Unmarshal(resp.Result, &got); err != nil {
			t.Fatalf("decode result: %v", err)
		}
		if got.Numeral != "MMXXIV" || got.Value != 2024 {
			t.Fatalf("unexpected result %+v", got)
		}
	}
}

func TestRPC_ErrorCodes(t *testing.T) {
	s, _ := newTestServer(t, nil)
	cases := []struct {
		name string
		body string
		code int
	}{
		{"parse", `{"jsonrpc":`, -32700},
		{"version", `{"jsonrpc":"1.0","id":1,"method":"health_check"}`, -32600},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, -32600},
		{"trailing data", `{"jsonrpc":"2.0","id":1,"method":"health_check"} {}`, -32600},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"numerals.nope"}`, -32601},
		{"fractional", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":[1.5]}`, -32602},
		{"string value", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":["5"]}`, -32602},
		{"two params", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":[1,2]}`, -32602},
		{"numeric numeral", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":[5]}`, -32602},
		{"missing numeral", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":{}}`, -32602},
		{"invalid numeral", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":["IIII"]}`, rpcCodeInvalidNumeral},
		{"empty numeral", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":[""]}`, rpcCodeInvalidNumeral},
		{"int overflow", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":[9223372036854775808]}`, -32602},
		{"out of range", `{"jsonrpc":"2.0","id":1,"method":"numerals.to_roman","params":[4000]}`, rpcCodeOutOfRange},
		{"future api", `{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":2}`, -32080},
		{"retired api", `{"jsonrpc":"2.0","id":1,"method":"health_check","api_version":0}`, -32081},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, resp := callRPC(t, s, tc.body)
			if status != http.StatusOK {
				t.Fatalf("unexpected status %d", status)
			}
			if resp.Error == nil || resp.Error.Code != tc.code {
				t.Fatalf("expected code %d, got %+v", tc.code, resp.Error)
			}
		})
	}
}

func TestRPC_InvalidNumeralCarriesPosition(t *testing.T) {
	s, _ := newTestServer(t, nil)
	_, resp := callRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":["MCMHXCIX"]}`)
	if resp.Error == nil {
		t.Fatal("expected error")
	}
	data, ok := resp.Error.Data.(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", resp.Error.Data)
	}
	if data["symbol"] != "H" || data["position"] != float64(4) {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestRPC_VersionAndHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	_, resp := callRPC(t, s, `{"jsonrpc":"2.0","id":1,"method":"rpc.version"}`)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	var info map[string]any
	if err := json.Unmarshal(resp.Result, &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["server_version"] != "test" || info["current_version"] != float64(rpcAPICurrentVersion) {
		t.Fatalf("unexpected version info %+v", info)
	}

	_, resp = callRPC(t, s, `{"jsonrpc":"2.0","id":2,"method":"health_check"}`)
	if resp.Error != nil || !strings.Contains(string(resp.Result), "ok") {
		t.Fatalf("unexpected health result %s %+v", resp.Result, resp.Error)
	}
}

func TestRPC_UnknownIDIsNull(t *testing.T) {
	s, _ := newTestServer(t, nil)
	for _, body := range []string{
		`{"jsonrpc":`,
		`{"jsonrpc":"2.0","method":"numerals.nope"}`,
	} {
		_, resp := callRPC(t, s, body)
		if resp.Error == nil {
			t.Fatalf("%s: expected error", body)
		}
		if string(resp.ID) != "null" {
			t.Fatalf("%s: expected null id, got %q", body, resp.ID)
		}
	}
}

func TestRPC_RejectsOversizedBody(t *testing.T) {
	s, _ := newTestServer(t, nil)
	huge := `{"jsonrpc":"2.0","id":1,"method":"numerals.to_int","params":["` + strings.Repeat("I", int(maxRPCBodyBytes)) + `"]}`
	status, _ := callRPC(t, s, huge)
	if status != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", status)
	}
}

func TestRPC_RequiresPost(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := doGet(t, s, "/rpc", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestDecodeStrictInt(t *testing.T) {
	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{float64(7), 7, true},
		{float64(-3), -3, true},
		{float64(0), 0, true},
		{1.25, 0, false},
		{"7", 0, false},
		{nil, 0, false},
		{1e300, 0, false},
		{9223372036854775808.0, 0, false},
	}
	for _, tc := range cases {
		got, err := decodeStrictInt(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("decodeStrictInt(%v) = %d, %v", tc.in, got, err)
		}
	}
}
