package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestToRoman(t *testing.T) {
	code, out, errOut := runCLI("to-roman", "1999", "14")
	if code != 0 {
		t.Fatalf("exit %d, stderr=%s", code, errOut)
	}
	want := "1999\tMCMXCIX\n14\tXIV\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestToRoman_PartialFailure(t *testing.T) {
	code, out, errOut := runCLI("to-roman", "5", "4000", "abc")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if out != "5\tV\n" {
		t.Fatalf("unexpected stdout %q", out)
	}
	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "error: ") || !strings.Contains(lines[1], "abc") {
		t.Fatalf("unexpected stderr %q", errOut)
	}
}

func TestToRoman_NegativeNeedsSeparator(t *testing.T) {
	if code, _, _ := runCLI("to-roman", "-100"); code != 2 {
		t.Fatalf("expected usage error for bare negative, got %d", code)
	}

	code, out, errOut := runCLI("to-roman", "--", "-100")
	if code != 1 {
		t.Fatalf("expected conversion failure, got %d", code)
	}
	if out != "" || !strings.Contains(errOut, "-100") {
		t.Fatalf("unexpected output stdout=%q stderr=%q", out, errOut)
	}
}

func TestToInt(t *testing.T) {
	code, out, _ := runCLI("to-int", "mmxxiv")
	if code != 0 || out != "2024\tMMXXIV\n" {
		t.Fatalf("exit %d, stdout %q", code, out)
	}

	code, _, errOut := runCLI("to-int", "IIII")
	if code != 1 || !strings.Contains(errOut, "IIII") {
		t.Fatalf("exit %d, stderr %q", code, errOut)
	}
}

func TestToInt_JSON(t *testing.T) {
	code, out, _ := runCLI("--json", "to-int", "XLII")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	var got struct {
		Numeral string `json:"numeral"`
		Value   int    `json:"value"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Numeral != "XLII" || got.Value != 42 {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestTable(t *testing.T) {
	code, out, _ := runCLI("table", "1", "4")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if out != "1\tI\n2\tII\n3\tIII\n4\tIV\n" {
		t.Fatalf("unexpected table %q", out)
	}

	if code, _, _ := runCLI("table", "3990", "4001"); code != 1 {
		t.Fatalf("expected out of range table to fail, got %d", code)
	}
	if code, _, _ := runCLI("table", "9", "2"); code != 1 {
		t.Fatalf("expected reversed range to fail, got %d", code)
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI("version")
	if code != 0 || !strings.HasPrefix(out, "romanctl version ") {
		t.Fatalf("exit %d, stdout %q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, _, _ := runCLI("frobnicate"); code == 0 {
		t.Fatal("expected non-zero exit for unknown command")
	}
}
