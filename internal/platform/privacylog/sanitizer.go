package privacylog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/blake2b"
)

const (
	redactedValue = "[REDACTED]"

	// MaxInputLen bounds free-form caller input copied into log records.
	MaxInputLen = 64
)

var (
	bootKey           = randomKey()
	fingerprintKeys   = map[string]struct{}{"client_key": {}, "remote_addr": {}}
	truncatedKeys     = map[string]struct{}{"input": {}, "numeral": {}, "path": {}}
	sensitiveKeyParts = []string{"token", "secret", "password", "authorization", "auth"}
)

// SanitizingHandler redacts credentials, fingerprints client identifiers and
// truncates oversized caller input before records reach the next handler.
type SanitizingHandler struct {
	next slog.Handler
}

func WrapHandler(next slog.Handler) slog.Handler {
	if next == nil {
		return nil
	}
	return &SanitizingHandler{next: next}
}

func (h *SanitizingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *SanitizingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, rec.Message, rec.PC)
	rec.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(SanitizeAttr(attr))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *SanitizingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SanitizingHandler{next: h.next.WithAttrs(sanitizeAttrs(attrs))}
}

func (h *SanitizingHandler) WithGroup(name string) slog.Handler {
	return &SanitizingHandler{next: h.next.WithGroup(name)}
}

func SanitizeAttr(attr slog.Attr) slog.Attr {
	key := strings.TrimSpace(attr.Key)
	lowerKey := strings.ToLower(key)
	switch {
	case isSensitiveKey(lowerKey):
		return slog.String(key, redactedValue)
	case isFingerprintKey(lowerKey):
		return slog.String(fingerprintKeyName(key), FingerprintID(valueToString(attr.Value)))
	case isTruncatedKey(lowerKey) && attr.Value.Kind() == slog.KindString:
		return slog.String(key, Truncate(attr.Value.String()))
	case attr.Value.Kind() == slog.KindGroup:
		return slog.Attr{Key: key, Value: slog.GroupValue(sanitizeAttrs(attr.Value.Group())...)}
	}
	return attr
}

// FingerprintID returns a stable per-process fingerprint of value.
func FingerprintID(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	h, err := blake2b.New256(bootKey)
	if err != nil {
		return ""
	}
	_, _ = h.Write([]byte(trimmed))
	return "fp_" + hex.EncodeToString(h.Sum(nil)[:8])
}

// Truncate shortens s to MaxInputLen runes, marking the cut.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= MaxInputLen {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s...(%d more)", string(runes[:MaxInputLen]), len(runes)-MaxInputLen)
}

func sanitizeAttrs(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		out = append(out, SanitizeAttr(attr))
	}
	return out
}

func isFingerprintKey(key string) bool {
	_, ok := fingerprintKeys[key]
	return ok
}

func isTruncatedKey(key string) bool {
	_, ok := truncatedKeys[key]
	return ok
}

func fingerprintKeyName(key string) string {
	if strings.HasSuffix(strings.ToLower(strings.TrimSpace(key)), "_fp") {
		return key
	}
	return key + "_fp"
}

func isSensitiveKey(key string) bool {
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func valueToString(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return fmt.Sprintf("%d", v.Int64())
	case slog.KindUint64:
		return fmt.Sprintf("%d", v.Uint64())
	default:
		return fmt.Sprint(v.Any())
	}
}

// randomKey returns the per-process key for fingerprints, so they correlate
// within one run but not across restarts.
func randomKey() []byte {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return []byte("fallback_fingerprint_key")
	}
	return buf
}
