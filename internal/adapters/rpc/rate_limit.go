package rpc

import (
	"crypto/subtle"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// allowRequest consumes one token for the caller and writes 429 when the
// bucket is empty.
func (s *Server) allowRequest(w http.ResponseWriter, r *http.Request) bool {
	if !s.rateLimited.Load() || s.rpcLimiter == nil {
		return true
	}
	key := s.clientKey(r)
	if s.rpcLimiter.Allow(key, s.now()) {
		return true
	}
	rps, _ := s.rpcLimiter.Limits()
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rps)))
	http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	s.logger.Warn("rate limit exceeded", "client_key", key, "path", r.URL.Path)
	return false
}

func retryAfterSeconds(rps float64) int {
	if rps <= 0 {
		return 1
	}
	secs := int(math.Ceil(1 / rps))
	if secs < 1 {
		return 1
	}
	return secs
}

// clientKey identifies the caller for rate and stream limits. Only a token
// matching the configured one names a client; anything else falls back to
// the remote address so unchecked headers cannot mint fresh buckets.
func (s *Server) clientKey(r *http.Request) string {
	if s.rpcToken == "" {
		return rpcRateLimitKey(r, "")
	}
	token := s.extractRPCToken(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.rpcToken)) != 1 {
		return rpcRateLimitKey(r, "")
	}
	return rpcRateLimitKey(r, token)
}

func rpcRateLimitKey(r *http.Request, token string) string {
	if strings.TrimSpace(token) != "" {
		return "token:" + token
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return "ip:unknown"
	}
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return "ip:" + remote
	}
	if strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
