package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"media-indexer/internal/logging"
)

// LoggingConfig holds configuration for the access log middleware
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig logs everything except the metrics scrape.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: true,
	}
}

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// AccessLog returns middleware that writes one W3C Extended Log Format line
// per request:
//
//	date time c-ip cs-method cs-uri-stem cs-uri-query sc-status sc-bytes time-taken cs(User-Agent)
func AccessLog(config LoggingConfig) func(http.Handler) http.Handler {
	log := logging.Prefixed("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			log.Info("%s", formatW3C(r, rec, time.Since(start)))
		})
	}
}

func (c LoggingConfig) skip(path string) bool {
	for _, p := range c.SkipPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return !c.LogHealthChecks && healthCheckPaths[path]
}

func formatW3C(r *http.Request, rec *statusRecorder, took time.Duration) string {
	now := time.Now().UTC()
	return fmt.Sprintf("%s %s %s %s %s %s %d %d %d %s",
		now.Format("2006-01-02"),
		now.Format("15:04:05"),
		orDash(sanitize(clientIP(r))),
		orDash(sanitize(r.Method)),
		orDash(sanitize(r.URL.Path)),
		orDash(sanitize(r.URL.RawQuery)),
		rec.status,
		rec.bytes,
		took.Milliseconds(),
		orDash(quoteW3C(sanitize(r.Header.Get("User-Agent")))),
	)
}

// sanitize drops control characters so a request cannot forge log lines.
// Newlines become spaces.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// quoteW3C quotes values containing whitespace or quotes, doubling embedded quotes.
func quoteW3C(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
