// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the scrubber used by the access logger. It never sees
// request or response bodies: chat messages stay out of the logs entirely.
// Query strings and header values are scrubbed of obvious identifiers
// (UUIDs, emails, phone numbers) and sensitive headers are masked.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
)

// Patterns compiled once. UUIDs are replaced before phone numbers so the
// loose phone pattern cannot eat the digit runs inside a UUID.
var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// alwaysMasked lists headers whose values are never logged. Provider
// credentials reach the service through env, but clients sometimes send
// their own.
var alwaysMasked = []string{"authorization", "cookie", "set-cookie", "x-api-key"}

// Redactor scrubs request metadata before it is logged.
type Redactor struct {
	masked map[string]struct{}
}

// NewRedactor returns a Redactor masking alwaysMasked plus extra header
// names (case-insensitive).
func NewRedactor(extra ...string) *Redactor {
	r := &Redactor{masked: make(map[string]struct{}, len(alwaysMasked)+len(extra))}
	for _, h := range append(append([]string{}, alwaysMasked...), extra...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			r.masked[h] = struct{}{}
		}
	}
	return r
}

// String replaces identifiers in s with placeholders.
func (r *Redactor) String(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// Headers flattens h with masked headers replaced and the rest scrubbed.
func (r *Redactor) Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := r.masked[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = r.String(strings.Join(vv, ", "))
	}
	return out
}
