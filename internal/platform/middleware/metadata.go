package middleware

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"cheerconnect/pkg/requestcontext"
)

// ClientMetadata extracts client IP, User-Agent, and a parsed device summary
// from the request and adds them to the context. Audit events record the
// device summary so users can recognize their own sessions.
// Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIPFromRequest(r), ua, deviceSummary(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceSummary condenses a User-Agent into "Browser on OS".
func deviceSummary(ua string) string {
	if ua == "" {
		return "unknown device"
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OS()
	switch {
	case name != "" && os != "":
		return name + " on " + os
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "unknown device"
	}
}

// clientIPFromRequest prefers proxy headers over the socket address.
func clientIPFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
