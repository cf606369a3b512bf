package http

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, message string, statusCode int) {
	writeJSON(w, log, ErrorResponse{Success: false, Error: message}, statusCode)
}

// clientIP returns the first valid address found in the proxy headers,
// falling back to the connection's remote address. It is empty when none
// parses.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := validIP(first); ip != "" {
			return ip
		}
	}
	for _, h := range []string{"X-Real-IP", "X-Client-IP"} {
		if ip := validIP(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return validIP(host)
}

// validIP returns s trimmed when it parses as an IP address, else "".
func validIP(s string) string {
	s = strings.TrimSpace(s)
	if net.ParseIP(s) == nil {
		return ""
	}
	return s
}

// cdnLocation reads the country and city set by the edge network.
func cdnLocation(r *http.Request) (country, city string) {
	country = r.Header.Get("CF-IPCountry")
	if country == "" {
		country = r.Header.Get("X-Vercel-IP-Country")
	}
	if country == "XX" || country == "T1" {
		country = ""
	}
	city = r.Header.Get("X-Vercel-IP-City")
	if decoded, err := url.QueryUnescape(city); err == nil {
		city = decoded
	}
	return strings.TrimSpace(country), strings.TrimSpace(city)
}
