package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// PublicEndpoints lists "METHOD path" pairs reachable without a token.
var PublicEndpoints = map[string]bool{
	"POST /api/auth/login": true,
	"GET /healthz":         true,
	"GET /metrics":         true,
}

// GetSecurityLevel returns the required security level for a request.
// CORS preflights are always public; everything else defaults to access.
func GetSecurityLevel(method, path string) SecurityLevel {
	if method == "OPTIONS" {
		return SecurityPublic
	}
	if PublicEndpoints[strings.ToUpper(method)+" "+strings.TrimRight(path, "/")] {
		return SecurityPublic
	}
	return SecurityAccess
}
