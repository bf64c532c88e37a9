package outbox

import "strings"

// offlineAllowlist names the resource prefixes that may be mutated
// while offline. A new resource type is not offline-capable until it
// is added here.
var offlineAllowlist = []string{"/tasks", "/photos", "/zones"}

var queueableMethods = map[string]bool{
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// NormalizePath ensures the resource path begins with a slash.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// CanQueue decides whether a mutating request is safe to store for
// offline replay. GET is always executed live, auth mutations are
// never queued, and only allowlisted resource prefixes qualify.
func CanQueue(method, path string) bool {
	if !queueableMethods[method] {
		return false
	}
	normalized, _, _ := strings.Cut(NormalizePath(path), "?")
	if strings.HasPrefix(normalized, "/auth") {
		return false
	}
	for _, prefix := range offlineAllowlist {
		if normalized == prefix || strings.HasPrefix(normalized, prefix+"/") {
			return true
		}
	}
	return false
}
