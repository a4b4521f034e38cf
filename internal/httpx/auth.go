package httpx

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// BearerMatches reports whether the request carries `Authorization: Bearer
// <secret>`. An empty secret never matches.
func BearerMatches(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
