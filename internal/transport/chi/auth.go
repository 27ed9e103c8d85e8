package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/esmemory/internal/logger"
)

// authChallenge is sent with every 401.
const authChallenge = `Bearer realm="esmemory"`

// exemptPaths are probed by orchestrators and scrapers without credentials.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware requires "Authorization: Bearer <key>" with one of apiKeys.
// Blank keys are ignored; with no keys left authentication is off.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if strings.TrimSpace(k) != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			if reason := checkBearer(keys, r.Header.Get("Authorization")); reason != "" {
				logpkg.FromContext(r.Context()).Warn("request rejected", zap.String("reason", reason))
				w.Header().Set("WWW-Authenticate", authChallenge)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns why header is not acceptable, or "" when it is.
func checkBearer(keys [][]byte, header string) string {
	if header == "" {
		return "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "authorization header must use Bearer scheme"
	}
	if !validKey(keys, []byte(strings.TrimSpace(token))) {
		return "invalid api key"
	}
	return ""
}

func validKey(keys [][]byte, token []byte) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, token)
	}
	return found == 1
}
