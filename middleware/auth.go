package middleware

import (
	"crypto/subtle"
	"net/http"
	"sync/atomic"

	"go-marketplace/utils"

	"golang.org/x/crypto/bcrypt"
)

// DefenseKeyHeader carries the shared secret on every gated request
const DefenseKeyHeader = "X-Star-Defense-Key"

// DefenseKeyGate admits requests presenting the shared secret. Only the bcrypt hash of the
// secret is configured; the first successful comparison is remembered so later requests
// skip the bcrypt cost.
type DefenseKeyGate struct {
	hash     []byte
	verified atomic.Pointer[string]
}

// NewDefenseKeyGate creates a gate for the given bcrypt hash
func NewDefenseKeyGate(hash string) *DefenseKeyGate {
	return &DefenseKeyGate{hash: []byte(hash)}
}

// Allow reports whether key is the shared secret
func (g *DefenseKeyGate) Allow(key string) bool {
	if key == "" {
		return false
	}
	if v := g.verified.Load(); v != nil {
		return subtle.ConstantTimeCompare([]byte(*v), []byte(key)) == 1
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(key)); err != nil {
		return false
	}
	g.verified.Store(&key)
	return true
}

// Middleware rejects requests without a valid key
func (g *DefenseKeyGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Allow(r.Header.Get(DefenseKeyHeader)) {
			utils.WriteJSONError(w, http.StatusForbidden, "invalid_key", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
