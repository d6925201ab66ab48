package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"teamchat/internal/app"
	"teamchat/pkg/auth"
	"teamchat/pkg/ratelimit"
)

type Middleware struct {
	cors   *cors.Cors
	auth   *auth.JWT
	rlimit *ratelimit.Limiter
}

// NewMiddleware builds the shared middleware stack from config
func NewMiddleware(cfg app.Config, j *auth.JWT) *Middleware {
	return &Middleware{
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllow,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}),
		auth:   j,
		rlimit: ratelimit.New(120, time.Minute),
	}
}

// Wrap applies CORS + rate limiting to a handler
func (m *Middleware) Wrap(h http.Handler) http.Handler {
	return m.cors.Handler(m.rlimit.Middleware(h))
}

// Auth enforces JWT auth and adds the verified claims to the request context
func (m *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := r.Header.Get("Authorization")
		if !strings.HasPrefix(b, "Bearer ") {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		tok := strings.TrimPrefix(b, "Bearer ")
		claims, err := m.auth.Verify(tok)
		if err != nil {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), claims)))
	})
}

// BearerOrQueryToken pulls a token from the Authorization header or, for
// websocket clients that cannot set headers, the token query param.
func BearerOrQueryToken(r *http.Request) string {
	if b := r.Header.Get("Authorization"); strings.HasPrefix(b, "Bearer ") {
		return strings.TrimPrefix(b, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
