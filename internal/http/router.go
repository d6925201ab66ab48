package httpx

import (
	"errors"
	"net/http"

	"log/slog"

	"teamchat/internal/app"
	"teamchat/internal/store"
	"teamchat/internal/ws"
	"teamchat/pkg/auth"
	"teamchat/pkg/metrics"
)

// WSAuth builds the hub's identity resolver from the JWT verifier. Browser
// websocket clients cannot set headers, so the token query param is allowed
// alongside the usual bearer header.
func WSAuth(j *auth.JWT) ws.AuthFunc {
	return func(r *http.Request) (ws.Identity, error) {
		tok := BearerOrQueryToken(r)
		if tok == "" {
			return ws.Identity{}, errors.New("no token")
		}
		claims, err := j.Verify(tok)
		if err != nil {
			return ws.Identity{}, err
		}
		return ws.Identity{UserID: claims.UserID, Username: claims.Username}, nil
	}
}

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, db *store.Postgres) http.Handler {
	j := auth.New(cfg.JWTSecret)
	mw := NewMiddleware(cfg, j)

	authAPI := &AuthAPI{DB: db, JWT: j, TokenTTL: cfg.TokenTTL}
	channelsAPI := &ChannelsAPI{DB: db, Hub: hub}
	messagesAPI := &MessagesAPI{DB: db}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint (the hub authenticates before upgrading)
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Auth endpoints
	mux.Handle("POST /api/auth/register", http.HandlerFunc(authAPI.Register))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(authAPI.Login))
	mux.Handle("GET /api/auth/me", mw.Auth(http.HandlerFunc(authAPI.Me)))

	// Channel endpoints (JWT-protected)
	mux.Handle("POST /api/channels", mw.Auth(http.HandlerFunc(channelsAPI.Create)))
	mux.Handle("GET /api/channels", mw.Auth(http.HandlerFunc(channelsAPI.List)))
	mux.Handle("GET /api/channels/joined", mw.Auth(http.HandlerFunc(channelsAPI.Joined)))
	mux.Handle("GET /api/channels/{id}", mw.Auth(http.HandlerFunc(channelsAPI.Get)))
	mux.Handle("DELETE /api/channels/{id}", mw.Auth(http.HandlerFunc(channelsAPI.Delete)))
	mux.Handle("POST /api/channels/{id}/join", mw.Auth(http.HandlerFunc(channelsAPI.Join)))
	mux.Handle("POST /api/channels/{id}/leave", mw.Auth(http.HandlerFunc(channelsAPI.Leave)))
	mux.Handle("GET /api/channels/{id}/messages", mw.Auth(http.HandlerFunc(messagesAPI.ListByChannel)))
	mux.Handle("GET /api/channels/{id}/typing", mw.Auth(http.HandlerFunc(channelsAPI.Typers)))

	// Message endpoints
	mux.Handle("POST /api/messages", mw.Auth(http.HandlerFunc(messagesAPI.Create)))
	mux.Handle("PUT /api/messages/{id}", mw.Auth(http.HandlerFunc(messagesAPI.Edit)))
	mux.Handle("DELETE /api/messages/{id}", mw.Auth(http.HandlerFunc(messagesAPI.Delete)))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}
