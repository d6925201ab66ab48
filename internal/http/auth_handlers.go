package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"teamchat/internal/store"
	"teamchat/pkg/auth"
)

type AuthAPI struct {
	DB       *store.Postgres
	JWT      *auth.JWT
	TokenTTL time.Duration
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type tokenResp struct {
	Token string      `json:"token"`
	User  authUserDTO `json:"user"`
}
type authUserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Register handles user signup and returns a JWT
func (a *AuthAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// Basic validation
	if req.Username == "" || len(req.Password) < 8 || !strings.Contains(req.Email, "@") {
		http.Error(w, "invalid username, email or weak password", http.StatusBadRequest)
		return
	}

	u, err := a.DB.CreateUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		http.Error(w, "username or email already in use", http.StatusConflict)
		return
	}

	tok, _ := a.JWT.Sign(auth.Claims{UserID: u.ID, Username: u.Username}, a.TokenTTL)
	writeJSON(w, tokenResp{Token: tok, User: authUserDTO{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar}})
}

// Login verifies credentials and returns a JWT
func (a *AuthAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	u, err := a.DB.VerifyUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	tok, _ := a.JWT.Sign(auth.Claims{UserID: u.ID, Username: u.Username}, a.TokenTTL)
	writeJSON(w, tokenResp{Token: tok, User: authUserDTO{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar}})
}

// Me returns the authenticated user
func (a *AuthAPI) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.User(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	u, err := a.DB.GetUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, authUserDTO{ID: u.ID, Username: u.Username, Email: u.Email, Avatar: u.Avatar})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
