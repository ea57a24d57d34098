package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
)

// AuthUser is the authenticated identity returned by AuthClient.
type AuthUser struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthClient relays login/identity checks to the upstream API; the
// monitor never owns credentials itself.
type AuthClient interface {
	Login(ctx context.Context, username, password string) (token string, user AuthUser, err error)
	Me(ctx context.Context, token string) (AuthUser, error)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed login body")
		return
	}
	token, user, err := rt.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		rt.log.Warn().Err(err).Str("username", req.Username).Msg("login rejected by upstream")
		writeError(w, http.StatusUnauthorized, "login rejected")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	user, err := rt.auth.Me(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "token rejected by upstream")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return r.URL.Query().Get("token")
}
