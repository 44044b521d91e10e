package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"petalboard/internal/services/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type resetRequest struct {
	Email       string `json:"email,omitempty"`
	Token       string `json:"token,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
}

type sessionResponse struct {
	Token   string `json:"token"`
	Account any    `json:"account"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, token, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Account: account})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Account: account})
}

func (h *Handler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, token, err := h.auth.LoginWithGoogle(r.Context(), req.IDToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Account: account})
}

func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Me resolves the bearer token to the signed-in account. The navbar's
// "login button vs profile" decision hangs off this endpoint.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}

	account, err := h.auth.Authenticate(r.Context(), token)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Logout acknowledges the sign-out. Sessions are stateless JWTs, so the real
// teardown is the client discarding the token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed-out"})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

// writeAuthError returns the enumerated cause plus the fixed user message,
// keeping raw internals out of the response body.
func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	cause := ""

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		cause = string(authErr.Cause)
		switch authErr.Cause {
		case auth.CauseInvalidCredentials, auth.CauseInvalidToken:
			status = http.StatusUnauthorized
		case auth.CauseEmailInUse:
			status = http.StatusConflict
		case auth.CauseUserNotFound:
			status = http.StatusNotFound
		default:
			status = http.StatusBadRequest
		}
	}

	writeJSON(w, status, map[string]string{
		"cause":   cause,
		"message": auth.UserMessage(err),
	})
}
