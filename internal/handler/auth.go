package handler

import (
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/Shivanand-hulikatti/eventhub/internal/auth"
	"github.com/Shivanand-hulikatti/eventhub/internal/i18n"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// AuthHandler holds the HTTP handlers for accounts and sessions.
type AuthHandler struct {
	svc     *auth.Service
	cookies auth.Cookies
	resp    *Responder
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(svc *auth.Service, cookies auth.Cookies, resp *Responder) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies, resp: resp}
}

type userResponse struct {
	User    model.Identity `json:"user"`
	Message *model.Message `json:"message,omitempty"`
}

type sessionResponse struct {
	*model.Session
	Message *model.Message `json:"message"`
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if current := auth.IdentityFromContext(r.Context()); !current.IsAnonymous() {
		writeJSON(w, http.StatusOK, userResponse{User: current})
		return
	}

	var req model.SignupRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
			return
		}
		req = model.SignupRequest{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
		return
	}

	user, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		User:    model.Identity{UserID: user.ID, Email: user.Email, Name: user.Name},
		Message: h.resp.Message(r, model.MessageSuccess, i18n.KeySignupSuccess),
	})
}

// Login handles POST /auth/login
// On success the session token is returned and set as a cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if current := auth.IdentityFromContext(r.Context()); !current.IsAnonymous() {
		writeJSON(w, http.StatusOK, userResponse{User: current})
		return
	}

	var req model.LoginRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
			return
		}
		req = model.LoginRequest{Email: r.FormValue("email"), Password: r.FormValue("password")}
	} else if err := decodeJSON(w, r, &req); err != nil {
		h.resp.Error(w, r, http.StatusBadRequest, "invalid_request", i18n.KeyInvalidRequest, err.Error())
		return
	}

	session, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.resp.Fail(w, r, err)
		return
	}

	h.cookies.Set(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, sessionResponse{
		Session: session,
		Message: h.resp.Message(r, model.MessageSuccess, i18n.KeyLoginSuccess),
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]*model.Message{
		"message": h.resp.Message(r, model.MessageSuccess, i18n.KeyLoggedOut),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	current := auth.IdentityFromContext(r.Context())
	if current.IsAnonymous() {
		h.resp.Error(w, r, http.StatusUnauthorized, "not_authenticated", i18n.KeyLoginRequired)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: current})
}

// CSRFToken handles GET /auth/csrf
// The token is empty when form protection is disabled.
func (h *AuthHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r)})
}
