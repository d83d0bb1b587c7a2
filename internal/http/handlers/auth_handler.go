package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/service"
	"github.com/roamtrails/tours-api/pkg/config"
)

type AuthHandlers struct {
	auth   service.AuthService
	config *config.Config
}

func NewAuthHandlers(auth service.AuthService, config *config.Config) *AuthHandlers {
	return &AuthHandlers{auth: auth, config: config}
}

func (h *AuthHandlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, token, err := h.auth.SignUp(r.Context(), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.sendToken(w, http.StatusCreated, user, token)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, user, token)
}

// Logout overwrites the session cookie with a short-lived blank value.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
	})
	response.Message(w, http.StatusOK, "logged out")
}

func (h *AuthHandlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), &req, requestOrigin(r, h.config)); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Token sent to email!")
}

func (h *AuthHandlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	user, token, err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, user, token)
}

func (h *AuthHandlers) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	var req domain.UpdatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	token, err := h.auth.UpdatePassword(r.Context(), user, &req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	h.sendToken(w, http.StatusOK, user, token)
}

// sendToken writes the token both as an HTTP-only cookie and in the body, so
// browser and API clients each have a usable copy.
func (h *AuthHandlers) sendToken(w http.ResponseWriter, status int, user *domain.User, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.config.Auth.TokenTTL),
		HttpOnly: true,
		Secure:   h.config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	response.JSON(w, status, response.Envelope{
		Status: response.StatusSuccess,
		Token:  token,
		Data:   user,
	})
}

// requestOrigin prefers the caller's Origin header and falls back to the
// configured frontend URL, so reset links point back at the right host.
func requestOrigin(r *http.Request, cfg *config.Config) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return cfg.Frontend.BaseURL
}
