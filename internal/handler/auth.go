package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/socialfeed/internal/domain"
	"github.com/msomdec/socialfeed/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	responder
	auth         *service.AuthService
	passwords    *service.PasswordService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, passwords *service.PasswordService, cookieSecure, debug bool) *AuthHandler {
	return &AuthHandler{
		responder:    responder{debug: debug},
		auth:         auth,
		passwords:    passwords,
		cookieSecure: cookieSecure,
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account and signs it in.
// POST /users/register
// Request:  {"name":"...","email":"...","password":"..."}
// Response: {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.setTokenCookie(w, token, h.auth.TokenTTL())
	writeSuccess(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	})
}

// HandleLogin verifies credentials and issues a session token.
// POST /users/login
// Request:  {"email":"...","password":"..."}
// Response: {"user": {...}, "token": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.setTokenCookie(w, token, h.auth.TokenTTL())
	writeSuccess(w, http.StatusOK, "Logged in successfully", map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	})
}

// HandleLogout clears the session cookie.
// POST /users/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setTokenCookie(w, "", -1)
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

// HandleForgotPassword mails a reset link to the account's address.
// POST /users/forgot-password
// Request:  {"email":"..."}
// Response: {"expiresAt": "..."}
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	expiresAt, err := h.passwords.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, "Password reset link sent to your email", map[string]any{
		"expiresAt": expiresAt.Format(time.RFC3339),
	})
}

// HandleResetPassword sets a new password using a mailed reset token.
// POST /users/reset-password
// Request:  {"token":"...","password":"..."}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if err := readJSON(w, r, &req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if err := h.passwords.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Password reset successfully", nil)
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	maxAge := int(ttl / time.Second)
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

// requireCaller returns the authenticated user's id or writes a 401.
func (rs responder) requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := callerID(r)
	if id == "" {
		rs.writeServiceError(w, r, domain.ErrUnauthorized)
		return "", false
	}
	return id, true
}
