package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp/totp"

	"peopledesk/internal/domain/auth"
	"peopledesk/internal/platform/crypto"
	"peopledesk/internal/platform/email"
	"peopledesk/internal/platform/requestctx"
	"peopledesk/internal/transport/http/api"
	"peopledesk/internal/transport/http/middleware"
)

const (
	tokenTTL    = 24 * time.Hour
	resetTTL    = time.Hour
	totpIssuer  = "PeopleDesk"
	loginFailed = "Invalid email or password"
)

type AuthHandler struct {
	Store     *auth.Store
	Crypto    *crypto.Service
	Mailer    email.Mailer
	JWTSecret string
	EmailFrom string
}

func NewAuthHandler(store *auth.Store, cryptoSvc *crypto.Service, mailer email.Mailer, jwtSecret, emailFrom string) *AuthHandler {
	return &AuthHandler{Store: store, Crypto: cryptoSvc, Mailer: mailer, JWTSecret: jwtSecret, EmailFrom: emailFrom}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		api.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	creds, err := h.Store.FindActiveUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusUnauthorized, loginFailed)
			return
		}
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(creds.Password, req.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, loginFailed)
		return
	}

	if creds.MFAEnabled {
		if req.MFACode == "" {
			api.Fail(w, http.StatusUnauthorized, "MFA code required")
			return
		}
		secret, err := h.Crypto.DecryptString(creds.MFASecretEn)
		if err != nil {
			api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
			return
		}
		if !totp.Validate(req.MFACode, secret) {
			api.Fail(w, http.StatusUnauthorized, "Invalid MFA code")
			return
		}
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{
		UserID:    creds.UserID,
		Email:     creds.Email,
		SessionID: uuid.NewString(),
	}, tokenTTL)
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.CreateSession(r.Context(), creds.UserID, auth.HashToken(token), time.Now().Add(tokenTTL)); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateLastLogin(r.Context(), creds.UserID); err != nil {
		slog.Warn("update last login failed", "err", err, "userId", creds.UserID)
	}

	api.Success(w, map[string]any{
		"token":     token,
		"expiresIn": int(tokenTTL.Seconds()),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	raw := bearerToken(r)
	if claims == nil || raw == "" {
		api.Message(w, "Signed out")
		return
	}
	if err := h.Store.RevokeSession(r.Context(), claims.UserID, auth.HashToken(raw)); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Message(w, "Signed out")
}

// Refresh issues a fresh token and atomically replaces the old session with
// the new one, so the old token stops working immediately.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	raw := bearerToken(r)
	if claims == nil || raw == "" {
		api.Fail(w, http.StatusUnauthorized, "You must be signed in to access this endpoint")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, auth.Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: uuid.NewString(),
	}, tokenTTL)
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.RotateSession(r.Context(), claims.UserID, auth.HashToken(raw), auth.HashToken(token), time.Now().Add(tokenTTL)); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]any{
		"token":     token,
		"expiresIn": int(tokenTTL.Seconds()),
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always answers the same way, so the endpoint cannot be
// used to probe which emails exist.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	const reply = "If the account exists, a reset email has been sent"

	userID, err := h.Store.UserIDByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.Error("password reset lookup failed", "err", err)
		}
		api.Message(w, reply)
		return
	}

	token, err := randomToken()
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.CreatePasswordReset(r.Context(), userID, auth.HashToken(token), time.Now().Add(resetTTL)); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}

	body := fmt.Sprintf("A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in one hour. Ignore this email if you did not request it.", token)
	if err := h.Mailer.Send(r.Context(), h.EmailFrom, req.Email, "Password reset", body); err != nil {
		slog.Error("password reset email failed", "err", err)
	}
	api.Message(w, reply)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" || len(req.Password) < 8 {
		api.Fail(w, http.StatusBadRequest, "token and a password of at least 8 characters are required")
		return
	}

	hash := auth.HashToken(req.Token)
	userID, err := h.Store.PasswordResetUserID(r.Context(), hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Fail(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateUserPassword(r.Context(), userID, passwordHash); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.MarkPasswordResetUsed(r.Context(), hash); err != nil {
		slog.Warn("mark reset used failed", "err", err)
	}
	api.Message(w, "Password has been reset")
}

// MFASetup generates a fresh TOTP secret and stores it encrypted. The user
// must confirm a code via MFAEnable before the factor becomes active.
func (h *AuthHandler) MFASetup(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "You must be signed in to access this endpoint")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: totpIssuer, AccountName: principal.Email})
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	encrypted, err := h.Crypto.EncryptString(key.Secret())
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateMFASecret(r.Context(), principal.ID, encrypted); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{
		"secret": key.Secret(),
		"url":    key.URL(),
	})
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *AuthHandler) MFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true, "MFA enabled")
}

func (h *AuthHandler) MFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false, "MFA disabled")
}

func (h *AuthHandler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool, message string) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "You must be signed in to access this endpoint")
		return
	}

	var req mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	encrypted, err := h.Store.GetMFASecret(r.Context(), principal.ID)
	if err != nil || len(encrypted) == 0 {
		api.Fail(w, http.StatusBadRequest, "MFA has not been set up")
		return
	}
	secret, err := h.Crypto.DecryptString(encrypted)
	if err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	if !totp.Validate(req.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "Invalid MFA code")
		return
	}

	if err := h.Store.SetMFAEnabled(r.Context(), principal.ID, enabled); err != nil {
		api.FailWith(w, err, requestctx.GetRequestID(r.Context()))
		return
	}
	api.Message(w, message)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
