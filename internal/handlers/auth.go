package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"casepress/internal/apperr"
	"casepress/internal/middleware"
	"casepress/internal/session"
	"casepress/internal/store"
)

// totpIssuer is the issuer name shown in authenticator apps.
const totpIssuer = "CasePress"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions *session.Store
	authors  *store.AuthorStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(sessions *session.Store, authors *store.AuthorStore) *Auth {
	return &Auth{
		sessions: sessions,
		authors:  authors,
	}
}

// Login handles POST /api/auth/login. On success a session cookie is set.
// Authors with 2FA enabled must verify a code before the session is fully
// authenticated.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	author, err := a.authors.FindByUsername(req.Username)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	// One message for bad username, bad password, and inactive account.
	if author == nil || !author.Active || !a.authors.CheckPassword(author, req.Password) {
		writeError(w, apperr.Unauthorized("Invalid username or password"))
		return
	}

	data := &session.Data{
		AuthorID:  author.ID,
		Username:  author.Username,
		FullName:  author.FullName,
		Role:      author.Role,
		TwoFADone: !author.TOTPEnabled,
	}
	if _, err := a.sessions.Create(r.Context(), w, data); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("login", "username", author.Username, "twofa_required", author.TOTPEnabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"author":        author.Summary(),
		"role":          author.Role,
		"twoFARequired": author.TOTPEnabled,
	})
}

// Logout handles POST /api/auth/logout.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// Me handles GET /api/auth/me and returns the authenticated author.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	author, err := a.authors.FindByID(sess.AuthorID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil {
		writeError(w, apperr.NotFound("Author not found"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"author": author})
}

// TwoFASetup handles POST /api/auth/2fa/setup. It generates a TOTP secret
// for the author and returns it with a QR code for authenticator apps.
// The secret only takes effect once confirmed via TwoFAEnable.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Username,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, apperr.Internal(err))
		return
	}

	if err := a.authors.SetTOTPSecret(sess.AuthorID, key.Secret()); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, apperr.Internal(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"secret": key.Secret(),
		"qrCode": base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAEnable handles POST /api/auth/2fa/enable. The author confirms the
// freshly provisioned secret with a valid code, which turns 2FA on.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFARequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	author, err := a.authors.FindByID(sess.AuthorID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil || author.TOTPSecret == nil {
		writeError(w, apperr.Validation("Two-factor setup has not been started"))
		return
	}

	if !totp.Validate(req.Code, *author.TOTPSecret) {
		writeError(w, apperr.Validation("Invalid verification code"))
		return
	}

	if err := a.authors.EnableTOTP(sess.AuthorID); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("2fa enabled", "username", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Two-factor authentication enabled"})
}

// TwoFAVerify handles POST /api/auth/2fa/verify. Authors with 2FA enabled
// complete their session here after login.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req twoFARequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	author, err := a.authors.FindByID(sess.AuthorID)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	if author == nil || !author.TOTPEnabled || author.TOTPSecret == nil {
		writeError(w, apperr.Validation("Two-factor authentication is not enabled"))
		return
	}

	if !totp.Validate(req.Code, *author.TOTPSecret) {
		writeError(w, apperr.Validation("Invalid verification code"))
		return
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		writeError(w, apperr.Internal(err))
		return
	}

	slog.Info("2fa verified", "username", sess.Username)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Verification successful"})
}
