package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/middleware"
	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/queue"
	"github.com/iliyamo/identity-service/internal/repository"
	"github.com/iliyamo/identity-service/internal/service"
)

// RefreshTokenCookie is the cookie carrying the refresh token. It is set
// alongside the access cookie on register/login/refresh and rotated on
// every refresh.
const RefreshTokenCookie = "refreshToken"

const dbTimeout = 5 * time.Second

// AuthHandler bundles dependencies for the auth endpoints: register,
// login, refresh, logout, and the authenticated self lookup.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens *auth.TokenService
	// PublishEvents toggles best-effort domain events; off in tests.
	PublishEvents bool
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens, PublishEvents: true}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type idResp struct {
	ID uint64 `json:"id"`
}
type userResp struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  uint64 `json:"tenantId,omitempty"`
}

func toUserResp(u model.User) userResp {
	return userResp{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role.String(),
		TenantID:  u.TenantID,
	}
}

// Register creates a customer account and signs the caller in: the new
// access+refresh pair is set as cookies and the created id returned.
// Self-registration always yields the customer role; privileged roles are
// assigned through the admin user endpoints only.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	req.Email = strings.TrimSpace(req.Email)
	if typ, msg, path := validateRegistration(req.FirstName, req.LastName, req.Email, req.Password); typ != "" {
		return fail(c, http.StatusBadRequest, typ, msg, path)
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		// Crypto failure is fatal for this request, nothing to retry.
		return fail(c, http.StatusInternalServerError, errInternal, "could not process registration", "")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user := model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleCustomer,
	}
	id, err := h.Users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, errEmailTaken, "email is already registered", "email")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not create user", "")
	}
	user.ID = id

	pair, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not issue tokens", "")
	}
	h.setAuthCookies(c, pair)

	if h.PublishEvents {
		_ = service.PublishUserRegistered(ctx, queue.UserRegisteredEvent{
			UserID: id,
			Email:  user.Email,
			Role:   user.Role.String(),
		})
	}
	return c.JSON(http.StatusCreated, idResp{ID: id})
}

// Login verifies credentials and issues a new pair. An unknown email and a
// wrong password produce the same response so callers cannot enumerate
// accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		return fail(c, http.StatusBadRequest, errValidation, "email is required", "email")
	}
	if req.Password == "" {
		return fail(c, http.StatusBadRequest, errValidation, "password is required", "password")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalidCredentials(c)
		}
		return fail(c, http.StatusInternalServerError, errInternal, "login failed", "")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return invalidCredentials(c)
	}

	pair, err := h.Tokens.IssuePair(ctx, user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not issue tokens", "")
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, idResp{ID: user.ID})
}

// Refresh rotates the presented refresh token: the old record is deleted
// and a fresh pair set as cookies. A replayed token loses the race and is
// told to re-authenticate, not retry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, ok := h.refreshTokenFromRequest(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, user, err := h.Tokens.Rotate(ctx, raw)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired),
			errors.Is(err, auth.ErrInvalidSignature),
			errors.Is(err, auth.ErrTokenMalformed),
			errors.Is(err, auth.ErrTokenRevoked),
			errors.Is(err, auth.ErrUserNotFound):
			return unauthorized(c)
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not refresh session", "")
	}
	h.setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, idResp{ID: user.ID})
}

// Logout deletes the backing record of the presented refresh token and
// clears the auth cookies. Deleting an already-absent record is fine: a
// second logout with the same token succeeds too.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, ok := h.refreshTokenFromRequest(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	claims, err := h.Tokens.VerifyRefreshToken(ctx, raw)
	if err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) {
			// Already gone; logout is idempotent.
			h.clearAuthCookies(c)
			return c.NoContent(http.StatusNoContent)
		}
		return unauthorized(c)
	}
	if err := h.Tokens.Revoke(ctx, claims.RecordID); err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "logout failed", "")
	}
	h.clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// LogoutAll revokes every refresh token of the authenticated user: the
// logout-everywhere / account-compromise response. Requires Authenticate.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tokens.RevokeAll(ctx, userID); err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "logout failed", "")
	}
	if h.PublishEvents {
		_ = service.PublishSessionsRevoked(ctx, queue.SessionsRevokedEvent{UserID: userID})
	}
	h.clearAuthCookies(c)
	return c.NoContent(http.StatusNoContent)
}

// Self returns the authenticated user's record, password hash excluded.
func (h *AuthHandler) Self(c echo.Context) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return fail(c, http.StatusInternalServerError, errInternal, "lookup failed", "")
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

// ----- helpers -----

func validateRegistration(firstName, lastName, email, password string) (typ, msg, path string) {
	if firstName == "" {
		return errValidation, "firstName is required", "firstName"
	}
	if lastName == "" {
		return errValidation, "lastName is required", "lastName"
	}
	if email == "" {
		return errValidation, "email is required", "email"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return errValidation, "email is not valid", "email"
	}
	if len(strings.TrimSpace(password)) < 8 {
		return errValidation, "password should be at least 8 chars", "password"
	}
	return "", "", ""
}

// refreshTokenFromRequest prefers the refresh cookie and falls back to a
// JSON body for non-browser clients.
func (h *AuthHandler) refreshTokenFromRequest(c echo.Context) (string, bool) {
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	var req refreshReq
	if err := c.Bind(&req); err == nil {
		if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
			return raw, true
		}
	}
	return "", false
}

func (h *AuthHandler) setAuthCookies(c echo.Context, pair auth.Pair) {
	c.SetCookie(h.authCookie(middleware.AccessTokenCookie, pair.Access.Value, pair.Access.ExpiresAt))
	c.SetCookie(h.authCookie(RefreshTokenCookie, pair.Refresh.Value, pair.Refresh.ExpiresAt))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, RefreshTokenCookie} {
		cookie := h.authCookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		c.SetCookie(cookie)
	}
}

func (h *AuthHandler) authCookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.Cfg.CookieDomain,
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

func invalidCredentials(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, errInvalidCredentials, "email or password is incorrect", "")
}

func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, errUnauthorized, "authentication required", "")
}
