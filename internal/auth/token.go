package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/repository"
)

// TokenStore is the persistence contract the token service needs for
// refresh tokens. The service is the only writer of these records.
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error)
	GetRefreshToken(ctx context.Context, id uint64) (model.RefreshTokenRecord, error)
	// DeleteRefreshTokenIfExists reports whether a row was actually
	// deleted. This single guarded operation is what makes rotation
	// single-use under concurrent replays.
	DeleteRefreshTokenIfExists(ctx context.Context, id uint64) (bool, error)
	DeleteRefreshTokensForUser(ctx context.Context, userID uint64) error
}

// UserStore is the user-lookup capability Rotate needs to rebuild claims.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Token is a signed token string together with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Pair bundles the access and refresh token handed out on register, login
// and refresh.
type Pair struct {
	Access  Token
	Refresh Token
}

// Claims is the decoded identity carried by a verified token.
// RecordID is only set for refresh tokens.
type Claims struct {
	UserID   uint64
	Role     model.Role
	TenantID uint64
	RecordID uint64
}

type accessClaims struct {
	Role     string `json:"role"`
	TenantID uint64 `json:"tenant_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies RS256 tokens. Access tokens are
// stateless; refresh tokens are backed by a database record whose id is
// embedded as the jti claim, so deleting the record invalidates the token
// ahead of its natural expiry.
type TokenService struct {
	keys       *KeyProvider
	store      TokenStore
	users      UserStore
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService wires a token service. TTLs and key material are fixed
// for the process lifetime.
func NewTokenService(keys *KeyProvider, store TokenStore, users UserStore, issuer string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		keys:       keys,
		store:      store,
		users:      users,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssueAccessToken signs a short-lived, self-contained token carrying the
// user's id, role and tenant. Verifiers never hit storage for it.
func (s *TokenService) IssueAccessToken(userID uint64, role model.Role, tenantID uint64) (Token, error) {
	now := s.now().UTC()
	exp := now.Add(s.accessTTL)
	claims := accessClaims{
		Role:     role.String(),
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := s.sign(claims)
	if err != nil {
		return Token{}, err
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// IssueRefreshToken creates the backing record first and only then signs a
// token embedding the record id. The ordering matters: a token must never
// reach a caller before its record is durable. An orphaned record from a
// request that died in between is harmless, it just expires.
func (s *TokenService) IssueRefreshToken(ctx context.Context, userID uint64) (Token, uint64, error) {
	now := s.now().UTC()
	exp := now.Add(s.refreshTTL)
	recordID, err := s.store.CreateRefreshToken(ctx, userID, exp)
	if err != nil {
		return Token{}, 0, err
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		ID:        strconv.FormatUint(recordID, 10),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := s.sign(claims)
	if err != nil {
		return Token{}, 0, err
	}
	return Token{Value: signed, ExpiresAt: exp}, recordID, nil
}

// IssuePair issues a fresh access+refresh pair for a user.
func (s *TokenService) IssuePair(ctx context.Context, user model.User) (Pair, error) {
	access, err := s.IssueAccessToken(user.ID, user.Role, user.TenantID)
	if err != nil {
		return Pair{}, err
	}
	refresh, _, err := s.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// VerifyAccessToken checks signature and expiry and decodes the claims.
// Pure computation, no storage access.
func (s *TokenService) VerifyAccessToken(raw string) (Claims, error) {
	var claims accessClaims
	if err := s.parse(raw, &claims); err != nil {
		return Claims{}, err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	return Claims{UserID: userID, Role: role, TenantID: claims.TenantID}, nil
}

// VerifyRefreshToken checks signature and expiry, then requires the
// embedded record to still exist and belong to the token's subject. A
// signature-valid token without a record is revoked, not merely invalid.
func (s *TokenService) VerifyRefreshToken(ctx context.Context, raw string) (Claims, error) {
	var claims jwt.RegisteredClaims
	if err := s.parse(raw, &claims); err != nil {
		return Claims{}, err
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	recordID, err := strconv.ParseUint(claims.ID, 10, 64)
	if err != nil {
		return Claims{}, ErrTokenMalformed
	}
	rec, err := s.store.GetRefreshToken(ctx, recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Claims{}, ErrTokenRevoked
		}
		return Claims{}, err
	}
	if rec.UserID != userID || s.now().UTC().After(rec.ExpiresAt) {
		return Claims{}, ErrTokenRevoked
	}
	return Claims{UserID: userID, RecordID: recordID}, nil
}

// Rotate invalidates the presented refresh token and issues a new pair
// for its owner. The delete-if-exists guard serializes concurrent replays
// of the same token: exactly one caller wins, every other observes
// ErrTokenRevoked.
func (s *TokenService) Rotate(ctx context.Context, raw string) (Pair, model.User, error) {
	claims, err := s.VerifyRefreshToken(ctx, raw)
	if err != nil {
		return Pair{}, model.User{}, err
	}
	deleted, err := s.store.DeleteRefreshTokenIfExists(ctx, claims.RecordID)
	if err != nil {
		return Pair{}, model.User{}, err
	}
	if !deleted {
		return Pair{}, model.User{}, ErrTokenRevoked
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Pair{}, model.User{}, ErrUserNotFound
		}
		return Pair{}, model.User{}, err
	}
	pair, err := s.IssuePair(ctx, user)
	if err != nil {
		return Pair{}, model.User{}, err
	}
	return pair, user, nil
}

// Revoke deletes a single refresh-token record. Deleting an already-absent
// record is not an error, which makes logout idempotent.
func (s *TokenService) Revoke(ctx context.Context, recordID uint64) error {
	_, err := s.store.DeleteRefreshTokenIfExists(ctx, recordID)
	return err
}

// RevokeAll deletes every refresh-token record for a user: the
// logout-everywhere / account-compromise response.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	return s.store.DeleteRefreshTokensForUser(ctx, userID)
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	kid, priv := s.keys.SigningKey()
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	t.Header["kid"] = kid
	return t.SignedString(priv)
}

func (s *TokenService) parse(raw string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(raw, claims, s.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		return mapTokenError(err)
	}
	return nil
}

// keyfunc picks the verification key by the token's kid header. Tokens
// signed by a key this process does not know fail signature verification.
func (s *TokenService) keyfunc(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	pub, ok := s.keys.VerificationKey(kid)
	if !ok {
		return nil, ErrInvalidSignature
	}
	return pub, nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrInvalidSignature):
		return ErrInvalidSignature
	default:
		return ErrTokenMalformed
	}
}
