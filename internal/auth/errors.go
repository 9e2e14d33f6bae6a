// Package auth implements the credential and token core of the identity
// service: bcrypt password hashing, RSA key management with a published
// key set, and the access/refresh token lifecycle including server-side
// refresh-token rotation and revocation.
package auth

import "errors"

// Sentinel errors surfaced by the token service and credential verifier.
// Handlers translate these into HTTP responses; the exact reason behind a
// failed verification is never forwarded to clients.
var (
	// ErrTokenExpired means the token parsed and its signature checked out
	// but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature means the token is well formed but was not signed
	// by any key this process trusts.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenMalformed means the input does not parse as a signed token.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenRevoked means a refresh token's signature is valid but its
	// backing record is gone: it was rotated, revoked, or its user deleted.
	ErrTokenRevoked = errors.New("refresh token revoked")

	// ErrUserNotFound means the subject of an otherwise valid token no
	// longer resolves to a user.
	ErrUserNotFound = errors.New("user not found")

	// ErrCryptoUnavailable means password hashing could not run (e.g. the
	// randomness source failed). Callers must treat it as fatal for the
	// request; it is not a user error.
	ErrCryptoUnavailable = errors.New("crypto unavailable")
)
