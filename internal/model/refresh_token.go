package model

import "time"

// RefreshTokenRecord models a row in the `refresh_tokens` table. The row id
// is embedded in the signed refresh token as its jti claim; presenting a
// token whose record no longer exists is how revocation and rotation are
// detected. The signed token itself is never stored.
//
// Fields:
//  ID        – primary key; doubles as the token's embedded identifier.
//  UserID    – owner of the token. The schema cascades deletion of these
//              rows when the user is deleted.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshTokenRecord struct {
	ID        uint64    // refresh_tokens.id
	UserID    uint64    // refresh_tokens.user_id
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
