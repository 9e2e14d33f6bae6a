// Package repository implements database access for users, tenants and
// refresh tokens on top of database/sql. Sentinel errors defined here
// let higher layers distinguish failure scenarios without string
// matching: handlers map ErrEmailExists to the email-taken response and
// the token service maps ErrNotFound on a refresh-token lookup to a
// revoked token.
package repository

import "errors"

// ErrNotFound is returned when a looked-up row does not exist. Repos
// translate sql.ErrNoRows into this so callers never depend on
// database/sql directly.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user insert hits the unique email
// index. The index, not a prior existence check, is what enforces
// uniqueness under concurrent registration.
var ErrEmailExists = errors.New("email already exists")
