package model

import "time"

// User represents an application user record as stored in the `users`
// table. The password hash never leaves the repository/handler boundary:
// response types in the handler package deliberately omit it.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FirstName    – given name.
//  LastName     – family name.
//  Email        – unique, trimmed email address.
//  PasswordHash – bcrypt hashed password; never the plaintext.
//  Role         – one of the closed Role values.
//  TenantID     – owning tenant, zero for users without a tenant
//                 (admins and self-registered customers).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	TenantID     uint64    // users.tenant_id (0 when NULL)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
