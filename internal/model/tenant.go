package model

import "time"

// Tenant is an organization that users can belong to. The auth core
// treats it as opaque foreign data: only the id travels in token claims.
type Tenant struct {
	ID        uint64    // tenants.id
	Name      string    // tenants.name
	Address   string    // tenants.address
	CreatedAt time.Time // tenants.created_at
	UpdatedAt time.Time // tenants.updated_at
}
