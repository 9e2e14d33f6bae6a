package handler

import (
	"context"

	"github.com/iliyamo/identity-service/internal/model"
)

// UserStore is the user persistence capability the handlers consume. The
// concrete implementation is repository.UserRepo; tests inject in-memory
// fakes behind the same contract.
type UserStore interface {
	Create(ctx context.Context, u model.User) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id uint64) error
}

// TenantStore is the tenant persistence capability consumed by the tenant
// handler.
type TenantStore interface {
	Create(ctx context.Context, name, address string) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
	List(ctx context.Context) ([]model.Tenant, error)
	Update(ctx context.Context, id uint64, name, address string) error
	Delete(ctx context.Context, id uint64) error
}
