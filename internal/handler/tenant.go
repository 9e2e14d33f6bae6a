package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/repository"
)

// TenantHandler implements tenant CRUD. Mutations are admin-only (enforced
// at the route level); the auth core only ever reads the tenant id off a
// user record.
type TenantHandler struct {
	Tenants TenantStore
}

func NewTenantHandler(tenants TenantStore) *TenantHandler {
	return &TenantHandler{Tenants: tenants}
}

type tenantReq struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type tenantResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTenantResp(t model.Tenant) tenantResp {
	return tenantResp{ID: t.ID, Name: t.Name, Address: t.Address, CreatedAt: t.CreatedAt}
}

func (h *TenantHandler) Create(c echo.Context) error {
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, errValidation, "name is required", "name")
	}
	if req.Address == "" {
		return fail(c, http.StatusBadRequest, errValidation, "address is required", "address")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Tenants.Create(ctx, req.Name, req.Address)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not create tenant", "")
	}
	return c.JSON(http.StatusCreated, idResp{ID: id})
}

func (h *TenantHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tenants, err := h.Tenants.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not list tenants", "")
	}
	out := make([]tenantResp, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResp(t))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TenantHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	tenant, err := h.Tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, errNotFound, "tenant does not exist", "")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "lookup failed", "")
	}
	return c.JSON(http.StatusOK, toTenantResp(tenant))
}

func (h *TenantHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}
	var req tenantReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return fail(c, http.StatusBadRequest, errValidation, "name and address are required", "")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tenants.Update(ctx, id, req.Name, req.Address); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, errNotFound, "tenant does not exist", "")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not update tenant", "")
	}
	return c.JSON(http.StatusOK, idResp{ID: id})
}

func (h *TenantHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Tenants.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, errNotFound, "tenant does not exist", "")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not delete tenant", "")
	}
	return c.NoContent(http.StatusNoContent)
}
