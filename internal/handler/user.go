package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/config"
	"github.com/iliyamo/identity-service/internal/model"
	"github.com/iliyamo/identity-service/internal/repository"
)

// UserHandler implements admin-only user management: creating users with
// explicit roles (managers bound to a tenant), listing, updating and
// deleting them. Role values are validated here, at the data-model
// boundary, never at authorization time.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, users UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users}
}

type createUserReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	TenantID  uint64 `json:"tenantId"`
}

type updateUserReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	TenantID  uint64 `json:"tenantId"`
}

// Create inserts a user with an explicit role. Unlike self-registration
// the role comes from the request, but it still has to be one of the
// closed enumeration.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	req.Email = strings.TrimSpace(req.Email)
	if typ, msg, path := validateRegistration(req.FirstName, req.LastName, req.Email, req.Password); typ != "" {
		return fail(c, http.StatusBadRequest, typ, msg, path)
	}
	role := model.RoleCustomer
	if req.Role != "" {
		parsed, err := model.ParseRole(req.Role)
		if err != nil {
			return fail(c, http.StatusBadRequest, errValidation, "role is not valid", "role")
		}
		role = parsed
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not create user", "")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	id, err := h.Users.Create(ctx, model.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		TenantID:     req.TenantID,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusBadRequest, errEmailTaken, "email is already registered", "email")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not create user", "")
	}
	return c.JSON(http.StatusCreated, idResp{ID: id})
}

// List returns all users without their password hashes.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, errInternal, "could not list users", "")
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single user by id.
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, errNotFound, "user does not exist", "")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "lookup failed", "")
	}
	return c.JSON(http.StatusOK, toUserResp(user))
}

// Update rewrites a user's profile fields and role assignment.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid body", "")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "role is not valid", "role")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		return fail(c, http.StatusBadRequest, errValidation, "firstName, lastName and email are required", "")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err = h.Users.Update(ctx, model.User{
		ID:        id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      role,
		TenantID:  req.TenantID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fail(c, http.StatusNotFound, errNotFound, "user does not exist", "")
		case errors.Is(err, repository.ErrEmailExists):
			return fail(c, http.StatusBadRequest, errEmailTaken, "email is already registered", "email")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not update user", "")
	}
	return c.JSON(http.StatusOK, idResp{ID: id})
}

// Delete removes a user. Their refresh tokens go with them via the schema
// cascade, so any live sessions are revoked as a side effect.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, errValidation, "invalid id", "id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, errNotFound, "user does not exist", "")
		}
		return fail(c, http.StatusInternalServerError, errInternal, "could not delete user", "")
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
