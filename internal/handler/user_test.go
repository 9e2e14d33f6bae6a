package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/model"
)

func newUserHandler(env *testEnv) *UserHandler {
	return NewUserHandler(env.auth.Cfg, env.users)
}

func doWithParam(t *testing.T, h echo.HandlerFunc, method, body, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/users/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestAdminCreateUserWithExplicitRole(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	rec := doJSON(t, uh.Create, http.MethodPost, "/users",
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","password":"secret-password","role":"manager","tenantId":42}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp idResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	user, err := env.users.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != model.RoleManager {
		t.Errorf("role = %q, want manager", user.Role)
	}
	if user.TenantID != 42 {
		t.Errorf("tenantId = %d, want 42", user.TenantID)
	}
}

func TestAdminCreateUserDefaultsToCustomer(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	rec := doJSON(t, uh.Create, http.MethodPost, "/users",
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","password":"secret-password"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp idResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	user, _ := env.users.GetByID(context.Background(), resp.ID)
	if user.Role != model.RoleCustomer {
		t.Errorf("role = %q, want customer", user.Role)
	}
}

func TestAdminCreateUserRejectsUnknownRole(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	rec := doJSON(t, uh.Create, http.MethodPost, "/users",
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","password":"secret-password","role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.users.count() != 0 {
		t.Errorf("users = %d, want 0", env.users.count())
	}
}

func TestGetUserNotFound(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	rec := doWithParam(t, uh.Get, http.MethodGet, "", "999")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if typ := errorType(t, rec); typ != "NotFound" {
		t.Errorf("error type = %q, want NotFound", typ)
	}
}

func TestUpdateUserRole(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	created := doJSON(t, uh.Create, http.MethodPost, "/users",
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","password":"secret-password"}`)
	var resp idResp
	if err := json.Unmarshal(created.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	rec := doWithParam(t, uh.Update, http.MethodPut,
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","role":"admin"}`,
		"1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	user, _ := env.users.GetByID(context.Background(), resp.ID)
	if user.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	uh := newUserHandler(env)

	doJSON(t, uh.Create, http.MethodPost, "/users",
		`{"firstName":"Mara","lastName":"V","email":"mara@example.com","password":"secret-password"}`)

	rec := doWithParam(t, uh.Delete, http.MethodDelete, "", "1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if env.users.count() != 0 {
		t.Errorf("users = %d, want 0", env.users.count())
	}
	again := doWithParam(t, uh.Delete, http.MethodDelete, "", "1")
	if again.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", again.Code)
	}
}
