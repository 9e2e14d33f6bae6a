package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
	"github.com/iliyamo/identity-service/internal/model"
)

func newTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	kp, err := auth.NewKeyProvider(priv)
	if err != nil {
		t.Fatal(err)
	}
	// Access-token verification never touches the stores.
	return auth.NewTokenService(kp, nil, nil, "identity-service", time.Hour, 24*time.Hour)
}

func runAuthenticate(t *testing.T, tokens *auth.TokenService, decorate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/self", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}
	if err := Authenticate(tokens)(next)(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec, c, called
}

func TestAuthenticateFromCookie(t *testing.T) {
	tokens := newTokenService(t)
	tok, err := tokens.IssueAccessToken(42, model.RoleAdmin, 9)
	if err != nil {
		t.Fatal(err)
	}

	_, c, called := runAuthenticate(t, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: tok.Value})
	})
	if !called {
		t.Fatal("next handler was not called")
	}
	if id, ok := CurrentUserID(c); !ok || id != 42 {
		t.Errorf("CurrentUserID = %d,%v, want 42,true", id, ok)
	}
	if role, ok := CurrentRole(c); !ok || role != model.RoleAdmin {
		t.Errorf("CurrentRole = %q,%v, want admin,true", role, ok)
	}
	if tid, ok := CurrentTenantID(c); !ok || tid != 9 {
		t.Errorf("CurrentTenantID = %d,%v, want 9,true", tid, ok)
	}
}

func TestAuthenticateFromBearerHeader(t *testing.T) {
	tokens := newTokenService(t)
	tok, err := tokens.IssueAccessToken(42, model.RoleCustomer, 0)
	if err != nil {
		t.Fatal(err)
	}

	_, _, called := runAuthenticate(t, tokens, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok.Value)
	})
	if !called {
		t.Fatal("next handler was not called")
	}
}

func TestAuthenticateRejects(t *testing.T) {
	tokens := newTokenService(t)
	foreign := newTokenService(t) // different signing key
	foreignTok, err := foreign.IssueAccessToken(42, model.RoleCustomer, 0)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"no credential", nil},
		{"garbage cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "garbage"})
		}},
		{"garbage bearer", func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer nonsense")
		}},
		{"foreign signature", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: foreignTok.Value})
		}},
		{"non-bearer header", func(req *http.Request) {
			req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runAuthenticate(t, tokens, tt.decorate)
			if called {
				t.Error("next handler was called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
