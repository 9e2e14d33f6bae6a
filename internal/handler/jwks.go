package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/identity-service/internal/auth"
)

// JWKSHandler serves the public verification keys as a JSON key set so
// other verifier processes can validate tokens signed here. Only public
// parameters leave the process.
type JWKSHandler struct {
	Keys *auth.KeyProvider
}

func NewJWKSHandler(keys *auth.KeyProvider) *JWKSHandler {
	return &JWKSHandler{Keys: keys}
}

// KeySet handles GET /.well-known/jwks.json.
func (h *JWKSHandler) KeySet(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Keys.JWKS())
}
