package handler

import "github.com/labstack/echo/v4"

// fieldError is one entry of the structured error body every endpoint
// returns on failure: a stable type, a human message, and the offending
// field path when there is one. Internal details and stack traces never
// appear here.
type fieldError struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
	Path string `json:"path"`
}

const (
	errValidation         = "ValidationError"
	errEmailTaken         = "EmailTaken"
	errInvalidCredentials = "InvalidCredentials"
	errUnauthorized       = "Unauthorized"
	errNotFound           = "NotFound"
	errInternal           = "InternalServerError"
)

func fail(c echo.Context, status int, typ, msg, path string) error {
	return c.JSON(status, echo.Map{"errors": []fieldError{{Type: typ, Msg: msg, Path: path}}})
}
