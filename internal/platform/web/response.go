// Package web implements the fixed JSON envelope the frontend consumes:
// {"isSuccess": bool, "message": [string], "data": any}.
package web

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
)

// Envelope is the response body shape shared by every endpoint.
type Envelope struct {
	IsSuccess bool        `json:"isSuccess"`
	Message   []string    `json:"message"`
	Data      interface{} `json:"data,omitempty"`
}

// OK writes a success envelope with an optional data payload.
func OK(c echo.Context, data interface{}, messages ...string) error {
	if messages == nil {
		messages = []string{}
	}
	return c.JSON(http.StatusOK, Envelope{IsSuccess: true, Message: messages, Data: data})
}

// Fail writes a failure envelope with the given HTTP status.
func Fail(c echo.Context, status int, messages ...string) error {
	if messages == nil {
		messages = []string{}
	}
	return c.JSON(status, Envelope{IsSuccess: false, Message: messages})
}

// Error maps a service error to the envelope. Every failure kind renders as
// HTTP 400; callers that need a different status (the token-based referral
// status endpoint uses 404 for missing referrals) use Fail directly.
func Error(c echo.Context, err error) error {
	return Fail(c, http.StatusBadRequest, apperr.Message(err))
}
