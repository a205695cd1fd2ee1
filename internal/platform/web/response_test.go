package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
)

func newTestContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestOKEnvelope(t *testing.T) {
	c, rec := newTestContext()
	if err := OK(c, map[string]int{"count": 3}, "done"); err != nil {
		t.Fatalf("OK: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"isSuccess":true`) {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, `"message":["done"]`) {
		t.Errorf("body = %s", body)
	}
}

func TestOKWithoutMessages(t *testing.T) {
	c, rec := newTestContext()
	if err := OK(c, nil); err != nil {
		t.Fatalf("OK: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Message == nil {
		t.Error("message must marshal as [] not null")
	}
}

func TestErrorMapsToBadRequest(t *testing.T) {
	c, rec := newTestContext()
	if err := Error(c, apperr.Validation("first name is required")); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var env Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.IsSuccess {
		t.Error("isSuccess should be false")
	}
	if len(env.Message) != 1 || env.Message[0] != "first name is required" {
		t.Errorf("message = %v", env.Message)
	}
}

func TestErrorHidesPersistenceDetails(t *testing.T) {
	c, rec := newTestContext()
	cause := apperr.Persistence(&json.SyntaxError{})
	if err := Error(c, cause); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "SyntaxError") {
		t.Error("internal error details leaked into the envelope")
	}
}
