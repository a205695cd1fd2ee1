package referral

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/web"
)

func doRequest(t *testing.T, h echo.HandlerFunc, method, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(asUser(userID))
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) web.Envelope {
	t.Helper()
	var env web.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestTokenEndpointMissingReferralIs404(t *testing.T) {
	_, svc := fixtures()
	h := NewHandler(svc)

	rec := doRequest(t, h.UpdateStatusByToken, http.MethodPut,
		`{"referralId":"42","statusToken":"paid"}`, 1)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.IsSuccess {
		t.Error("isSuccess should be false")
	}
}

func TestTokenEndpointUnknownTokenSucceeds(t *testing.T) {
	_, svc := fixtures()
	h := NewHandler(svc)
	r := mustCreate(t, svc)

	rec := doRequest(t, h.UpdateStatusByToken, http.MethodPut,
		`{"referralId":"`+strconv.FormatInt(r.ID, 10)+`","statusToken":"something_else"}`, 1)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.IsSuccess {
		t.Error("unknown token must still report success")
	}
}

func TestCreateHandlerFailureIs400(t *testing.T) {
	_, svc := fixtures()
	h := NewHandler(svc)

	rec := doRequest(t, h.Create, http.MethodPost,
		`{"connectionId":10,"patientName":""}`, 1)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.IsSuccess || len(env.Message) == 0 {
		t.Errorf("envelope = %+v", env)
	}
}
