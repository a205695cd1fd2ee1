package referral

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/apperr"
	"github.com/mydrreferral/mydrreferral/internal/platform/web"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/add-referral", h.Create)
	api.POST("/update-referral-status", h.UpdateStatus)
	api.PUT("/update-status", h.UpdateStatusByToken)
	api.GET("/sent-referrals", h.SentReferrals)
	api.GET("/received-referrals", h.ReceivedReferrals)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	r, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, r, "Referral created")
}

type updateStatusBody struct {
	ReferralID int64 `json:"referralId"`
	StatusCode int   `json:"statusCode"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var in updateStatusBody
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateStatus(c.Request().Context(), in.ReferralID, in.StatusCode); err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, nil, "Referral status updated")
}

type tokenStatusBody struct {
	ReferralID  string `json:"referralId"`
	StatusToken string `json:"statusToken"`
}

// UpdateStatusByToken is the one endpoint that distinguishes a missing
// referral with a 404 instead of the blanket 400.
func (h *Handler) UpdateStatusByToken(c echo.Context) error {
	var in tokenStatusBody
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	id, err := strconv.ParseInt(in.ReferralID, 10, 64)
	if err != nil || id <= 0 {
		return web.Fail(c, http.StatusBadRequest, "referralId is required")
	}
	if err := h.svc.UpdateStatusByToken(c.Request().Context(), id, in.StatusToken); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return web.Fail(c, http.StatusNotFound, apperr.Message(err))
		}
		return web.Error(c, err)
	}
	return web.OK(c, nil, "Referral status updated")
}

func (h *Handler) SentReferrals(c echo.Context) error {
	views, err := h.svc.SentReferrals(c.Request().Context())
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}

func (h *Handler) ReceivedReferrals(c echo.Context) error {
	views, err := h.svc.ReceivedReferrals(c.Request().Context())
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}
