package connection

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/web"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/connection-request", h.CreateRequest)
	api.POST("/connection-response", h.Respond)
	api.POST("/unblock-connection", h.Unblock)
	api.GET("/my-connections", h.MyConnections)
	api.GET("/my-all-connections", h.AllMyConnections)
	api.GET("/connection-requests", h.ReceivedRequests)
	api.GET("/all-connection-requests", h.AllReceivedRequests)
}

type createRequestBody struct {
	ReceiverID int64  `json:"receiverId"`
	Note       string `json:"note"`
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in createRequestBody
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.CreateRequest(c.Request().Context(), in.ReceiverID, in.Note); err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, nil, "Connection Request sent")
}

type respondBody struct {
	ConnectionID int64 `json:"connectionId"`
	IsAccepted   bool  `json:"isAccepted"`
}

func (h *Handler) Respond(c echo.Context) error {
	var in respondBody
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	msg, err := h.svc.Respond(c.Request().Context(), in.ConnectionID, in.IsAccepted)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, nil, msg)
}

func (h *Handler) Unblock(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("connectionId"), 10, 64)
	if err != nil || id <= 0 {
		return web.Fail(c, http.StatusBadRequest, "connectionId is required")
	}
	if err := h.svc.Unblock(c.Request().Context(), id); err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, nil, "Connection Unblocked")
}

// blockedFilter parses the optional isBlocked query param. Absent or
// unparseable means no filter.
func blockedFilter(c echo.Context) *bool {
	raw := c.QueryParam("isBlocked")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func (h *Handler) MyConnections(c echo.Context) error {
	views, err := h.svc.MyConnections(c.Request().Context(), blockedFilter(c))
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}

func (h *Handler) AllMyConnections(c echo.Context) error {
	views, err := h.svc.MyConnections(c.Request().Context(), nil)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}

func (h *Handler) ReceivedRequests(c echo.Context) error {
	views, err := h.svc.ReceivedRequests(c.Request().Context(), blockedFilter(c))
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}

func (h *Handler) AllReceivedRequests(c echo.Context) error {
	views, err := h.svc.ReceivedRequests(c.Request().Context(), nil)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, views)
}
