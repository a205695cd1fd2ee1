package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mydrreferral/mydrreferral/internal/platform/auth"
	"github.com/mydrreferral/mydrreferral/internal/platform/web"
	"github.com/mydrreferral/mydrreferral/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts auth endpoints on the public group and profile
// endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(public *echo.Group, api *echo.Group) {
	public.POST("/auth/register", h.Register)
	public.POST("/auth/login", h.Login)

	api.GET("/profile", h.Profile)
	api.PUT("/profile", h.UpdateProfile)
	api.GET("/professionals", h.SearchDirectory)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	p, err := h.svc.Register(c.Request().Context(), &in)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, p, "Registration successful")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string        `json:"token"`
	Professional *Professional `json:"professional"`
}

func (h *Handler) Login(c echo.Context) error {
	var in loginRequest
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	token, p, err := h.svc.Login(c.Request().Context(), in.Email, in.Password)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, loginResponse{Token: token, Professional: p}, "Login successful")
}

func (h *Handler) Profile(c echo.Context) error {
	me := auth.ProfessionalIDFromContext(c.Request().Context())
	p, err := h.svc.Profile(c.Request().Context(), me)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var in ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return web.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	me := auth.ProfessionalIDFromContext(c.Request().Context())
	p, err := h.svc.UpdateProfile(c.Request().Context(), me, &in)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, p, "Profile updated")
}

func (h *Handler) SearchDirectory(c echo.Context) error {
	me := auth.ProfessionalIDFromContext(c.Request().Context())
	pg := pagination.FromContext(c)
	items, total, err := h.svc.SearchDirectory(c.Request().Context(), me,
		c.QueryParam("query"), c.QueryParam("role"), pg.Limit, pg.Offset)
	if err != nil {
		return web.Error(c, err)
	}
	return web.OK(c, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
