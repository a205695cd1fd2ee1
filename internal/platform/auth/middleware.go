package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	ProfessionalIDKey contextKey = "professional_id"
	RoleKey           contextKey = "role"
)

// Claims carried by every access token. Subject is the professional id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type JWTConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey enables standalone HS256 mode; when empty, tokens are
	// validated against the JWKS endpoint.
	SigningKey []byte
}

// JWTMiddleware authenticates requests via a Bearer token and places the
// resolved professional id and role on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	var keyFunc jwt.Keyfunc
	if len(cfg.SigningKey) > 0 {
		keyFunc = func(t *jwt.Token) (interface{}, error) {
			return cfg.SigningKey, nil
		}
	} else {
		keyFunc = jwksKeyFunc(cfg.JWKSURL)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"RS256", "HS256"}),
			}
			if cfg.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.Issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}

			token, err := jwt.ParseWithClaims(parts[1], claims, keyFunc, opts...)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			professionalID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || professionalID <= 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ProfessionalIDKey, professionalID)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ProfessionalIDFromContext returns the authenticated professional's id, or 0
// when the request is unauthenticated.
func ProfessionalIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ProfessionalIDKey).(int64)
	return id
}

// RoleFromContext returns the authenticated professional's role.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

// WithProfessional returns a context carrying the given identity. Used by
// tests and internal callers that bypass the HTTP layer.
func WithProfessional(ctx context.Context, id int64, role string) context.Context {
	ctx = context.WithValue(ctx, ProfessionalIDKey, id)
	return context.WithValue(ctx, RoleKey, role)
}
