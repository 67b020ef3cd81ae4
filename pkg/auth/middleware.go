package auth

import (
	"context"
	"fmt"
	"net/http"
	"os/user"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/reflectd/internal/logging"
)

// Modes accepted by Middleware.
const (
	ModeHeader = "header"
	ModeLocal  = "local"
)

// DefaultHeader carries the user ID in header mode.
const DefaultHeader = "X-User-ID"

type contextKey string

// userIDKey stores the authenticated user ID in the Echo context.
const userIDKey contextKey = "authenticated_user_id"

// Config selects the identity source.
type Config struct {
	Mode   string
	Header string
}

// Middleware returns Echo middleware that sets the authenticated user ID on
// the Echo context and on the request context (for logging correlation).
//
// Header mode answers 401 when the header is missing and 400 when the value
// is not a usable ID. Local mode resolves the OS user once, up front.
func Middleware(cfg Config) (echo.MiddlewareFunc, error) {
	switch cfg.Mode {
	case ModeHeader, "":
		header := cfg.Header
		if header == "" {
			header = DefaultHeader
		}
		return headerIdentity(header), nil
	case ModeLocal:
		current, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("resolve local user: %w", err)
		}
		userID, err := DeriveUserID(current.Username)
		if err != nil {
			return nil, fmt.Errorf("derive local user id: %w", err)
		}
		return fixedIdentity(userID), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}

func headerIdentity(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := strings.TrimSpace(c.Request().Header.Get(header))
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
			}
			if err := logging.ValidateID(userID, "user id"); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}
			setUserID(c, userID)
			return next(c)
		}
	}
}

func fixedIdentity(userID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setUserID(c, userID)
			return next(c)
		}
	}
}

func setUserID(c echo.Context, userID string) {
	c.Set(string(userIDKey), userID)
	req := c.Request()
	c.SetRequest(req.WithContext(WithUserID(req.Context(), userID)))
}

// UserID returns the authenticated user ID from the Echo context.
func UserID(c echo.Context) (string, bool) {
	id, ok := c.Get(string(userIDKey)).(string)
	return id, ok && id != ""
}

// WithUserID stores userID on ctx for handlers and logging.
func WithUserID(ctx context.Context, userID string) context.Context {
	return logging.WithUserID(ctx, userID)
}

// UserIDFromContext returns the user ID stored by the middleware.
func UserIDFromContext(ctx context.Context) string {
	return logging.UserIDFromContext(ctx)
}
