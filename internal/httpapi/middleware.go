package httpapi

import (
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/mesh-intelligence/dayplan/internal/auth"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const (
	identityKey = "dayplan.identity"
	metricsKey  = "dayplan.metrics"
)

// requireUser rejects requests without a valid bearer token and stores the
// resolved identity on the context.
func requireUser(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := authn.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, types.ErrUnauthenticated) {
					return err
				}
				return fmt.Errorf("authenticating request: %w", err)
			}
			c.Set(identityKey, id)
			if m, ok := c.Get(metricsKey).(*requestMetrics); ok {
				m.SetUser(id.UserID)
			}
			return next(c)
		}
	}
}

func identity(c echo.Context) auth.Identity {
	id, _ := c.Get(identityKey).(auth.Identity)
	return id
}

func userID(c echo.Context) string {
	return identity(c).UserID
}
