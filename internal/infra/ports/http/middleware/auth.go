package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/infra/appctx"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

// PlayerAuthMiddleware resolves the caller's player id. A signed token
// (Authorization header or token query parameter, for websockets) is
// preferred; a bare X-Player-Id header or player_id query parameter is
// the fallback for identities provisioned without signing. The store
// level trusts any writer anyway, so the fallback loses nothing.
func PlayerAuthMiddleware(identity usecase.IdentityUsecase) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			playerID := resolvePlayerID(c, identity)
			if playerID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing player identity"})
			}

			c.SetRequest(
				c.Request().WithContext(
					appctx.WithPlayerID(c.Request().Context(), playerID),
				),
			)

			return next(c)
		}
	}
}

func resolvePlayerID(c echo.Context, identity usecase.IdentityUsecase) string {
	token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if token == "" || token == c.Request().Header.Get("Authorization") {
		token = c.QueryParam("token")
	}

	if token != "" {
		if playerID, err := identity.Verify(token); err == nil {
			return playerID
		}
	}

	if id := c.Request().Header.Get("X-Player-Id"); id != "" {
		return id
	}

	return c.QueryParam("player_id")
}
