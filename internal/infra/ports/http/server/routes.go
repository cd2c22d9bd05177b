package server

import (
	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/application/config"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/handlers"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/middleware"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

func New(
	cfg *config.Config,
	identity usecase.IdentityUsecase,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	scoreHandler *handlers.ScoreHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())
	e.Use(middleware.RateLimit(middleware.NewIPRateLimiter(10, 20)))

	api := e.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/anonymous", authHandler.Anonymous)
		}

		v1 := api.Group("/v1")
		v1.Use(middleware.PlayerAuthMiddleware(identity))
		{
			v1.GET("/categories", roomHandler.ListCategories)

			v1.POST("/rooms", roomHandler.CreateRoom)
			v1.GET("/rooms/:code", roomHandler.GetRoom)

			v1.GET("/score", scoreHandler.GetScore)
			v1.PUT("/score/name", scoreHandler.SetPlayerName)
			v1.POST("/score/reset", scoreHandler.ResetScore)

			v1.GET("/ws", wsHandler.Handle)
		}
	}

	return e
}
