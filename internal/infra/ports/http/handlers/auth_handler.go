package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/dto"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

type AuthHandler struct {
	identityUsecase usecase.IdentityUsecase
}

func NewAuthHandler(identityUsecase usecase.IdentityUsecase) *AuthHandler {
	return &AuthHandler{
		identityUsecase: identityUsecase,
	}
}

// Anonymous provisions a fresh anonymous identity. When signing is
// unavailable the id alone is returned; the client uses it unsigned
// rather than being blocked.
func (h *AuthHandler) Anonymous(c echo.Context) error {
	playerID, token, err := h.identityUsecase.Issue()
	if err != nil {
		if !errors.Is(err, usecase.ErrIdentityUnavailable) {
			slog.Error("issue identity failed", slog.Any(constant.Error, err))
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not issue identity"})
		}

		slog.Warn("identity signing unavailable, issuing unsigned id", slog.Any(constant.Error, err))
	}

	return c.JSON(http.StatusOK, dto.AnonymousAuthResponse{
		PlayerID: playerID,
		Token:    token,
	})
}
