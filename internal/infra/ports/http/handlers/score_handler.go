package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/infra/adapters/postgres/repository"
	"github.com/milyonersgroup/catchthespy/internal/infra/appctx"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/dto"
)

// ScoreHandler exposes the per-device win/loss ledger.
type ScoreHandler struct {
	scoreRepo repository.ScoreRepository
}

func NewScoreHandler(scoreRepo repository.ScoreRepository) *ScoreHandler {
	return &ScoreHandler{
		scoreRepo: scoreRepo,
	}
}

func (h *ScoreHandler) GetScore(c echo.Context) error {
	playerID, ok := appctx.PlayerID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing player identity"})
	}

	score, err := h.scoreRepo.Get(c.Request().Context(), playerID)
	if err != nil {
		slog.Error("get score failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load score"})
	}

	return c.JSON(http.StatusOK, dto.ScoreResponse{
		PlayerName: score.Name,
		Wins:       score.Wins,
		Losses:     score.Losses,
	})
}

func (h *ScoreHandler) SetPlayerName(c echo.Context) error {
	playerID, ok := appctx.PlayerID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing player identity"})
	}

	var req dto.SetPlayerNameRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if err := h.scoreRepo.SetPlayerName(c.Request().Context(), playerID, req.Name); err != nil {
		slog.Error("set player name failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not save name"})
	}

	return c.NoContent(http.StatusOK)
}

func (h *ScoreHandler) ResetScore(c echo.Context) error {
	playerID, ok := appctx.PlayerID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing player identity"})
	}

	if err := h.scoreRepo.Reset(c.Request().Context(), playerID); err != nil {
		slog.Error("reset score failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not reset score"})
	}

	return c.NoContent(http.StatusOK)
}
