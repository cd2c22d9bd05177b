package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/milyonersgroup/catchthespy/internal/application/constant"
	"github.com/milyonersgroup/catchthespy/internal/infra/appctx"
	"github.com/milyonersgroup/catchthespy/internal/infra/ports/http/dto"
	"github.com/milyonersgroup/catchthespy/internal/store"
	"github.com/milyonersgroup/catchthespy/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
	wordUsecase usecase.WordUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase, wordUsecase usecase.WordUsecase) *RoomHandler {
	return &RoomHandler{
		roomUsecase: roomUsecase,
		wordUsecase: wordUsecase,
	}
}

func (h *RoomHandler) ListCategories(c echo.Context) error {
	return c.JSON(http.StatusOK, h.wordUsecase.Categories())
}

func (h *RoomHandler) CreateRoom(c echo.Context) error {
	playerID, ok := appctx.PlayerID(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing player identity"})
	}

	var req dto.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	code, err := h.roomUsecase.CreateRoom(c.Request().Context(), playerID, req.HostName, req.CategoryID, req.Duration)
	if err != nil {
		if errors.Is(err, usecase.ErrPreconditionFailed) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}

		slog.Error("create room failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create room"})
	}

	return c.JSON(http.StatusCreated, dto.CreateRoomResponse{RoomCode: code})
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	room, err := h.roomUsecase.Room(c.Request().Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
		}

		slog.Error("get room failed", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not load room"})
	}

	return c.JSON(http.StatusOK, room)
}
