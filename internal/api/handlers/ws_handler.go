package handlers

import (
	"net/http"

	ws "marketplace-auction/internal/infrastructure/websocket"
	"marketplace-auction/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WSHandler exposes the live auction-update socket over the Echo router.
type WSHandler struct {
	handler *ws.Handler
	log     logger.Logger
}

func NewWSHandler(handler *ws.Handler, log logger.Logger) *WSHandler {
	return &WSHandler{
		handler: handler,
		log:     log,
	}
}

func (h *WSHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/auctions/:post_token", h.Subscribe)
}

// Subscribe upgrades the request to a WebSocket subscription for one post.
// Browsers cannot set headers on WebSocket requests, so identity comes
// from the user_id query parameter.
func (h *WSHandler) Subscribe(c echo.Context) error {
	postToken := c.Param("post_token")

	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = c.Request().Header.Get(userIDHeader)
	}
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "user identity required"})
	}

	if err := h.handler.HandleConnection(c.Response(), c.Request(), userID, postToken); err != nil {
		h.log.Error("WebSocket subscription failed", "post_token", postToken, "error", err)
		return err
	}
	return nil
}
