package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/realtime"
)

// SocketHandler upgrades authenticated requests to chat sockets.
type SocketHandler struct {
	server   *realtime.Server
	upgrader websocket.Upgrader
}

func NewSocketHandler(server *realtime.Server) *SocketHandler {
	return &SocketHandler{
		server: server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers on other origins authenticate with the token anyway.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Connect handles GET /ws?user_id=. The user_id parameter must match the
// token subject.
//
// @Summary      Open a chat socket
// @Tags         chat
// @Security     BearerAuth
// @Param        user_id       query  string  true   "Caller id; must match the token"
// @Param        access_token  query  string  false  "JWT when headers cannot be set"
// @Success      101  {string}  string  "switching protocols"
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /ws [get]
func (h *SocketHandler) Connect(c echo.Context) error {
	userID, role, err := ctxClaims(c)
	if err != nil {
		return err
	}
	if c.QueryParam("user_id") != userID {
		return domain.ErrForbidden
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return nil
	}
	h.server.Serve(c.Request().Context(), ws, userID, role)
	return nil
}
