package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yieldvault/invest-api/internal/core/domain"
	"github.com/yieldvault/invest-api/internal/core/ports"
)

// ChatHandler is the request/response path of the support chat. It calls the
// same service operations as the socket path.
type ChatHandler struct {
	service ports.ChatService
}

func NewChatHandler(service ports.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Send posts a support message.
//
// @Summary      Send a support message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      chatMessageRequest  true  "Message"
// @Success      201   {object}  domain.ChatMessage
// @Failure      422   {object}  errorResponse
// @Router       /v1/chat/messages [post]
func (h *ChatHandler) Send(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req chatMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.service.SendUserMessage(c.Request().Context(), userID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

// ListMine returns the caller's thread.
//
// @Summary      List own messages
// @Tags         chat
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.ChatMessage
// @Router       /v1/chat/messages [get]
func (h *ChatHandler) ListMine(c echo.Context) error {
	userID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	msgs, err := h.service.List(c.Request().Context(), ports.ChatFilter{UserID: userID})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// ListAll is the admin inbox.
//
// @Summary      List all messages
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "unread, read or replied"
// @Success      200     {array}   domain.ChatMessage
// @Router       /v1/admin/chat/messages [get]
func (h *ChatHandler) ListAll(c echo.Context) error {
	msgs, err := h.service.List(c.Request().Context(), ports.ChatFilter{
		Status: domain.ChatStatus(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// MarkRead flags an unread message as read.
//
// @Summary      Mark a message read
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Message id"
// @Success      200  {object}  domain.ChatMessage
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/chat/messages/{id}/read [post]
func (h *ChatHandler) MarkRead(c echo.Context) error {
	msg, err := h.service.MarkRead(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}

// Reply answers a user's message.
//
// @Summary      Reply to a message
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Message id"
// @Param        body  body      chatMessageRequest  true  "Reply"
// @Success      200   {object}  domain.ChatMessage
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/chat/messages/{id}/reply [post]
func (h *ChatHandler) Reply(c echo.Context) error {
	adminID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req chatMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.service.SendAdminReply(c.Request().Context(), c.Param("id"), adminID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msg)
}
