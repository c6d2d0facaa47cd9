package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/room-reservation/internal/chatbot"
)

// ChatHandler accepts messages relayed by the chat gateway.  The gateway
// authenticates with a shared header token; users are identified by their
// chat account id.
type ChatHandler struct {
    Bot *chatbot.Bot
    Log *zap.Logger
}

func NewChatHandler(bot *chatbot.Bot, log *zap.Logger) *ChatHandler {
    return &ChatHandler{Bot: bot, Log: log}
}

type chatMessageReq struct {
    ExternalID string `json:"external_id" validate:"required,max=64"`
    Text       string `json:"text" validate:"required,max=4096"`
}

// Message handles POST /v1/chat/messages.
func (h *ChatHandler) Message(c echo.Context) error {
    var req chatMessageReq
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    reply, err := h.Bot.Handle(c.Request().Context(), strings.TrimSpace(req.ExternalID), req.Text)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, reply)
}
