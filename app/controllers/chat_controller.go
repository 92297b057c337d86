package controllers

import (
	"context"
	"encoding/json"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ws"
)

// Websocket frame types.
const (
	FrameAuth        = "auth"
	FrameChatMessage = "chatMessage"
	FrameLog         = "log"
	FrameError       = "error"
)

type inboundFrame struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

// LogFrame carries the full chat log after an exchange.
type LogFrame struct {
	Type     string               `json:"type"`
	Messages []models.ChatMessage `json:"messages"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Pusher fans a frame out to every connection of a user.
type Pusher interface {
	Push(userID uint, v any)
}

// ChatController serves the support log over HTTP and implements ws.Handler
// for the chat relay.
type ChatController struct {
	chat   *services.ChatService
	auth   *services.AuthService
	pusher Pusher
}

func NewChatController(chat *services.ChatService, auth *services.AuthService, pusher Pusher) *ChatController {
	return &ChatController{chat: chat, auth: auth, pusher: pusher}
}

var _ ws.Handler = (*ChatController)(nil)

// Log GET /api/chat
func (c *ChatController) Log(x *ctx.Context) {
	log, err := c.chat.GetLog(x.Context(), x.Principal().UserID)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(log)
}

// Authenticate accepts only {"type":"auth","token":"…"} as first frame.
func (c *ChatController) Authenticate(ctx context.Context, frame []byte) (uint, error) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil || in.Type != FrameAuth {
		return 0, apperr.New(apperr.Unauthorized, "first frame must be an auth frame")
	}
	p, err := c.auth.Verify(ctx, in.Token)
	if err != nil {
		return 0, err
	}
	return p.UserID, nil
}

// Handle answers one chatMessage frame and pushes the log to every
// connection of the user.
func (c *ChatController) Handle(ctx context.Context, client *ws.Client, frame []byte) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		client.SendJSON(errorFrame{Type: FrameError, Message: "invalid frame"})
		return
	}
	if in.Type != FrameChatMessage {
		client.SendJSON(errorFrame{Type: FrameError, Message: "unsupported frame type"})
		return
	}

	user, err := c.auth.Me(ctx, client.UserID())
	if err != nil {
		client.SendJSON(errorFrame{Type: FrameError, Message: "unauthorized"})
		return
	}
	p := &auth.Principal{UserID: user.ID, Username: user.Username, Email: user.Email, IsAdmin: user.IsAdmin}

	log, err := c.chat.Exchange(ctx, p, in.Message)
	if err != nil {
		msg := apperr.MessageOf(err)
		if apperr.KindOf(err) == apperr.Internal || msg == "" {
			logger.WithCtx(ctx).Error("chat: exchange failed", "error", err)
			msg = "Internal Server Error"
		}
		client.SendJSON(errorFrame{Type: FrameError, Message: msg})
		return
	}
	c.pusher.Push(user.ID, LogFrame{Type: FrameLog, Messages: log})
}
