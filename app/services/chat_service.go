package services

import (
	"context"
	"strings"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

var escalationWords = []func(string) bool{Contains("administrador"), Contains("administrator")}

// ChatService keeps the support log and answers user messages.
type ChatService struct {
	chat      *repositories.ChatRepository
	responder *Responder
	bus       *event.Bus
	now       func() time.Time
}

// NewChatService returns a ChatService. A nil clock means time.Now.
func NewChatService(chat *repositories.ChatRepository, responder *Responder, bus *event.Bus, now func() time.Time) *ChatService {
	if now == nil {
		now = time.Now
	}
	return &ChatService{chat: chat, responder: responder, bus: bus, now: now}
}

// AddMessage appends one message to the user's log.
func (s *ChatService) AddMessage(ctx context.Context, userID uint, from, text string, at time.Time) (*models.ChatMessage, error) {
	if from != models.FromUser && from != models.FromSystem {
		return nil, apperr.Newf(apperr.InvalidInput, "invalid author %q", from)
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.New(apperr.InvalidInput, "message is required")
	}
	m := &models.ChatMessage{UserID: userID, From: from, Message: text, Timestamp: at.UTC()}
	if err := s.chat.Append(ctx, m); err != nil {
		return nil, err
	}
	metrics.ChatMessages.WithLabelValues(from).Inc()
	return m, nil
}

// GetLog returns the user's log, oldest first. NotFound when it is empty.
func (s *ChatService) GetLog(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	log, err := s.chat.Log(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(log) == 0 {
		return nil, apperr.New(apperr.NotFound, "no messages found")
	}
	return log, nil
}

// Exchange stores the user's message, stores the responder's answer and
// returns the whole log.
func (s *ChatService) Exchange(ctx context.Context, p *auth.Principal, text string) ([]models.ChatMessage, error) {
	asked, err := s.AddMessage(ctx, p.UserID, models.FromUser, text, s.now())
	if err != nil {
		return nil, err
	}

	for _, match := range escalationWords {
		if match(text) {
			logger.WithCtx(ctx).Info("chat: escalated to an administrator", "user_id", p.UserID)
			s.bus.FireAsync(ctx, EventChatEscalated, ChatEscalated{
				UserID: p.UserID, Username: p.Username, Email: p.Email, Message: text,
			})
			break
		}
	}

	// The user message is already stored, so a failing rule still gets an answer.
	reply, rule, err := s.responder.Reply(ctx, p.UserID, text)
	if err != nil {
		logger.WithCtx(ctx).Error("chat: responder failed, sending help", "user_id", p.UserID, "rule", rule, "error", err)
		reply = HelpText
	}
	at := s.now()
	if at.Before(asked.Timestamp) {
		at = asked.Timestamp
	}
	if _, err := s.AddMessage(ctx, p.UserID, models.FromSystem, reply, at); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Debug("chat: answered", "user_id", p.UserID, "rule", rule)
	return s.chat.Log(ctx, p.UserID)
}
