package conversation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/havenlabs/haven-agent/internal/app/agentflow"
	"github.com/havenlabs/haven-agent/internal/domain"
	"github.com/havenlabs/haven-agent/internal/observability"
)

// messageExcerptLen bounds how much of a triggering message an escalation
// record keeps.
const messageExcerptLen = 140

type Service struct {
	orchestrator    *agentflow.Orchestrator
	sessionStore    domain.SessionStore
	messageStore    domain.MessageStore
	escalationStore domain.EscalationStore
	now             func() time.Time
}

// NewService wires the session layer around the orchestrator.
// escalationStore may be nil; escalations are then only signaled in the
// result, not recorded.
func NewService(
	orchestrator *agentflow.Orchestrator,
	sessionStore domain.SessionStore,
	messageStore domain.MessageStore,
	escalationStore domain.EscalationStore,
) *Service {
	return &Service{
		orchestrator:    orchestrator,
		sessionStore:    sessionStore,
		messageStore:    messageStore,
		escalationStore: escalationStore,
		now:             time.Now,
	}
}

type StartSessionInput struct {
	UserID domain.UserID
	Title  string
}

type StartSessionOutput struct {
	Session *domain.Session
}

func (s *Service) StartSession(ctx context.Context, in StartSessionInput) (*StartSessionOutput, error) {
	now := s.now()

	log := observability.LoggerFromContext(ctx).With(
		"user_id", in.UserID,
	)
	log.Info("starting new session")

	session := &domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		UserID:    in.UserID,
		CreatedAt: now,
		UpdatedAt: now,
		Title:     in.Title,
	}

	if err := s.sessionStore.CreateSession(session); err != nil {
		log.Error("failed to create session", "error", err)
		return nil, err
	}

	welcome := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Author:    domain.RoleAgent,
		Text:      "Hi, I'm Haven. What's on your mind today?",
		CreatedAt: now,
	}

	if err := s.messageStore.AppendMessage(welcome); err != nil {
		log.Error("failed to append welcome message", "error", err)
		return nil, err
	}

	log.Info("session started", "session_id", session.ID)

	return &StartSessionOutput{
		Session: session,
	}, nil
}

type SendMessageInput struct {
	SessionID domain.SessionID
	UserID    domain.UserID
	Text      string
}

type SendMessageOutput struct {
	UserMessage  *domain.Message
	AgentMessage *domain.Message
	Result       domain.InteractionResult
}

func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	session, err := s.sessionStore.GetSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", session.ID,
		"user_id", session.UserID,
	)
	log.Info("sending message")

	now := s.now()

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: session.ID,
		Author:    domain.RoleUser,
		Text:      in.Text,
		CreatedAt: now,
	}

	if err := s.messageStore.AppendMessage(userMsg); err != nil {
		log.Error("failed to append user message", "error", err)
		return nil, err
	}

	// Process never errors; a failed pipeline yields a degraded result.
	result := s.orchestrator.Process(ctx, in.Text, nil)

	agentMsg := &domain.Message{
		ID:                 domain.MessageID(uuid.NewString()),
		SessionID:          session.ID,
		Author:             domain.RoleAgent,
		Text:               result.Response,
		CreatedAt:          s.now(),
		ReplyTo:            &userMsg.ID,
		RequiresEscalation: result.RequiresEscalation,
	}
	if result.Safety != nil {
		agentMsg.RiskLevel = result.Safety.RiskLevel
	}

	if err := s.messageStore.AppendMessage(agentMsg); err != nil {
		log.Error("failed to append agent message", "error", err)
		return nil, err
	}

	if result.RequiresEscalation {
		s.recordEscalation(log, session, in.Text, result)
	}

	session.UpdatedAt = s.now()
	if err := s.sessionStore.UpdateSession(session); err != nil {
		log.Error("failed to update session", "error", err)
		return nil, err
	}

	log.Info("send message completed",
		"requires_escalation", result.RequiresEscalation,
		"degraded", result.Degraded())

	return &SendMessageOutput{
		UserMessage:  userMsg,
		AgentMessage: agentMsg,
		Result:       result,
	}, nil
}

// recordEscalation persists an escalation record. Failures are logged and
// swallowed: the user-facing reply must go out either way.
func (s *Service) recordEscalation(log *slog.Logger, session *domain.Session, text string, result domain.InteractionResult) {
	if s.escalationStore == nil {
		return
	}

	rec := &domain.EscalationRecord{
		ID:             domain.EscalationID(uuid.NewString()),
		SessionID:      session.ID,
		UserID:         session.UserID,
		CreatedAt:      s.now(),
		MessageExcerpt: excerpt(text, messageExcerptLen),
	}
	if result.Safety != nil {
		rec.RiskLevel = result.Safety.RiskLevel
		rec.Concerns = result.Safety.Concerns
	}

	if err := s.escalationStore.AppendEscalation(rec); err != nil {
		log.Error("failed to record escalation", "error", err)
	}
}

func (s *Service) GetSessionTimeline(
	ctx context.Context,
	sessionID domain.SessionID,
	limit int,
) (*domain.Session, []*domain.Message, error) {

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sessionID,
		"limit", limit,
	)

	session, err := s.sessionStore.GetSession(sessionID)
	if err != nil {
		log.Error("failed to get session", "error", err)
		return nil, nil, err
	}

	msgs, err := s.messageStore.GetMessagesBySession(sessionID, limit)
	if err != nil {
		log.Error("failed to get messages", "error", err)
		return nil, nil, err
	}

	log.Info("fetched session timeline", "message_count", len(msgs))

	return session, msgs, nil
}

// Insight accessors delegate to the orchestrator's rollups.

func (s *Service) EmotionalTrends() agentflow.EmotionalTrends {
	return s.orchestrator.EmotionalTrends()
}

func (s *Service) SafetySummary() agentflow.SafetySummary {
	return s.orchestrator.SafetySummary()
}

func (s *Service) InteractionHistory() []domain.Interaction {
	return s.orchestrator.ConversationHistory()
}

func excerpt(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
