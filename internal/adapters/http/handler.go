package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/havenlabs/haven-agent/internal/app/conversation"
	"github.com/havenlabs/haven-agent/internal/app/escalation"
	"github.com/havenlabs/haven-agent/internal/domain"
)

type Server struct {
	convSvc *conversation.Service
	escSvc  *escalation.Service
}

// NewServer builds the HTTP surface. metricsHandler is mounted at /metrics
// when non-nil (Prometheus exposition); pass nil to disable.
func NewServer(convSvc *conversation.Service, escSvc *escalation.Service, metricsHandler http.Handler) http.Handler {
	s := &Server{convSvc: convSvc, escSvc: escSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)

	// /sessions → create session (POST)
	mux.HandleFunc("/sessions", s.handleSessions)

	// /sessions/{id}          →  GET: get session + messages
	// /sessions/{id}/messages → POST: send message
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	// Orchestrator rollups
	mux.HandleFunc("/insights/trends", s.handleTrends)
	mux.HandleFunc("/insights/safety", s.handleSafetySummary)
	mux.HandleFunc("/insights/history", s.handleInteractionHistory)

	mux.HandleFunc("/escalations", s.handleEscalations)

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type createSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title,omitempty"`
}

type createSessionResponse struct {
	Session sessionResponse  `json:"session"`
	Welcome *messageResponse `json:"welcome_message,omitempty"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageResponse struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Author             string    `json:"author"`
	Text               string    `json:"text"`
	CreatedAt          time.Time `json:"created_at"`
	RiskLevel          string    `json:"risk_level,omitempty"`
	RequiresEscalation bool      `json:"requires_escalation,omitempty"`
}

type sendMessageRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type analysisResponse struct {
	PrimaryEmotion     string `json:"primary_emotion,omitempty"`
	Intensity          int    `json:"intensity,omitempty"`
	RiskLevel          string `json:"risk_level,omitempty"`
	RequiresEscalation bool   `json:"requires_escalation"`
	Degraded           bool   `json:"degraded"`
}

type sendMessageResponse struct {
	UserMessage  messageResponse  `json:"user_message"`
	AgentMessage messageResponse  `json:"agent_message"`
	Analysis     analysisResponse `json:"analysis"`
}

type getSessionResponse struct {
	Session  sessionResponse   `json:"session"`
	Messages []messageResponse `json:"messages"`
}

type escalationsResponse struct {
	Escalations []*domain.EscalationRecord `json:"escalations"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /sessions/{id} or /sessions/{id}/messages
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, domain.SessionID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "messages" {
		switch r.Method {
		case http.MethodPost:
			s.handleSendMessage(w, r, domain.SessionID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	out, err := s.convSvc.StartSession(
		r.Context(),
		conversation.StartSessionInput{
			UserID: domain.UserID(req.UserID),
			Title:  req.Title,
		},
	)
	if err != nil {
		internalError(w, err)
		return
	}

	// The welcome message is the most recent (only) agent message so far.
	_, msgs, err := s.convSvc.GetSessionTimeline(r.Context(), out.Session.ID, 5)
	if err != nil {
		internalError(w, err)
		return
	}

	var welcome *messageResponse
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		if last.Author == domain.RoleAgent {
			m := toMessageResponse(last)
			welcome = &m
		}
	}

	resp := createSessionResponse{
		Session: toSessionResponse(out.Session),
		Welcome: welcome,
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	session, msgs, err := s.convSvc.GetSessionTimeline(r.Context(), id, 0)
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	resp := getSessionResponse{
		Session:  toSessionResponse(session),
		Messages: toMessagesResponse(msgs),
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID domain.SessionID) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	out, err := s.convSvc.SendMessage(
		r.Context(),
		conversation.SendMessageInput{
			SessionID: sessionID,
			UserID:    domain.UserID(req.UserID),
			Text:      req.Text,
		},
	)
	if err != nil {
		if isNotFound(err) {
			http.NotFound(w, r)
			return
		}
		internalError(w, err)
		return
	}

	analysis := analysisResponse{
		RequiresEscalation: out.Result.RequiresEscalation,
		Degraded:           out.Result.Degraded(),
	}
	if out.Result.Emotion != nil {
		analysis.PrimaryEmotion = out.Result.Emotion.PrimaryEmotion
		analysis.Intensity = out.Result.Emotion.Intensity
	}
	if out.Result.Safety != nil {
		analysis.RiskLevel = string(out.Result.Safety.RiskLevel)
	}

	resp := sendMessageResponse{
		UserMessage:  toMessageResponse(out.UserMessage),
		AgentMessage: toMessageResponse(out.AgentMessage),
		Analysis:     analysis,
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.convSvc.EmotionalTrends())
}

func (s *Server) handleSafetySummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.convSvc.SafetySummary())
}

func (s *Server) handleInteractionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"interactions": s.convSvc.InteractionHistory(),
	})
}

func (s *Server) handleEscalations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	recs, err := s.escSvc.ListUserEscalations(r.Context(), domain.UserID(userID), 0)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, escalationsResponse{Escalations: recs})
}

// ─────────────────────────────────────────────
// Conversation Helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	return sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:                 string(m.ID),
		SessionID:          string(m.SessionID),
		Author:             string(m.Author),
		Text:               m.Text,
		CreatedAt:          m.CreatedAt,
		RiskLevel:          string(m.RiskLevel),
		RequiresEscalation: m.RequiresEscalation,
	}
}

func toMessagesResponse(msgs []*domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
