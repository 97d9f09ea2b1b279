package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/havenlabs/haven-agent/internal/domain"
)

// Store implements SessionStore, MessageStore and EscalationStore on
// Firestore. Sessions own a messages subcollection; escalations live in
// their own top-level collection keyed by user.
type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store for the given project
// (HAVEN_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) sessionsCol() *firestore.CollectionRef {
	return s.client.Collection("sessions")
}

func (s *Store) sessionDocRef(id domain.SessionID) *firestore.DocumentRef {
	return s.sessionsCol().Doc(string(id))
}

func (s *Store) messagesCol(sessionID domain.SessionID) *firestore.CollectionRef {
	return s.sessionDocRef(sessionID).Collection("messages")
}

func (s *Store) escalationsCol() *firestore.CollectionRef {
	return s.client.Collection("escalations")
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type sessionDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	SessionID          string    `firestore:"session_id"`
	Author             string    `firestore:"author"`
	Text               string    `firestore:"text"`
	CreatedAt          time.Time `firestore:"created_at"`
	Tags               []string  `firestore:"tags"`
	ReplyTo            *string   `firestore:"reply_to"`
	RiskLevel          string    `firestore:"risk_level"`
	RequiresEscalation bool      `firestore:"requires_escalation"`
}

type escalationDoc struct {
	SessionID      string    `firestore:"session_id"`
	UserID         string    `firestore:"user_id"`
	CreatedAt      time.Time `firestore:"created_at"`
	RiskLevel      string    `firestore:"risk_level"`
	Concerns       []string  `firestore:"concerns"`
	MessageExcerpt string    `firestore:"message_excerpt"`
}

// ─────────────────────────────────────────
// SessionStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := sessionDoc{
		UserID:    string(session.UserID),
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	_, err := s.sessionDocRef(session.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateSession: %w", err)
	}
	return nil
}

func (s *Store) UpdateSession(session *domain.Session) error {
	ctx := context.Background()

	doc := map[string]interface{}{
		"user_id":    string(session.UserID),
		"title":      session.Title,
		"created_at": session.CreatedAt,
		"updated_at": session.UpdatedAt,
	}

	_, err := s.sessionDocRef(session.ID).Set(ctx, doc, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("firestore UpdateSession: %w", err)
	}
	return nil
}

func (s *Store) GetSession(id domain.SessionID) (*domain.Session, error) {
	ctx := context.Background()

	snap, err := s.sessionDocRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("session not found")
		}
		return nil, fmt.Errorf("firestore GetSession: %w", err)
	}

	var doc sessionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSession decode: %w", err)
	}

	return &domain.Session{
		ID:        id,
		UserID:    domain.UserID(doc.UserID),
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (s *Store) ListSessionsByUser(userID domain.UserID, limit int) ([]*domain.Session, error) {
	ctx := context.Background()

	q := s.sessionsCol().
		Where("user_id", "==", string(userID)).
		OrderBy("updated_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Session
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListSessionsByUser: %w", err)
		}

		var doc sessionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListSessionsByUser decode: %w", err)
		}

		out = append(out, &domain.Session{
			ID:        domain.SessionID(snap.Ref.ID),
			UserID:    domain.UserID(doc.UserID),
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}

	return out, nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(msg *domain.Message) error {
	ctx := context.Background()

	var replyTo *string
	if msg.ReplyTo != nil {
		v := string(*msg.ReplyTo)
		replyTo = &v
	}

	doc := messageDoc{
		SessionID:          string(msg.SessionID),
		Author:             string(msg.Author),
		Text:               msg.Text,
		CreatedAt:          msg.CreatedAt,
		Tags:               msg.Tags,
		ReplyTo:            replyTo,
		RiskLevel:          string(msg.RiskLevel),
		RequiresEscalation: msg.RequiresEscalation,
	}

	_, err := s.messagesCol(msg.SessionID).Doc(string(msg.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesBySession(sessionID domain.SessionID, limit int) ([]*domain.Message, error) {
	ctx := context.Background()

	q := s.messagesCol(sessionID).OrderBy("created_at", firestore.Asc)

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Message
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore GetMessagesBySession: %w", err)
		}

		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore GetMessagesBySession decode: %w", err)
		}

		var replyTo *domain.MessageID
		if doc.ReplyTo != nil {
			v := domain.MessageID(*doc.ReplyTo)
			replyTo = &v
		}

		out = append(out, &domain.Message{
			ID:                 domain.MessageID(snap.Ref.ID),
			SessionID:          sessionID,
			Author:             domain.Role(doc.Author),
			Text:               doc.Text,
			CreatedAt:          doc.CreatedAt,
			Tags:               doc.Tags,
			ReplyTo:            replyTo,
			RiskLevel:          domain.RiskLevel(doc.RiskLevel),
			RequiresEscalation: doc.RequiresEscalation,
		})
	}

	// The query is ascending; the tail holds the most recent messages.
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	return out, nil
}

// ─────────────────────────────────────────
// EscalationStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendEscalation(rec *domain.EscalationRecord) error {
	ctx := context.Background()

	doc := escalationDoc{
		SessionID:      string(rec.SessionID),
		UserID:         string(rec.UserID),
		CreatedAt:      rec.CreatedAt,
		RiskLevel:      string(rec.RiskLevel),
		Concerns:       rec.Concerns,
		MessageExcerpt: rec.MessageExcerpt,
	}

	_, err := s.escalationsCol().Doc(string(rec.ID)).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendEscalation: %w", err)
	}
	return nil
}

func (s *Store) ListEscalationsByUser(userID domain.UserID, limit int) ([]*domain.EscalationRecord, error) {
	ctx := context.Background()

	q := s.escalationsCol().
		Where("user_id", "==", string(userID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.EscalationRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListEscalationsByUser: %w", err)
		}

		var doc escalationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("firestore ListEscalationsByUser decode: %w", err)
		}

		out = append(out, &domain.EscalationRecord{
			ID:             domain.EscalationID(snap.Ref.ID),
			SessionID:      domain.SessionID(doc.SessionID),
			UserID:         domain.UserID(doc.UserID),
			CreatedAt:      doc.CreatedAt,
			RiskLevel:      domain.RiskLevel(doc.RiskLevel),
			Concerns:       doc.Concerns,
			MessageExcerpt: doc.MessageExcerpt,
		})
	}

	return out, nil
}
