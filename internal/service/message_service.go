package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// PatchPublisher receives thread changes made through the service.
// realtime.Hub implements it.
type PatchPublisher interface {
	Publish(patch domain.MessagePatch)
}

type MessageService interface {
	ListMessages(ctx context.Context, session domain.Session, connectionID primitive.ObjectID) ([]domain.ClientMessage, error)
	SendMessage(ctx context.Context, session domain.Session, connectionID, recipientID primitive.ObjectID, text string) (*domain.ClientMessage, error)
	MarkAsRead(ctx context.Context, session domain.Session, messageID primitive.ObjectID) (*domain.ClientMessage, error)
	UnreadCount(ctx context.Context, session domain.Session) (int64, error)
	// AuthorizeThread checks the caller may watch a connection's thread.
	AuthorizeThread(ctx context.Context, session domain.Session, connectionID primitive.ObjectID) error
}

type messageService struct {
	connections repository.ConnectionRepository
	messages    repository.MessageRepository
	publisher   PatchPublisher
	log         zerolog.Logger
}

// NewMessageService wires the message service. publisher may be nil when
// patches come from a database change stream instead.
func NewMessageService(connections repository.ConnectionRepository, messages repository.MessageRepository, publisher PatchPublisher, log zerolog.Logger) MessageService {
	return &messageService{
		connections: connections,
		messages:    messages,
		publisher:   publisher,
		log:         log.With().Str("service", "message").Logger(),
	}
}

func (s *messageService) ListMessages(ctx context.Context, session domain.Session, connectionID primitive.ObjectID) ([]domain.ClientMessage, error) {
	if _, err := partyConnection(ctx, s.connections, session, connectionID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConnection(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.ClientMessage{}
	}
	return msgs, nil
}

func (s *messageService) SendMessage(ctx context.Context, session domain.Session, connectionID, recipientID primitive.ObjectID, text string) (*domain.ClientMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conn, err := partyConnection(ctx, s.connections, session, connectionID)
	if err != nil {
		return nil, err
	}
	if recipientID != conn.Counterpart(session.UserID) {
		return nil, ErrInvalidRecipient
	}

	msg := &domain.ClientMessage{
		ConnectionID: connectionID,
		SenderID:     session.UserID,
		RecipientID:  recipientID,
		Message:      text,
	}
	if _, err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.publish(domain.PatchInsert, msg)
	return msg, nil
}

func (s *messageService) MarkAsRead(ctx context.Context, session domain.Session, messageID primitive.ObjectID) (*domain.ClientMessage, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.RecipientID != session.UserID {
		return nil, ErrForbidden
	}
	if msg.IsRead() {
		return msg, nil
	}

	updated, err := s.messages.MarkRead(ctx, messageID, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	s.publish(domain.PatchUpdate, updated)
	return updated, nil
}

func (s *messageService) UnreadCount(ctx context.Context, session domain.Session) (int64, error) {
	return s.messages.CountUnread(ctx, session.UserID)
}

func (s *messageService) AuthorizeThread(ctx context.Context, session domain.Session, connectionID primitive.ObjectID) error {
	_, err := partyConnection(ctx, s.connections, session, connectionID)
	return err
}

func (s *messageService) publish(op domain.PatchOp, msg *domain.ClientMessage) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(domain.MessagePatch{
		Op:           op,
		ConnectionID: msg.ConnectionID,
		ID:           msg.ID,
		Message:      msg,
	})
}
