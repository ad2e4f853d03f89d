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

// NoteUpdate carries editable note fields. Nil fields are left as they are.
type NoteUpdate struct {
	NoteType *domain.NoteType
	Content  *string
	Date     *string
}

type NoteService interface {
	ListNotes(ctx context.Context, session domain.Session, clientID primitive.ObjectID) ([]domain.ClientNote, error)
	CreateNote(ctx context.Context, session domain.Session, connectionID primitive.ObjectID, noteType domain.NoteType, content, date string) (*domain.ClientNote, error)
	UpdateNote(ctx context.Context, session domain.Session, noteID primitive.ObjectID, update NoteUpdate) (*domain.ClientNote, error)
	DeleteNote(ctx context.Context, session domain.Session, noteID primitive.ObjectID) error
}

type noteService struct {
	connections repository.ConnectionRepository
	notes       repository.NoteRepository
	clock       Clock
	log         zerolog.Logger
}

func NewNoteService(connections repository.ConnectionRepository, notes repository.NoteRepository, clock Clock, log zerolog.Logger) NoteService {
	return &noteService{
		connections: connections,
		notes:       notes,
		clock:       clock,
		log:         log.With().Str("service", "note").Logger(),
	}
}

// ListNotes returns only the notes the caller wrote about the client.
func (s *noteService) ListNotes(ctx context.Context, session domain.Session, clientID primitive.ObjectID) ([]domain.ClientNote, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	notes, err := s.notes.ListByProfessionalAndClient(ctx, session.UserID, clientID)
	if err != nil {
		return nil, err
	}
	if notes == nil {
		notes = []domain.ClientNote{}
	}
	return notes, nil
}

func (s *noteService) CreateNote(ctx context.Context, session domain.Session, connectionID primitive.ObjectID, noteType domain.NoteType, content, date string) (*domain.ClientNote, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	if noteType == "" {
		noteType = domain.NoteGeneral
	}
	if !noteType.Valid() {
		return nil, invalid("unknown note type %q", noteType)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("note content cannot be empty")
	}
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}

	conn, err := partyConnection(ctx, s.connections, session, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ProfessionalID != session.UserID {
		return nil, ErrForbidden
	}

	note := &domain.ClientNote{
		ProfessionalID: session.UserID,
		ClientID:       conn.ClientID,
		ConnectionID:   conn.ID,
		NoteType:       noteType,
		Content:        content,
		Date:           date,
	}
	if _, err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *noteService) UpdateNote(ctx context.Context, session domain.Session, noteID primitive.ObjectID, update NoteUpdate) (*domain.ClientNote, error) {
	note, err := s.ownNote(ctx, session, noteID)
	if err != nil {
		return nil, err
	}
	if update.NoteType != nil {
		if !update.NoteType.Valid() {
			return nil, invalid("unknown note type %q", *update.NoteType)
		}
		note.NoteType = *update.NoteType
	}
	if update.Content != nil {
		content := strings.TrimSpace(*update.Content)
		if content == "" {
			return nil, invalid("note content cannot be empty")
		}
		note.Content = content
	}
	if update.Date != nil {
		if !domain.ValidDate(*update.Date) {
			return nil, invalid("date must be formatted YYYY-MM-DD")
		}
		note.Date = *update.Date
	}

	if err := s.notes.Update(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return note, nil
}

func (s *noteService) DeleteNote(ctx context.Context, session domain.Session, noteID primitive.ObjectID) error {
	if _, err := s.ownNote(ctx, session, noteID); err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, noteID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}

// ownNote loads a note written by the caller. Notes by other authors are
// reported as missing so their existence is not revealed.
func (s *noteService) ownNote(ctx context.Context, session domain.Session, noteID primitive.ObjectID) (*domain.ClientNote, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	note, err := s.notes.GetByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	if note.ProfessionalID != session.UserID {
		return nil, ErrNoteNotFound
	}
	return note, nil
}
