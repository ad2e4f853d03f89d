package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

type ConnectionService interface {
	// ListConnections returns the caller's connections, newest first, each
	// joined with the other party's profile.
	ListConnections(ctx context.Context, session domain.Session) ([]domain.ConnectionWithProfile, error)
	CreateConnection(ctx context.Context, session domain.Session, clientEmail string, connType domain.ConnectionType, notes string) (*domain.ClientConnection, error)
	UpdateConnectionStatus(ctx context.Context, session domain.Session, connectionID primitive.ObjectID, status domain.ConnectionStatus) (*domain.ClientConnection, error)
}

type connectionService struct {
	profiles    repository.ProfileRepository
	connections repository.ConnectionRepository
	clock       Clock
	log         zerolog.Logger
}

func NewConnectionService(profiles repository.ProfileRepository, connections repository.ConnectionRepository, clock Clock, log zerolog.Logger) ConnectionService {
	return &connectionService{
		profiles:    profiles,
		connections: connections,
		clock:       clock,
		log:         log.With().Str("service", "connection").Logger(),
	}
}

func (s *connectionService) ListConnections(ctx context.Context, session domain.Session) ([]domain.ConnectionWithProfile, error) {
	var (
		rows []domain.ClientConnection
		err  error
	)
	if session.IsProfessional() {
		rows, err = s.connections.ListByProfessional(ctx, session.UserID)
	} else {
		rows, err = s.connections.ListByClient(ctx, session.UserID)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []domain.ConnectionWithProfile{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].Counterpart(session.UserID))
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*domain.Profile, len(profiles))
	for i := range profiles {
		profiles[i].PasswordHash = ""
		byID[profiles[i].ID] = &profiles[i]
	}

	out := make([]domain.ConnectionWithProfile, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ConnectionWithProfile{
			ClientConnection: row,
			Counterpart:      byID[row.Counterpart(session.UserID)],
		})
	}
	return out, nil
}

func (s *connectionService) CreateConnection(ctx context.Context, session domain.Session, clientEmail string, connType domain.ConnectionType, notes string) (*domain.ClientConnection, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	if connType == "" {
		connType = domain.ConnectionFullSupport
	}
	if !connType.Valid() {
		return nil, invalid("unknown connection type %q", connType)
	}
	email := domain.NormalizeEmail(clientEmail)
	if email == "" {
		return nil, invalid("client email cannot be empty")
	}

	client, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotAClient
	}

	_, err = s.connections.GetByPair(ctx, client.ID, session.UserID)
	if err == nil {
		return nil, ErrConnectionExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	conn := &domain.ClientConnection{
		ClientID:       client.ID,
		ProfessionalID: session.UserID,
		ConnectionType: connType,
		Status:         domain.ConnectionPending,
		StartDate:      s.clock.today(),
		Notes:          notes,
	}
	if _, err := s.connections.Create(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConnectionExists
		}
		return nil, err
	}

	s.log.Info().
		Str("connection_id", conn.ID.Hex()).
		Str("professional_id", session.UserID.Hex()).
		Str("client_id", client.ID.Hex()).
		Msg("connection created")
	return conn, nil
}

func (s *connectionService) UpdateConnectionStatus(ctx context.Context, session domain.Session, connectionID primitive.ObjectID, status domain.ConnectionStatus) (*domain.ClientConnection, error) {
	if !status.Valid() {
		return nil, invalid("unknown connection status %q", status)
	}
	conn, err := partyConnection(ctx, s.connections, session, connectionID)
	if err != nil {
		return nil, err
	}

	if err := s.connections.UpdateStatus(ctx, connectionID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	s.log.Info().
		Str("connection_id", connectionID.Hex()).
		Str("from", string(conn.Status)).
		Str("to", string(status)).
		Msg("connection status changed")

	conn.Status = status
	conn.UpdatedAt = s.clock.now()
	return conn, nil
}

// partyConnection loads a connection the caller is a party to.
func partyConnection(ctx context.Context, connections repository.ConnectionRepository, session domain.Session, id primitive.ObjectID) (*domain.ClientConnection, error) {
	conn, err := connections.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	if !conn.HasParty(session.UserID) {
		return nil, ErrForbidden
	}
	return conn, nil
}

// requireActiveConnection succeeds only if the professional has an active
// connection with the client. Historical or paused links grant nothing.
func requireActiveConnection(ctx context.Context, connections repository.ConnectionRepository, professionalID, clientID primitive.ObjectID) error {
	conn, err := connections.GetByPair(ctx, clientID, professionalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoAccess
		}
		return err
	}
	if conn.Status != domain.ConnectionActive {
		return ErrNoAccess
	}
	return nil
}
