package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// AppointmentInput describes a session to schedule.
type AppointmentInput struct {
	ClientID        primitive.ObjectID
	Title           string
	Description     string
	ScheduledAt     time.Time
	DurationMinutes int
}

type AppointmentService interface {
	CreateAppointment(ctx context.Context, session domain.Session, input AppointmentInput) (*domain.Appointment, error)
	// ListAppointments returns the caller's appointments ordered by start time.
	ListAppointments(ctx context.Context, session domain.Session) ([]domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, session domain.Session, id primitive.ObjectID, status domain.AppointmentStatus) (*domain.Appointment, error)
	DeleteAppointment(ctx context.Context, session domain.Session, id primitive.ObjectID) error
}

type appointmentService struct {
	profiles     repository.ProfileRepository
	connections  repository.ConnectionRepository
	appointments repository.AppointmentRepository
	log          zerolog.Logger
}

func NewAppointmentService(profiles repository.ProfileRepository, connections repository.ConnectionRepository, appointments repository.AppointmentRepository, log zerolog.Logger) AppointmentService {
	return &appointmentService{
		profiles:     profiles,
		connections:  connections,
		appointments: appointments,
		log:          log.With().Str("service", "appointment").Logger(),
	}
}

func (s *appointmentService) CreateAppointment(ctx context.Context, session domain.Session, input AppointmentInput) (*domain.Appointment, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title cannot be empty")
	}
	if input.DurationMinutes <= 0 {
		return nil, invalid("duration must be positive")
	}
	if input.ScheduledAt.IsZero() {
		return nil, invalid("scheduled time is required")
	}

	client, err := s.profiles.GetByID(ctx, input.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotAClient
	}
	if err := s.requireBookableConnection(ctx, session.UserID, client.ID); err != nil {
		return nil, err
	}

	appt := &domain.Appointment{
		ProfessionalID:  session.UserID,
		ClientID:        client.ID,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		ScheduledAt:     input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Status:          domain.AppointmentScheduled,
	}
	if _, err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	s.log.Info().Str("appointment_id", appt.ID.Hex()).Time("scheduled_at", appt.ScheduledAt).Msg("appointment scheduled")
	return appt, nil
}

func (s *appointmentService) ListAppointments(ctx context.Context, session domain.Session) ([]domain.Appointment, error) {
	var (
		appts []domain.Appointment
		err   error
	)
	if session.IsProfessional() {
		appts, err = s.appointments.ListByProfessional(ctx, session.UserID)
	} else {
		appts, err = s.appointments.ListByClient(ctx, session.UserID)
	}
	if err != nil {
		return nil, err
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	return appts, nil
}

func (s *appointmentService) UpdateAppointmentStatus(ctx context.Context, session domain.Session, id primitive.ObjectID, status domain.AppointmentStatus) (*domain.Appointment, error) {
	if !status.Valid() {
		return nil, invalid("unknown appointment status %q", status)
	}
	appt, err := s.ownAppointment(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	appt.Status = status
	return appt, nil
}

func (s *appointmentService) DeleteAppointment(ctx context.Context, session domain.Session, id primitive.ObjectID) error {
	if _, err := s.ownAppointment(ctx, session, id); err != nil {
		return err
	}
	if err := s.appointments.Delete(ctx, id, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}
	return nil
}

func (s *appointmentService) ownAppointment(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Appointment, error) {
	if !session.IsProfessional() {
		return nil, ErrNotProfessional
	}
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if appt.ProfessionalID != session.UserID {
		return nil, ErrForbidden
	}
	return appt, nil
}

// requireBookableConnection allows booking with clients the professional is
// connected to, including a pending invite awaiting its first session.
func (s *appointmentService) requireBookableConnection(ctx context.Context, professionalID, clientID primitive.ObjectID) error {
	conn, err := s.connections.GetByPair(ctx, clientID, professionalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoAccess
		}
		return err
	}
	switch conn.Status {
	case domain.ConnectionActive, domain.ConnectionPending:
		return nil
	}
	return ErrNoAccess
}
