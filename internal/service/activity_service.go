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

// ActivityInput describes a logged activity. An empty Date means today.
type ActivityInput struct {
	ActivityType    string
	DurationMinutes int
	CaloriesBurned  float64
	Intensity       domain.Intensity
	Date            string
	Notes           string
}

type ActivityService interface {
	LogActivity(ctx context.Context, session domain.Session, input ActivityInput) (*domain.Activity, error)
	// ListActivities returns activities with from <= date <= to. Empty bounds default to today.
	ListActivities(ctx context.Context, session domain.Session, from, to string) ([]domain.Activity, error)
	UpdateActivity(ctx context.Context, session domain.Session, id primitive.ObjectID, input ActivityInput) (*domain.Activity, error)
	DeleteActivity(ctx context.Context, session domain.Session, id primitive.ObjectID) error
}

type activityService struct {
	activities repository.ActivityRepository
	clock      Clock
	log        zerolog.Logger
}

func NewActivityService(activities repository.ActivityRepository, clock Clock, log zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		clock:      clock,
		log:        log.With().Str("service", "activity").Logger(),
	}
}

func (s *activityService) validate(input *ActivityInput) error {
	input.ActivityType = strings.TrimSpace(input.ActivityType)
	if input.ActivityType == "" {
		return invalid("activity type cannot be empty")
	}
	if input.DurationMinutes <= 0 {
		return invalid("duration must be positive")
	}
	if input.CaloriesBurned < 0 {
		return invalid("calories burned must be non-negative")
	}
	if input.Intensity != "" && !input.Intensity.Valid() {
		return invalid("unknown intensity %q", input.Intensity)
	}
	date, err := s.clock.dateOrToday(input.Date)
	if err != nil {
		return err
	}
	input.Date = date
	return nil
}

func (in ActivityInput) applyTo(a *domain.Activity) {
	a.ActivityType = in.ActivityType
	a.DurationMinutes = in.DurationMinutes
	a.CaloriesBurned = in.CaloriesBurned
	a.Intensity = in.Intensity
	a.Date = in.Date
	a.Notes = strings.TrimSpace(in.Notes)
}

func (s *activityService) LogActivity(ctx context.Context, session domain.Session, input ActivityInput) (*domain.Activity, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	a := &domain.Activity{UserID: session.UserID}
	input.applyTo(a)
	if _, err := s.activities.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *activityService) ListActivities(ctx context.Context, session domain.Session, from, to string) ([]domain.Activity, error) {
	from, err := s.clock.dateOrToday(from)
	if err != nil {
		return nil, err
	}
	to, err = s.clock.dateOrToday(to)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, invalid("from must not be after to")
	}
	list, err := s.activities.ListByRange(ctx, session.UserID, from, to)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Activity{}
	}
	return list, nil
}

func (s *activityService) UpdateActivity(ctx context.Context, session domain.Session, id primitive.ObjectID, input ActivityInput) (*domain.Activity, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	if a.UserID != session.UserID {
		return nil, ErrActivityNotFound
	}
	input.applyTo(a)
	if err := s.activities.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActivityNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *activityService) DeleteActivity(ctx context.Context, session domain.Session, id primitive.ObjectID) error {
	if err := s.activities.Delete(ctx, id, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActivityNotFound
		}
		return err
	}
	return nil
}
