package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

type GoalService interface {
	// GetGoals returns the stored goals, or the defaults if none were saved.
	GetGoals(ctx context.Context, session domain.Session) (*domain.UserGoals, error)
	UpsertGoals(ctx context.Context, session domain.Session, goals domain.UserGoals) (*domain.UserGoals, error)
}

type goalService struct {
	goals repository.GoalRepository
	log   zerolog.Logger
}

func NewGoalService(goals repository.GoalRepository, log zerolog.Logger) GoalService {
	return &goalService{
		goals: goals,
		log:   log.With().Str("service", "goal").Logger(),
	}
}

func (s *goalService) GetGoals(ctx context.Context, session domain.Session) (*domain.UserGoals, error) {
	return loadGoals(ctx, s.goals, session)
}

func (s *goalService) UpsertGoals(ctx context.Context, session domain.Session, goals domain.UserGoals) (*domain.UserGoals, error) {
	if goals.DailyCalories <= 0 || goals.WaterML <= 0 {
		return nil, invalid("daily calories and water target must be positive")
	}
	if goals.ProteinG < 0 || goals.CarbsG < 0 || goals.FatG < 0 {
		return nil, invalid("macro targets must be non-negative")
	}
	if goals.TargetWeightKg != nil && *goals.TargetWeightKg <= 0 {
		return nil, invalid("target weight must be positive")
	}
	goals.UserID = session.UserID
	if err := s.goals.Upsert(ctx, &goals); err != nil {
		return nil, err
	}
	return &goals, nil
}

func loadGoals(ctx context.Context, goals repository.GoalRepository, session domain.Session) (*domain.UserGoals, error) {
	g, err := goals.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			d := domain.DefaultGoals(session.UserID)
			return &d, nil
		}
		return nil, err
	}
	return g, nil
}
