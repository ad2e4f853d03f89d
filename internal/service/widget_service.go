package service

import (
	"context"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// WidgetService feeds the home-screen widget.
type WidgetService interface {
	WidgetSnapshot(ctx context.Context, session domain.Session) (*domain.WidgetSnapshot, error)
}

type widgetService struct {
	meals repository.MealRepository
	goals repository.GoalRepository
	clock Clock
}

func NewWidgetService(meals repository.MealRepository, goals repository.GoalRepository, clock Clock) WidgetService {
	return &widgetService{meals: meals, goals: goals, clock: clock}
}

func (s *widgetService) WidgetSnapshot(ctx context.Context, session domain.Session) (*domain.WidgetSnapshot, error) {
	today := s.clock.today()
	entries, err := s.meals.ListEntries(ctx, session.UserID, today, today)
	if err != nil {
		return nil, err
	}
	goals, err := loadGoals(ctx, s.goals, session)
	if err != nil {
		return nil, err
	}
	day := domain.SummarizeDay(today, entries)
	return &domain.WidgetSnapshot{
		Calories: day.TotalCalories,
		Target:   goals.DailyCalories,
		Date:     today,
	}, nil
}
