package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// WaterDay is a day's water logs and their sum.
type WaterDay struct {
	Date    string
	TotalML int
	Logs    []domain.WaterIntake
}

type WaterService interface {
	LogWater(ctx context.Context, session domain.Session, amountML int, date string) (*domain.WaterIntake, error)
	ListWater(ctx context.Context, session domain.Session, date string) (*WaterDay, error)
	DeleteWater(ctx context.Context, session domain.Session, id primitive.ObjectID) error
}

type waterService struct {
	water repository.WaterRepository
	clock Clock
	log   zerolog.Logger
}

func NewWaterService(water repository.WaterRepository, clock Clock, log zerolog.Logger) WaterService {
	return &waterService{
		water: water,
		clock: clock,
		log:   log.With().Str("service", "water").Logger(),
	}
}

func (s *waterService) LogWater(ctx context.Context, session domain.Session, amountML int, date string) (*domain.WaterIntake, error) {
	if amountML <= 0 {
		return nil, invalid("amount must be positive")
	}
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	w := &domain.WaterIntake{UserID: session.UserID, AmountML: amountML, Date: date}
	if _, err := s.water.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *waterService) ListWater(ctx context.Context, session domain.Session, date string) (*WaterDay, error) {
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	logs, err := s.water.ListByDate(ctx, session.UserID, date)
	if err != nil {
		return nil, err
	}
	day := &WaterDay{Date: date, Logs: logs}
	if day.Logs == nil {
		day.Logs = []domain.WaterIntake{}
	}
	for _, w := range logs {
		day.TotalML += w.AmountML
	}
	return day, nil
}

func (s *waterService) DeleteWater(ctx context.Context, session domain.Session, id primitive.ObjectID) error {
	if err := s.water.Delete(ctx, id, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWaterNotFound
		}
		return err
	}
	return nil
}
