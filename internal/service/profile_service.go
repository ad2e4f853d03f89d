package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// ProfileUpdate carries the settings a user may change. Nil fields are left as they are.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
}

type ProfileService interface {
	GetProfile(ctx context.Context, session domain.Session) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, session domain.Session, update ProfileUpdate) (*domain.Profile, error)
}

type profileService struct {
	profiles repository.ProfileRepository
	log      zerolog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, log zerolog.Logger) ProfileService {
	return &profileService{
		profiles: profiles,
		log:      log.With().Str("service", "profile").Logger(),
	}
}

func (s *profileService) GetProfile(ctx context.Context, session domain.Session) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	p.PasswordHash = ""
	return p, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, session domain.Session, update ProfileUpdate) (*domain.Profile, error) {
	p, err := s.GetProfile(ctx, session)
	if err != nil {
		return nil, err
	}
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, invalid("full name cannot be empty")
		}
		p.FullName = name
	}
	if update.Phone != nil {
		p.Phone = strings.TrimSpace(*update.Phone)
	}

	if err := s.profiles.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}
