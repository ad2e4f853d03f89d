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
	"nutritrack/app/internal/storage"
)

// ClientNutritionDays is how many days ClientNutrition covers, today included.
const ClientNutritionDays = 30

// EntryInput is the nutrition snapshot of a logged food.
type EntryInput struct {
	FoodName string
	Quantity float64
	Unit     string
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
	Fiber    float64
}

func (in EntryInput) validate() error {
	if strings.TrimSpace(in.FoodName) == "" {
		return invalid("food name cannot be empty")
	}
	if in.Quantity < 0 || in.Calories < 0 || in.Protein < 0 || in.Carbs < 0 || in.Fat < 0 || in.Fiber < 0 {
		return invalid("quantity and macros must be non-negative")
	}
	return nil
}

func (in EntryInput) applyTo(e *domain.MealEntry) {
	e.FoodName = strings.TrimSpace(in.FoodName)
	e.Quantity = in.Quantity
	e.Unit = strings.TrimSpace(in.Unit)
	e.Calories = in.Calories
	e.Protein = in.Protein
	e.Carbs = in.Carbs
	e.Fat = in.Fat
	e.Fiber = in.Fiber
}

// PhotoUpload is a presigned PUT target for a meal entry photo.
type PhotoUpload struct {
	UploadURL   string
	ObjectKey   string
	ContentType string
	ExpiresAt   time.Time
}

type NutritionService interface {
	CreateMeal(ctx context.Context, session domain.Session, mealType domain.MealType, name, date string) (*domain.Meal, error)
	ListMeals(ctx context.Context, session domain.Session, date string) ([]domain.Meal, error)
	DeleteMeal(ctx context.Context, session domain.Session, mealID primitive.ObjectID) error

	AddEntry(ctx context.Context, session domain.Session, mealID primitive.ObjectID, input EntryInput) (*domain.MealEntry, error)
	ListEntries(ctx context.Context, session domain.Session, date string) ([]domain.MealEntry, error)
	UpdateEntry(ctx context.Context, session domain.Session, entryID primitive.ObjectID, input EntryInput) (*domain.MealEntry, error)
	DeleteEntry(ctx context.Context, session domain.Session, entryID primitive.ObjectID) error

	DailySummary(ctx context.Context, session domain.Session, date string) (domain.DailyNutrition, error)
	// ClientNutrition returns the last 30 days of a client's intake grouped
	// by day. The caller needs an active connection with the client.
	ClientNutrition(ctx context.Context, session domain.Session, clientID primitive.ObjectID) ([]domain.DailyNutrition, error)

	RequestEntryPhotoUpload(ctx context.Context, session domain.Session, entryID primitive.ObjectID, contentType string) (*PhotoUpload, error)
	EntryPhotoURL(ctx context.Context, session domain.Session, entryID primitive.ObjectID) (string, error)
}

type nutritionService struct {
	meals       repository.MealRepository
	connections repository.ConnectionRepository
	storage     storage.FileStorage
	clock       Clock
	log         zerolog.Logger
}

func NewNutritionService(meals repository.MealRepository, connections repository.ConnectionRepository, fileStorage storage.FileStorage, clock Clock, log zerolog.Logger) NutritionService {
	return &nutritionService{
		meals:       meals,
		connections: connections,
		storage:     fileStorage,
		clock:       clock,
		log:         log.With().Str("service", "nutrition").Logger(),
	}
}

// --- Meals ---

func (s *nutritionService) CreateMeal(ctx context.Context, session domain.Session, mealType domain.MealType, name, date string) (*domain.Meal, error) {
	if !mealType.Valid() {
		return nil, invalid("unknown meal type %q", mealType)
	}
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	meal := &domain.Meal{
		UserID:   session.UserID,
		MealType: mealType,
		Name:     strings.TrimSpace(name),
		Date:     date,
	}
	if _, err := s.meals.CreateMeal(ctx, meal); err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *nutritionService) ListMeals(ctx context.Context, session domain.Session, date string) ([]domain.Meal, error) {
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	meals, err := s.meals.ListMeals(ctx, session.UserID, date)
	if err != nil {
		return nil, err
	}
	if meals == nil {
		meals = []domain.Meal{}
	}
	return meals, nil
}

func (s *nutritionService) DeleteMeal(ctx context.Context, session domain.Session, mealID primitive.ObjectID) error {
	if _, err := s.ownMeal(ctx, session, mealID); err != nil {
		return err
	}
	// Keys are read first; the entries are gone after the delete.
	photoKeys, err := s.meals.MealPhotoKeys(ctx, mealID, session.UserID)
	if err != nil {
		return err
	}
	if err := s.meals.DeleteMeal(ctx, mealID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrMealNotFound
		}
		return err
	}
	for _, key := range photoKeys {
		s.removePhoto(ctx, key)
	}
	return nil
}

func (s *nutritionService) ownMeal(ctx context.Context, session domain.Session, mealID primitive.ObjectID) (*domain.Meal, error) {
	meal, err := s.meals.GetMeal(ctx, mealID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}
	if meal.UserID != session.UserID {
		return nil, ErrMealNotFound
	}
	return meal, nil
}

// --- Entries ---

// AddEntry logs a food into one of the caller's meals, on the meal's date.
func (s *nutritionService) AddEntry(ctx context.Context, session domain.Session, mealID primitive.ObjectID, input EntryInput) (*domain.MealEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	meal, err := s.ownMeal(ctx, session, mealID)
	if err != nil {
		return nil, err
	}

	entry := &domain.MealEntry{
		UserID: session.UserID,
		MealID: meal.ID,
		Date:   meal.Date,
	}
	input.applyTo(entry)
	if _, err := s.meals.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *nutritionService) ListEntries(ctx context.Context, session domain.Session, date string) ([]domain.MealEntry, error) {
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return nil, err
	}
	entries, err := s.meals.ListEntries(ctx, session.UserID, date, date)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.MealEntry{}
	}
	return entries, nil
}

func (s *nutritionService) UpdateEntry(ctx context.Context, session domain.Session, entryID primitive.ObjectID, input EntryInput) (*domain.MealEntry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	entry, err := s.ownEntry(ctx, session, entryID)
	if err != nil {
		return nil, err
	}
	input.applyTo(entry)
	if err := s.meals.UpdateEntry(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (s *nutritionService) DeleteEntry(ctx context.Context, session domain.Session, entryID primitive.ObjectID) error {
	entry, err := s.ownEntry(ctx, session, entryID)
	if err != nil {
		return err
	}
	if err := s.meals.DeleteEntry(ctx, entryID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	if entry.HasPhoto() {
		s.removePhoto(ctx, entry.PhotoKey)
	}
	return nil
}

func (s *nutritionService) ownEntry(ctx context.Context, session domain.Session, entryID primitive.ObjectID) (*domain.MealEntry, error) {
	entry, err := s.meals.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.UserID != session.UserID {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

// --- Aggregation ---

func (s *nutritionService) DailySummary(ctx context.Context, session domain.Session, date string) (domain.DailyNutrition, error) {
	date, err := s.clock.dateOrToday(date)
	if err != nil {
		return domain.DailyNutrition{}, err
	}
	entries, err := s.meals.ListEntries(ctx, session.UserID, date, date)
	if err != nil {
		return domain.DailyNutrition{}, err
	}
	return domain.SummarizeDay(date, entries), nil
}

func (s *nutritionService) ClientNutrition(ctx context.Context, session domain.Session, clientID primitive.ObjectID) ([]domain.DailyNutrition, error) {
	if !session.IsProfessional() {
		return nil, ErrNoAccess
	}
	if err := requireActiveConnection(ctx, s.connections, session.UserID, clientID); err != nil {
		return nil, err
	}

	from, to := domain.DayWindow(s.clock.now(), ClientNutritionDays)
	entries, err := s.meals.ListEntries(ctx, clientID, from, to)
	if err != nil {
		return nil, err
	}
	return domain.AggregateDaily(entries), nil
}

// --- Photos ---

// RequestEntryPhotoUpload records a fresh object key on the entry and
// returns a presigned PUT for it. A previous photo is removed.
func (s *nutritionService) RequestEntryPhotoUpload(ctx context.Context, session domain.Session, entryID primitive.ObjectID, contentType string) (*PhotoUpload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !storage.IsSupportedImage(contentType) {
		return nil, invalid("unsupported photo content type %q", contentType)
	}
	entry, err := s.ownEntry(ctx, session, entryID)
	if err != nil {
		return nil, err
	}

	key := storage.MealPhotoKey(session.UserID.Hex(), entry.ID.Hex(), contentType)
	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.log.Error().Err(err).Str("entry_id", entry.ID.Hex()).Msg("failed to presign photo upload")
		return nil, ErrUploadURLError
	}
	if err := s.meals.SetEntryPhoto(ctx, entry.ID, session.UserID, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	if entry.HasPhoto() {
		s.removePhoto(ctx, entry.PhotoKey)
	}

	return &PhotoUpload{
		UploadURL:   url,
		ObjectKey:   key,
		ContentType: contentType,
		ExpiresAt:   s.clock.now().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

func (s *nutritionService) EntryPhotoURL(ctx context.Context, session domain.Session, entryID primitive.ObjectID) (string, error) {
	entry, err := s.ownEntry(ctx, session, entryID)
	if err != nil {
		return "", err
	}
	if !entry.HasPhoto() {
		return "", ErrPhotoNotFound
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, entry.PhotoKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.log.Error().Err(err).Str("entry_id", entry.ID.Hex()).Msg("failed to presign photo download")
		return "", ErrDownloadURLError
	}
	return url, nil
}

// removePhoto deletes an object that is no longer referenced. Failures
// leave an orphan in the bucket and are only logged.
func (s *nutritionService) removePhoto(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to remove unreferenced photo")
	}
}
