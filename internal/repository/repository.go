package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileRepository stores identity records.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
}

// ConnectionRepository stores client/professional connections.
type ConnectionRepository interface {
	Create(ctx context.Context, c *domain.ClientConnection) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientConnection, error)
	GetByPair(ctx context.Context, clientID, professionalID primitive.ObjectID) (*domain.ClientConnection, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientConnection, error)
	ListByProfessional(ctx context.Context, professionalID primitive.ObjectID) ([]domain.ClientConnection, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ConnectionStatus) error
}

// MessageRepository stores connection threads.
type MessageRepository interface {
	Create(ctx context.Context, m *domain.ClientMessage) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientMessage, error)
	ListByConnection(ctx context.Context, connectionID primitive.ObjectID) ([]domain.ClientMessage, error)
	// MarkRead sets readAt on an unread message and returns the stored row.
	MarkRead(ctx context.Context, id primitive.ObjectID, recipientID primitive.ObjectID) (*domain.ClientMessage, error)
	CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

// NoteRepository stores professionals' notes on clients.
type NoteRepository interface {
	Create(ctx context.Context, n *domain.ClientNote) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientNote, error)
	ListByProfessionalAndClient(ctx context.Context, professionalID, clientID primitive.ObjectID) ([]domain.ClientNote, error)
	Update(ctx context.Context, n *domain.ClientNote) error
	Delete(ctx context.Context, id, professionalID primitive.ObjectID) error
}

// AppointmentRepository stores scheduled sessions.
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error)
	ListByProfessional(ctx context.Context, professionalID primitive.ObjectID) ([]domain.Appointment, error)
	ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AppointmentStatus) error
	Delete(ctx context.Context, id, professionalID primitive.ObjectID) error
}

// MealRepository stores meals and their entries.
type MealRepository interface {
	CreateMeal(ctx context.Context, m *domain.Meal) (primitive.ObjectID, error)
	GetMeal(ctx context.Context, id primitive.ObjectID) (*domain.Meal, error)
	ListMeals(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.Meal, error)
	// DeleteMeal removes the meal and all of its entries.
	DeleteMeal(ctx context.Context, id, userID primitive.ObjectID) error
	// MealPhotoKeys returns the photo keys of a meal's entries.
	MealPhotoKeys(ctx context.Context, mealID, userID primitive.ObjectID) ([]string, error)

	CreateEntry(ctx context.Context, e *domain.MealEntry) (primitive.ObjectID, error)
	GetEntry(ctx context.Context, id primitive.ObjectID) (*domain.MealEntry, error)
	// ListEntries returns entries with from <= date <= to, oldest first.
	ListEntries(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.MealEntry, error)
	UpdateEntry(ctx context.Context, e *domain.MealEntry) error
	SetEntryPhoto(ctx context.Context, id, userID primitive.ObjectID, photoKey string) error
	DeleteEntry(ctx context.Context, id, userID primitive.ObjectID) error
}

// WaterRepository stores water intake logs.
type WaterRepository interface {
	Create(ctx context.Context, w *domain.WaterIntake) (primitive.ObjectID, error)
	ListByDate(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.WaterIntake, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// ActivityRepository stores logged activities.
type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error)
	ListByRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.Activity, error)
	Update(ctx context.Context, a *domain.Activity) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

// GoalRepository stores one goals document per user.
type GoalRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserGoals, error)
	Upsert(ctx context.Context, g *domain.UserGoals) error
}
