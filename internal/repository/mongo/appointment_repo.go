package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutritrack/app/internal/domain"
	"nutritrack/app/internal/repository"
)

// mongoAppointmentRepository implements the repository.AppointmentRepository interface.
type mongoAppointmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAppointmentRepository creates a new Appointment repository.
func NewMongoAppointmentRepository(db *mongo.Database) repository.AppointmentRepository {
	return &mongoAppointmentRepository{
		collection: db.Collection(appointmentCollectionName),
	}
}

// Create inserts a new appointment, defaulting its status to scheduled.
func (r *mongoAppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (primitive.ObjectID, error) {
	if a.ProfessionalID == primitive.NilObjectID || a.ClientID == primitive.NilObjectID || a.Title == "" {
		return primitive.NilObjectID, errors.New("appointment requires professionalId, clientId and title")
	}
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.AppointmentScheduled
	}

	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a single appointment.
func (r *mongoAppointmentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByProfessional retrieves the appointments a professional created, soonest first.
func (r *mongoAppointmentRepository) ListByProfessional(ctx context.Context, professionalID primitive.ObjectID) ([]domain.Appointment, error) {
	return r.list(ctx, bson.M{"professionalId": professionalID})
}

// ListByClient retrieves a client's appointments, soonest first.
func (r *mongoAppointmentRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.Appointment, error) {
	return r.list(ctx, bson.M{"clientId": clientID})
}

func (r *mongoAppointmentRepository) list(ctx context.Context, filter bson.M) ([]domain.Appointment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "scheduledAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Appointment](ctx, cursor)
}

// UpdateStatus sets the appointment status.
func (r *mongoAppointmentRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.AppointmentStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an appointment owned by professionalID.
func (r *mongoAppointmentRepository) Delete(ctx context.Context, id, professionalID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "professionalId": professionalID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func appointmentIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "scheduledAt", Value: 1}}},
		{Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "scheduledAt", Value: 1}}},
	}
}
