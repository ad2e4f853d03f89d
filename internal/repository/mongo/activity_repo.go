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

// mongoActivityRepository implements repository.ActivityRepository
type mongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new Activity repository.
func NewMongoActivityRepository(db *mongo.Database) repository.ActivityRepository {
	return &mongoActivityRepository{
		collection: db.Collection(activityCollectionName),
	}
}

// Create inserts a new activity.
func (r *mongoActivityRepository) Create(ctx context.Context, a *domain.Activity) (primitive.ObjectID, error) {
	if a.UserID == primitive.NilObjectID || a.ActivityType == "" || a.Date == "" {
		return primitive.NilObjectID, errors.New("activity requires userId, activityType and date")
	}
	a.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a single activity by its ID.
func (r *mongoActivityRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Activity, error) {
	var a domain.Activity
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ListByRange retrieves a user's activities with from <= date <= to, newest first.
func (r *mongoActivityRepository) ListByRange(ctx context.Context, userID primitive.ObjectID, from, to string) ([]domain.Activity, error) {
	filter := bson.M{
		"userId": userID,
		"date":   bson.M{"$gte": from, "$lte": to},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Activity](ctx, cursor)
}

// Update rewrites the mutable fields of an activity owned by a.UserID.
func (r *mongoActivityRepository) Update(ctx context.Context, a *domain.Activity) error {
	if a.ID == primitive.NilObjectID {
		return errors.New("activity ID is required for update")
	}
	a.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": a.ID, "userId": a.UserID}
	updateDoc := bson.M{
		"$set": bson.M{
			"activityType":    a.ActivityType,
			"durationMinutes": a.DurationMinutes,
			"caloriesBurned":  a.CaloriesBurned,
			"intensity":       a.Intensity,
			"date":            a.Date,
			"notes":           a.Notes,
			"updatedAt":       a.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes an activity owned by userID.
func (r *mongoActivityRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Not found OR not owned by this user.
		return repository.ErrNotFound
	}
	return nil
}

func activityIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}}},
	}
}
