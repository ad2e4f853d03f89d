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

type mongoWaterRepository struct {
	collection *mongo.Collection
}

// NewMongoWaterRepository creates a new WaterIntake repository.
func NewMongoWaterRepository(db *mongo.Database) repository.WaterRepository {
	return &mongoWaterRepository{
		collection: db.Collection(waterCollectionName),
	}
}

func (r *mongoWaterRepository) Create(ctx context.Context, w *domain.WaterIntake) (primitive.ObjectID, error) {
	if w.UserID == primitive.NilObjectID || w.Date == "" {
		return primitive.NilObjectID, errors.New("water intake requires userId and date")
	}
	w.ID = primitive.NewObjectID()
	w.LoggedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, w)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

func (r *mongoWaterRepository) ListByDate(ctx context.Context, userID primitive.ObjectID, date string) ([]domain.WaterIntake, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "loggedAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID, "date": date}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.WaterIntake](ctx, cursor)
}

func (r *mongoWaterRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func waterIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}}},
	}
}

type mongoGoalRepository struct {
	collection *mongo.Collection
}

// NewMongoGoalRepository creates a new UserGoals repository. Documents are
// keyed by the user's ID.
func NewMongoGoalRepository(db *mongo.Database) repository.GoalRepository {
	return &mongoGoalRepository{
		collection: db.Collection(goalCollectionName),
	}
}

func (r *mongoGoalRepository) Get(ctx context.Context, userID primitive.ObjectID) (*domain.UserGoals, error) {
	var g domain.UserGoals
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&g)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *mongoGoalRepository) Upsert(ctx context.Context, g *domain.UserGoals) error {
	if g.UserID == primitive.NilObjectID {
		return errors.New("goals require userId")
	}
	g.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": g.UserID}, g, opts)
	return err
}
