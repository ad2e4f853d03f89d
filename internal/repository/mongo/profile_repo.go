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

// mongoProfileRepository implements the repository.ProfileRepository interface using MongoDB.
type mongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new instance of mongoProfileRepository.
// It expects a connected *mongo.Database instance.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		collection: db.Collection(profileCollectionName),
	}
}

// Create inserts a new profile. The email is stored normalized.
func (r *mongoProfileRepository) Create(ctx context.Context, p *domain.Profile) (primitive.ObjectID, error) {
	if p.Email == "" || p.PasswordHash == "" || p.Role == "" {
		return primitive.NilObjectID, errors.New("profile email, password hash, and role are required")
	}

	p.ID = primitive.NewObjectID()
	p.Email = domain.NormalizeEmail(p.Email)
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByEmail retrieves a profile by email, case-insensitively.
func (r *mongoProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	filter := bson.M{"email": domain.NormalizeEmail(email)}

	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a profile by its ObjectID.
func (r *mongoProfileRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByIDs retrieves every profile whose ID is in ids. Unknown IDs are skipped.
func (r *mongoProfileRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return []domain.Profile{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.Profile](ctx, cursor)
}

// Update writes the mutable settings fields of a profile.
func (r *mongoProfileRepository) Update(ctx context.Context, p *domain.Profile) error {
	if p.ID == primitive.NilObjectID {
		return errors.New("profile ID is required for update")
	}
	p.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"fullName":  p.FullName,
			"phone":     p.Phone,
			"updatedAt": p.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func profileIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
	}
}
