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

// mongoConnectionRepository implements repository.ConnectionRepository
type mongoConnectionRepository struct {
	collection *mongo.Collection
}

// NewMongoConnectionRepository creates a new ClientConnection repository backed by MongoDB.
func NewMongoConnectionRepository(db *mongo.Database) repository.ConnectionRepository {
	return &mongoConnectionRepository{
		collection: db.Collection(connectionCollectionName),
	}
}

// Create inserts a new connection. A second row for the same
// (clientId, professionalId) pair is rejected by the unique index.
func (r *mongoConnectionRepository) Create(ctx context.Context, c *domain.ClientConnection) (primitive.ObjectID, error) {
	if c.ClientID == primitive.NilObjectID || c.ProfessionalID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("connection requires clientId and professionalId")
	}

	c.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.ConnectionPending
	}

	result, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a connection by its ID.
func (r *mongoConnectionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientConnection, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByPair retrieves the connection between a client and a professional, whatever its status.
func (r *mongoConnectionRepository) GetByPair(ctx context.Context, clientID, professionalID primitive.ObjectID) (*domain.ClientConnection, error) {
	return r.findOne(ctx, bson.M{"clientId": clientID, "professionalId": professionalID})
}

func (r *mongoConnectionRepository) findOne(ctx context.Context, filter bson.M) (*domain.ClientConnection, error) {
	var c domain.ClientConnection
	err := r.collection.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByClient retrieves all connections of a client, newest first.
func (r *mongoConnectionRepository) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]domain.ClientConnection, error) {
	return r.list(ctx, bson.M{"clientId": clientID})
}

// ListByProfessional retrieves all connections of a professional, newest first.
func (r *mongoConnectionRepository) ListByProfessional(ctx context.Context, professionalID primitive.ObjectID) ([]domain.ClientConnection, error) {
	return r.list(ctx, bson.M{"professionalId": professionalID})
}

func (r *mongoConnectionRepository) list(ctx context.Context, filter bson.M) ([]domain.ClientConnection, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.ClientConnection](ctx, cursor)
}

// UpdateStatus overwrites the status unconditionally. Last write wins.
func (r *mongoConnectionRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ConnectionStatus) error {
	update := bson.M{
		"$set": bson.M{
			"status":    status,
			"updatedAt": time.Now().UTC(),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func connectionIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "professionalId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	}
}
