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

// mongoMessageRepository implements repository.MessageRepository
type mongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new ClientMessage repository backed by MongoDB.
func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

// Create inserts a message. SentAt is stamped here.
func (r *mongoMessageRepository) Create(ctx context.Context, m *domain.ClientMessage) (primitive.ObjectID, error) {
	if m.ConnectionID == primitive.NilObjectID || m.SenderID == primitive.NilObjectID || m.RecipientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("message requires connectionId, senderId and recipientId")
	}
	m.ID = primitive.NewObjectID()
	m.SentAt = time.Now().UTC()
	m.ReadAt = nil

	result, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a message by its ID.
func (r *mongoMessageRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientMessage, error) {
	var m domain.ClientMessage
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListByConnection retrieves a connection's thread ordered by sentAt ascending.
func (r *mongoMessageRepository) ListByConnection(ctx context.Context, connectionID primitive.ObjectID) ([]domain.ClientMessage, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sentAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"connectionId": connectionID}, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.ClientMessage](ctx, cursor)
}

// MarkRead sets readAt once. Marking an already-read message keeps the
// first timestamp and still returns the row.
func (r *mongoMessageRepository) MarkRead(ctx context.Context, id primitive.ObjectID, recipientID primitive.ObjectID) (*domain.ClientMessage, error) {
	filter := bson.M{"_id": id, "recipientId": recipientID, "readAt": bson.M{"$exists": false}}
	update := bson.M{"$set": bson.M{"readAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var m domain.ClientMessage
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&m)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.RecipientID != recipientID {
		return nil, repository.ErrNotFound
	}
	return existing, nil
}

// CountUnread counts messages addressed to recipientID without readAt.
func (r *mongoMessageRepository) CountUnread(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"recipientId": recipientID, "readAt": bson.M{"$exists": false}})
}

func messageIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "connectionId", Value: 1}, {Key: "sentAt", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "recipientId", Value: 1}, {Key: "readAt", Value: 1}},
		},
	}
}
