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

// mongoNoteRepository implements the repository.NoteRepository interface.
type mongoNoteRepository struct {
	collection *mongo.Collection
}

// NewMongoNoteRepository creates a new ClientNote repository.
func NewMongoNoteRepository(db *mongo.Database) repository.NoteRepository {
	return &mongoNoteRepository{
		collection: db.Collection(noteCollectionName),
	}
}

// Create inserts a new note.
func (r *mongoNoteRepository) Create(ctx context.Context, n *domain.ClientNote) (primitive.ObjectID, error) {
	if n.ProfessionalID == primitive.NilObjectID || n.ClientID == primitive.NilObjectID || n.Content == "" {
		return primitive.NilObjectID, errors.New("note requires professionalId, clientId and content")
	}
	n.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	n.CreatedAt = now
	n.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedID(result)
}

// GetByID retrieves a note by ID.
func (r *mongoNoteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ClientNote, error) {
	var n domain.ClientNote
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByProfessionalAndClient retrieves the notes an author wrote about
// one client, newest first.
func (r *mongoNoteRepository) ListByProfessionalAndClient(ctx context.Context, professionalID, clientID primitive.ObjectID) ([]domain.ClientNote, error) {
	filter := bson.M{"professionalId": professionalID, "clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	return decodeAll[domain.ClientNote](ctx, cursor)
}

// Update changes the type, content and date of a note owned by n.ProfessionalID.
func (r *mongoNoteRepository) Update(ctx context.Context, n *domain.ClientNote) error {
	if n.ID == primitive.NilObjectID {
		return errors.New("note ID is required for update")
	}
	n.UpdatedAt = time.Now().UTC()
	filter := bson.M{"_id": n.ID, "professionalId": n.ProfessionalID}
	update := bson.M{
		"$set": bson.M{
			"noteType":  n.NoteType,
			"content":   n.Content,
			"date":      n.Date,
			"updatedAt": n.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a note if it belongs to professionalID.
func (r *mongoNoteRepository) Delete(ctx context.Context, id, professionalID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "professionalId": professionalID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		// Not found, or not owned by this professional.
		return repository.ErrNotFound
	}
	return nil
}

func noteIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "professionalId", Value: 1}, {Key: "clientId", Value: 1}, {Key: "date", Value: -1}},
		},
	}
}
