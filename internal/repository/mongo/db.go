package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names.
const (
	profileCollectionName     = "profiles"
	connectionCollectionName  = "client_connections"
	messageCollectionName     = "client_messages"
	noteCollectionName        = "client_notes"
	appointmentCollectionName = "appointments"
	mealCollectionName        = "meals"
	mealEntryCollectionName   = "meal_entries"
	waterCollectionName       = "water_intake"
	activityCollectionName    = "activities"
	goalCollectionName        = "user_goals"
)

// ConnectDB establishes a connection to MongoDB using the provided URI
// and verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Failures are
// logged and do not stop startup, except for the unique indexes which
// back invariants (profile email, connection pair).
func EnsureIndexes(ctx context.Context, db *mongo.Database, log zerolog.Logger) error {
	steps := []struct {
		collection string
		models     []mongo.IndexModel
		required   bool
	}{
		{profileCollectionName, profileIndexes(), true},
		{connectionCollectionName, connectionIndexes(), true},
		{messageCollectionName, messageIndexes(), false},
		{noteCollectionName, noteIndexes(), false},
		{appointmentCollectionName, appointmentIndexes(), false},
		{mealCollectionName, mealIndexes(), false},
		{mealEntryCollectionName, mealEntryIndexes(), false},
		{waterCollectionName, waterIndexes(), false},
		{activityCollectionName, activityIndexes(), false},
	}

	for _, step := range steps {
		_, err := db.Collection(step.collection).Indexes().CreateMany(ctx, step.models)
		if err == nil {
			continue
		}
		if step.required {
			return err
		}
		log.Warn().Err(err).Str("collection", step.collection).Msg("failed to create indexes")
	}
	return nil
}

// insertedID extracts the ObjectID from an insert result.
func insertedID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

// decodeAll drains a cursor into out and checks the cursor error.
func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
