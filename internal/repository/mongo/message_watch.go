package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutritrack/app/internal/domain"
)

// PatchPublisher receives message patches.
type PatchPublisher interface {
	Publish(patch domain.MessagePatch)
}

// MessageWatcher turns the change stream of the messages collection into
// message patches. Change streams require a replica set.
type MessageWatcher struct {
	collection   *mongo.Collection
	publisher    PatchPublisher
	preImages    bool
	restartDelay time.Duration
	resumeToken  bson.Raw
	log          zerolog.Logger
}

// NewMessageWatcher builds a watcher. preImages must only be set when the
// collection has pre-images enabled; servers before 6.0 reject the option.
func NewMessageWatcher(db *mongo.Database, publisher PatchPublisher, preImages bool, log zerolog.Logger) *MessageWatcher {
	return &MessageWatcher{
		collection:   db.Collection(messageCollectionName),
		publisher:    publisher,
		preImages:    preImages,
		restartDelay: 2 * time.Second,
		log:          log.With().Str("component", "message_watcher").Logger(),
	}
}

type messageChangeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument             *domain.ClientMessage `bson:"fullDocument"`
	FullDocumentBeforeChange *domain.ClientMessage `bson:"fullDocumentBeforeChange"`
}

// EnableMessagePreImages turns on pre-images for the messages collection so
// delete events carry the connection id. It reports whether they are on.
// Servers before 6.0 do not support them.
func EnableMessagePreImages(ctx context.Context, db *mongo.Database) (bool, error) {
	cmd := bson.D{
		{Key: "collMod", Value: messageCollectionName},
		{Key: "changeStreamPreAndPostImages", Value: bson.D{{Key: "enabled", Value: true}}},
	}
	err := db.RunCommand(ctx, cmd).Err()
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceNotFound" {
		if err := db.CreateCollection(ctx, messageCollectionName); err != nil {
			return false, err
		}
		err = db.RunCommand(ctx, cmd).Err()
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// changeStreamOptions asks for pre-images only when the collection keeps
// them, and resumes after token when one is known.
func changeStreamOptions(preImages bool, token bson.Raw) *options.ChangeStreamOptions {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	if preImages {
		opts.SetFullDocumentBeforeChange(options.WhenAvailable)
	}
	if token != nil {
		opts.SetStartAfter(token)
	}
	return opts
}

// isHistoryLost reports whether the resume point fell off the oplog.
func isHistoryLost(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && (se.HasErrorCode(286) || se.HasErrorLabel("NonResumableChangeStreamError"))
}

func (w *MessageWatcher) open(ctx context.Context) (*mongo.ChangeStream, error) {
	return w.collection.Watch(ctx, mongo.Pipeline{}, changeStreamOptions(w.preImages, w.resumeToken))
}

// Start opens the stream and returns an error if that fails. Once open, the
// stream is consumed in the background until ctx ends, reopening from the
// last resume token after interruptions such as a primary stepdown.
func (w *MessageWatcher) Start(ctx context.Context) error {
	stream, err := w.open(ctx)
	if err != nil {
		return err
	}
	w.log.Info().Bool("pre_images", w.preImages).Msg("watching message changes")
	go w.run(ctx, stream)
	return nil
}

func (w *MessageWatcher) run(ctx context.Context, stream *mongo.ChangeStream) {
	for {
		err := w.consume(ctx, stream)
		if ctx.Err() != nil {
			return
		}
		w.log.Error().Err(err).Msg("message change stream interrupted, reopening")

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.restartDelay):
			}
			stream, err = w.open(ctx)
			if err == nil {
				break
			}
			if isHistoryLost(err) {
				// Patches between the token and now are gone; clients resync on reload.
				w.log.Warn().Err(err).Msg("resume point lost, restarting stream from now")
				w.resumeToken = nil
				continue
			}
			w.log.Error().Err(err).Msg("failed to reopen message change stream")
		}
	}
}

// consume publishes events until the stream ends and keeps the resume token
// current.
func (w *MessageWatcher) consume(ctx context.Context, stream *mongo.ChangeStream) error {
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		w.resumeToken = stream.ResumeToken()

		var ev messageChangeEvent
		if err := stream.Decode(&ev); err != nil {
			w.log.Error().Err(err).Msg("failed to decode change event")
			continue
		}
		patch, ok := patchFromChange(ev)
		if !ok {
			w.log.Debug().Str("op", ev.OperationType).Str("id", ev.DocumentKey.ID.Hex()).Msg("change event skipped")
			continue
		}
		w.publisher.Publish(patch)
	}
	if token := stream.ResumeToken(); token != nil {
		w.resumeToken = token
	}
	if err := stream.Err(); err != nil {
		return err
	}
	return errors.New("change stream closed")
}

// patchFromChange maps a change event to a patch. Deletes are only
// routable when the pre-image is available, since the connection id is
// not part of the document key.
func patchFromChange(ev messageChangeEvent) (domain.MessagePatch, bool) {
	switch ev.OperationType {
	case "insert", "update", "replace":
		if ev.FullDocument == nil {
			return domain.MessagePatch{}, false
		}
		op := domain.PatchUpdate
		if ev.OperationType == "insert" {
			op = domain.PatchInsert
		}
		return domain.MessagePatch{
			Op:           op,
			ConnectionID: ev.FullDocument.ConnectionID,
			ID:           ev.DocumentKey.ID,
			Message:      ev.FullDocument,
		}, true
	case "delete":
		if ev.FullDocumentBeforeChange == nil {
			return domain.MessagePatch{}, false
		}
		return domain.MessagePatch{
			Op:           domain.PatchDelete,
			ConnectionID: ev.FullDocumentBeforeChange.ConnectionID,
			ID:           ev.DocumentKey.ID,
		}, true
	}
	return domain.MessagePatch{}, false
}
