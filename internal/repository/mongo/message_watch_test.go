package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"nutritrack/app/internal/domain"
)

func decodeEvent(t *testing.T, doc bson.M) messageChangeEvent {
	t.Helper()
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var ev messageChangeEvent
	require.NoError(t, bson.Unmarshal(raw, &ev))
	return ev
}

func TestPatchFromChange_Insert(t *testing.T) {
	msgID := primitive.NewObjectID()
	connID := primitive.NewObjectID()
	ev := decodeEvent(t, bson.M{
		"operationType": "insert",
		"documentKey":   bson.M{"_id": msgID},
		"fullDocument": bson.M{
			"_id":          msgID,
			"connectionId": connID,
			"message":      "hello",
		},
	})

	patch, ok := patchFromChange(ev)
	require.True(t, ok)
	assert.Equal(t, domain.PatchInsert, patch.Op)
	assert.Equal(t, connID, patch.ConnectionID)
	assert.Equal(t, msgID, patch.ID)
	require.NotNil(t, patch.Message)
	assert.Equal(t, "hello", patch.Message.Message)
}

func TestPatchFromChange_UpdateAndDelete(t *testing.T) {
	msgID := primitive.NewObjectID()
	connID := primitive.NewObjectID()

	update := decodeEvent(t, bson.M{
		"operationType": "update",
		"documentKey":   bson.M{"_id": msgID},
		"fullDocument":  bson.M{"_id": msgID, "connectionId": connID},
	})
	patch, ok := patchFromChange(update)
	require.True(t, ok)
	assert.Equal(t, domain.PatchUpdate, patch.Op)

	withPreImage := decodeEvent(t, bson.M{
		"operationType":            "delete",
		"documentKey":              bson.M{"_id": msgID},
		"fullDocumentBeforeChange": bson.M{"_id": msgID, "connectionId": connID},
	})
	patch, ok = patchFromChange(withPreImage)
	require.True(t, ok)
	assert.Equal(t, domain.PatchDelete, patch.Op)
	assert.Equal(t, connID, patch.ConnectionID)
	assert.Nil(t, patch.Message)

	withoutPreImage := decodeEvent(t, bson.M{
		"operationType": "delete",
		"documentKey":   bson.M{"_id": msgID},
	})
	_, ok = patchFromChange(withoutPreImage)
	assert.False(t, ok)
}

func TestPatchFromChange_IgnoresOtherOperations(t *testing.T) {
	ev := decodeEvent(t, bson.M{"operationType": "drop"})
	_, ok := patchFromChange(ev)
	assert.False(t, ok)
}

func TestChangeStreamOptions_WithoutPreImages(t *testing.T) {
	opts := changeStreamOptions(false, nil)

	require.NotNil(t, opts.FullDocument)
	assert.Equal(t, options.UpdateLookup, *opts.FullDocument)
	assert.Nil(t, opts.FullDocumentBeforeChange)
	assert.Nil(t, opts.StartAfter)
}

func TestChangeStreamOptions_WithPreImagesAndResumeToken(t *testing.T) {
	token, err := bson.Marshal(bson.M{"_data": "8263A1"})
	require.NoError(t, err)

	opts := changeStreamOptions(true, bson.Raw(token))

	require.NotNil(t, opts.FullDocumentBeforeChange)
	assert.Equal(t, options.WhenAvailable, *opts.FullDocumentBeforeChange)
	assert.Equal(t, bson.Raw(token), opts.StartAfter)
}

func TestIsHistoryLost(t *testing.T) {
	assert.True(t, isHistoryLost(mongo.CommandError{Code: 286, Name: "ChangeStreamHistoryLost"}))
	assert.True(t, isHistoryLost(mongo.CommandError{Code: 280, Labels: []string{"NonResumableChangeStreamError"}}))
	assert.False(t, isHistoryLost(mongo.CommandError{Code: 91, Name: "ShutdownInProgress"}))
	assert.False(t, isHistoryLost(errors.New("connection reset")))
	assert.False(t, isHistoryLost(nil))
}
