package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutritrack/app/internal/domain"
)

type messageFixture struct {
	messages  *memMessages
	publisher *recordingPublisher
	svc       MessageService
	pro       domain.Profile
	client    domain.Profile
	stranger  domain.Profile
	conn      *domain.ClientConnection
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	profiles := newMemProfiles()
	connections := &memConnections{}
	f := &messageFixture{messages: &memMessages{}, publisher: &recordingPublisher{}}
	f.pro = profiles.add("Pat Pro", "pat@example.com", domain.RoleTrainer)
	f.client = profiles.add("Cleo Client", "cleo@example.com", domain.RoleUser)
	f.stranger = profiles.add("Sid Stranger", "sid@example.com", domain.RoleUser)

	conn, err := NewConnectionService(profiles, connections, fixedClock, zerolog.Nop()).
		CreateConnection(context.Background(), sessionOf(f.pro), "cleo@example.com", domain.ConnectionFitnessOnly, "")
	require.NoError(t, err)
	f.conn = conn
	f.svc = NewMessageService(connections, f.messages, f.publisher, zerolog.Nop())
	return f
}

func TestSendMessage_WhitespaceRejectedBeforeRepository(t *testing.T) {
	f := newMessageFixture(t)

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := f.svc.SendMessage(context.Background(), sessionOf(f.pro), f.conn.ID, f.client.ID, text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Zero(t, f.messages.calls)
	assert.Empty(t, f.publisher.patches)
}

func TestSendMessage_TrimsAndPublishesInsert(t *testing.T) {
	f := newMessageFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), sessionOf(f.pro), f.conn.ID, f.client.ID, "  How was the run?  ")
	require.NoError(t, err)
	assert.Equal(t, "How was the run?", msg.Message)
	assert.Equal(t, f.pro.ID, msg.SenderID)
	assert.False(t, msg.IsRead())

	require.Len(t, f.publisher.patches, 1)
	patch := f.publisher.patches[0]
	assert.Equal(t, domain.PatchInsert, patch.Op)
	assert.Equal(t, msg.ID, patch.ID)
	assert.Equal(t, f.conn.ID, patch.ConnectionID)
}

func TestSendMessage_PartyAndRecipientChecks(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, sessionOf(f.stranger), f.conn.ID, f.client.ID, "hi")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.SendMessage(ctx, sessionOf(f.pro), f.conn.ID, f.stranger.ID, "hi")
	assert.ErrorIs(t, err, ErrInvalidRecipient)

	_, err = f.svc.SendMessage(ctx, sessionOf(f.pro), f.conn.ID, f.pro.ID, "note to self")
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestListMessages_AscendingAndPartyOnly(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, sessionOf(f.pro), f.conn.ID, f.client.ID, "first")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, sessionOf(f.client), f.conn.ID, f.pro.ID, "second")
	require.NoError(t, err)

	msgs, err := f.svc.ListMessages(ctx, sessionOf(f.client), f.conn.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Message)
	assert.Equal(t, "second", msgs[1].Message)
	assert.True(t, msgs[0].SentAt.Before(msgs[1].SentAt))

	_, err = f.svc.ListMessages(ctx, sessionOf(f.stranger), f.conn.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMarkAsRead_RecipientOnlyAndIdempotent(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	msg, err := f.svc.SendMessage(ctx, sessionOf(f.pro), f.conn.ID, f.client.ID, "check in")
	require.NoError(t, err)

	count, err := f.svc.UnreadCount(ctx, sessionOf(f.client))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = f.svc.MarkAsRead(ctx, sessionOf(f.pro), msg.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	read, err := f.svc.MarkAsRead(ctx, sessionOf(f.client), msg.ID)
	require.NoError(t, err)
	require.NotNil(t, read.ReadAt)
	first := *read.ReadAt

	again, err := f.svc.MarkAsRead(ctx, sessionOf(f.client), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *again.ReadAt)

	count, err = f.svc.UnreadCount(ctx, sessionOf(f.client))
	require.NoError(t, err)
	assert.Zero(t, count)

	// insert + one update; the repeated read publishes nothing
	require.Len(t, f.publisher.patches, 2)
	assert.Equal(t, domain.PatchUpdate, f.publisher.patches[1].Op)
}

func TestNewMessageService_NilPublisher(t *testing.T) {
	f := newMessageFixture(t)
	svc := NewMessageService(&memConnections{rows: []domain.ClientConnection{*f.conn}}, f.messages, nil, zerolog.Nop())

	_, err := svc.SendMessage(context.Background(), sessionOf(f.client), f.conn.ID, f.pro.ID, "ok")
	require.NoError(t, err)
	assert.NoError(t, svc.AuthorizeThread(context.Background(), sessionOf(f.pro), f.conn.ID))
	assert.ErrorIs(t, svc.AuthorizeThread(context.Background(), sessionOf(f.stranger), f.conn.ID), ErrForbidden)
}
