package realtime

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"nutritrack/app/internal/domain"
)

func TestHub_RoutesByConnection(t *testing.T) {
	hub := NewHub(4, zerolog.Nop())
	connA := primitive.NewObjectID()
	connB := primitive.NewObjectID()

	subA := hub.Subscribe(connA)
	subB := hub.Subscribe(connB)
	defer subA.Close()
	defer subB.Close()

	msgID := primitive.NewObjectID()
	hub.Publish(domain.MessagePatch{Op: domain.PatchInsert, ConnectionID: connA, ID: msgID})

	select {
	case p := <-subA.C:
		assert.Equal(t, msgID, p.ID)
	default:
		t.Fatal("expected patch on subscriber A")
	}
	select {
	case p := <-subB.C:
		t.Fatalf("subscriber B received %v", p)
	default:
	}
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	conn := primitive.NewObjectID()
	sub := hub.Subscribe(conn)
	require.Equal(t, 1, hub.Subscribers(conn))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers(conn))
	_, open := <-sub.C
	assert.False(t, open)
}

func TestHub_DropsLaggingSubscriber(t *testing.T) {
	hub := NewHub(1, zerolog.Nop())
	conn := primitive.NewObjectID()
	slow := hub.Subscribe(conn)

	hub.Publish(domain.MessagePatch{ConnectionID: conn, ID: primitive.NewObjectID()})
	hub.Publish(domain.MessagePatch{ConnectionID: conn, ID: primitive.NewObjectID()})

	assert.Equal(t, 0, hub.Subscribers(conn))
	_, open := <-slow.C
	assert.True(t, open, "buffered patch is still delivered")
	_, open = <-slow.C
	assert.False(t, open)
	slow.Close()
}

func TestHub_ConcurrentPublishAndClose(t *testing.T) {
	hub := NewHub(8, zerolog.Nop())
	conn := primitive.NewObjectID()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := hub.Subscribe(conn)
			for j := 0; j < 20; j++ {
				hub.Publish(domain.MessagePatch{ConnectionID: conn})
			}
			sub.Close()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Subscribers(conn))
}
