package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClientMessage is one message in a connection's thread.
type ClientMessage struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConnectionID primitive.ObjectID `bson:"connectionId" json:"connectionId"`
	SenderID     primitive.ObjectID `bson:"senderId" json:"senderId"`
	RecipientID  primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	Message      string             `bson:"message" json:"message"`
	SentAt       time.Time          `bson:"sentAt" json:"sentAt"`
	ReadAt       *time.Time         `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

func (m *ClientMessage) IsRead() bool {
	return m.ReadAt != nil
}

// PatchOp is the kind of change a MessagePatch carries.
type PatchOp string

const (
	PatchInsert PatchOp = "insert"
	PatchUpdate PatchOp = "update"
	PatchDelete PatchOp = "delete"
)

// MessagePatch is an incremental change to a thread, keyed by message id.
// Message is nil for deletes.
type MessagePatch struct {
	Op           PatchOp            `json:"op"`
	ConnectionID primitive.ObjectID `json:"connectionId"`
	ID           primitive.ObjectID `json:"id"`
	Message      *ClientMessage     `json:"message,omitempty"`
}
