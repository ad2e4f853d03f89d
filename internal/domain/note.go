package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NoteType string

const (
	NoteGeneral     NoteType = "general"
	NoteProgress    NoteType = "progress"
	NoteConcern     NoteType = "concern"
	NoteAchievement NoteType = "achievement"
)

func (t NoteType) Valid() bool {
	switch t {
	case NoteGeneral, NoteProgress, NoteConcern, NoteAchievement:
		return true
	}
	return false
}

// ClientNote is a professional's private annotation on a client.
// Only the authoring professional can read it.
type ClientNote struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfessionalID primitive.ObjectID `bson:"professionalId" json:"professionalId"`
	ClientID       primitive.ObjectID `bson:"clientId" json:"clientId"`
	ConnectionID   primitive.ObjectID `bson:"connectionId" json:"connectionId"`
	NoteType       NoteType           `bson:"noteType" json:"noteType"`
	Content        string             `bson:"content" json:"content"`
	Date           string             `bson:"date" json:"date"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
