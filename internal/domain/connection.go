package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConnectionType describes what kind of support a professional gives.
type ConnectionType string

const (
	ConnectionNutritionOnly ConnectionType = "nutrition_only"
	ConnectionFitnessOnly   ConnectionType = "fitness_only"
	ConnectionFullSupport   ConnectionType = "full_support"
)

func (t ConnectionType) Valid() bool {
	switch t {
	case ConnectionNutritionOnly, ConnectionFitnessOnly, ConnectionFullSupport:
		return true
	}
	return false
}

// ConnectionStatus is the lifecycle state of a client connection.
type ConnectionStatus string

const (
	ConnectionPending    ConnectionStatus = "pending"
	ConnectionActive     ConnectionStatus = "active"
	ConnectionPaused     ConnectionStatus = "paused"
	ConnectionInactive   ConnectionStatus = "inactive"
	ConnectionTerminated ConnectionStatus = "terminated"
)

// Valid only checks membership. Any known status may follow any other.
func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionPending, ConnectionActive, ConnectionPaused, ConnectionInactive, ConnectionTerminated:
		return true
	}
	return false
}

// ClientConnection links a client profile to a professional profile.
// There is at most one connection per (ClientID, ProfessionalID).
type ClientConnection struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID       primitive.ObjectID `bson:"clientId" json:"clientId"`
	ProfessionalID primitive.ObjectID `bson:"professionalId" json:"professionalId"`
	ConnectionType ConnectionType     `bson:"connectionType" json:"connectionType"`
	Status         ConnectionStatus   `bson:"status" json:"status"`
	StartDate      string             `bson:"startDate" json:"startDate"` // YYYY-MM-DD
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasParty reports whether id is the client or the professional.
func (c *ClientConnection) HasParty(id primitive.ObjectID) bool {
	return c.ClientID == id || c.ProfessionalID == id
}

// Counterpart returns the other party, or NilObjectID if id is not a party.
func (c *ClientConnection) Counterpart(id primitive.ObjectID) primitive.ObjectID {
	switch id {
	case c.ClientID:
		return c.ProfessionalID
	case c.ProfessionalID:
		return c.ClientID
	}
	return primitive.NilObjectID
}

// ConnectionWithProfile is a connection joined with the counterpart's
// profile fields, as seen by one of its parties.
type ConnectionWithProfile struct {
	ClientConnection
	Counterpart *Profile
}
