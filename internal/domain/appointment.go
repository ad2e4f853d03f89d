package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AppointmentStatus type for appointment lifecycle
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is a session a professional schedules with a client.
type Appointment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProfessionalID  primitive.ObjectID `bson:"professionalId" json:"professionalId"`
	ClientID        primitive.ObjectID `bson:"clientId" json:"clientId"`
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	ScheduledAt     time.Time          `bson:"scheduledAt" json:"scheduledAt"`
	DurationMinutes int                `bson:"durationMinutes" json:"durationMinutes"`
	Status          AppointmentStatus  `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
