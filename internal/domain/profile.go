package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between profile roles
type Role string

const (
	RoleUser      Role = "user"
	RoleDietitian Role = "dietitian"
	RoleTrainer   Role = "trainer"
)

// ParseRole returns the Role for s, or false if s is not a known role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleDietitian, RoleTrainer:
		return r, true
	default:
		return "", false
	}
}

// IsProfessional reports whether the role belongs to a dietitian or trainer.
func (r Role) IsProfessional() bool {
	return r == RoleDietitian || r == RoleTrainer
}

// Profile is the identity record of anyone using the app.
type Profile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"fullName" json:"fullName"`
	Email        string             `bson:"email" json:"email"` // stored lower-cased, unique
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (p *Profile) IsProfessional() bool {
	return p.Role.IsProfessional()
}

func (p *Profile) IsClient() bool {
	return p.Role == RoleUser
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
