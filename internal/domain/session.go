package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// Session is the authenticated caller of a request. The auth middleware
// builds one per request and handlers pass it to every service call.
type Session struct {
	UserID primitive.ObjectID
	Role   Role
}

func (s Session) IsProfessional() bool {
	return s.Role.IsProfessional()
}

// Valid reports whether the session carries an identity and a known role.
func (s Session) Valid() bool {
	_, ok := ParseRole(string(s.Role))
	return !s.UserID.IsZero() && ok
}
