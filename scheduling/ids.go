package scheduling

import "github.com/google/uuid"

// IDGenerator returns a new booking id on every call.
type IDGenerator func() string

func NewUUID() string {
	return uuid.NewString()
}
