package core

import "github.com/google/uuid"

// NewID returns a random UUID string suitable for run identifiers.
func NewID() string {
	return uuid.NewString()
}
