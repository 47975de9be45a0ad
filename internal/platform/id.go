package platform

import "github.com/google/uuid"

// NewID returns a stable opaque identifier for a backup pair.
func NewID() string {
	return uuid.New().String()
}
