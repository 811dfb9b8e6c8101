package uuid

import (
	"github.com/google/uuid"
)

// NewString returns a new random UUID in its canonical string form.
// Used for annotation correlation ids and request correlation ids.
func NewString() string {
	return uuid.NewString()
}
