// README: Identifier type shared by conversations, itineraries and failure reports.
package types

import (
	"strings"

	"github.com/google/uuid"
)

type ID string

// NewID returns a random 32-char hex identifier.
func NewID() ID {
	return ID(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func (id ID) String() string {
	return string(id)
}
