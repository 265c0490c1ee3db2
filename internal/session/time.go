package session

import (
	"time"

	"github.com/google/uuid"
)

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// Now returns the current UTC time through the package clock.
func Now() time.Time {
	return timeNow().UTC()
}

// NewEvent builds a history entry stamped with a fresh id and the
// package clock.
func NewEvent(typ EventType, phase, description string, data map[string]any) Event {
	return Event{
		ID:          uuid.NewString(),
		Timestamp:   Now(),
		Type:        typ,
		Phase:       phase,
		Description: description,
		Data:        data,
	}
}

// NewArtifact builds an artifact stamped with a fresh id and the package
// clock.
func NewArtifact(phaseID, name, typ, format, content string) Artifact {
	return Artifact{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      typ,
		Content:   content,
		Format:    format,
		PhaseID:   phaseID,
		Timestamp: Now(),
	}
}
