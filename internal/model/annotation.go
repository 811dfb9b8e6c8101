package model

import (
	"encoding/json"
	"time"
)

const (
	AnnotationActionCreate = "create"
	AnnotationActionUpdate = "update"

	AgentTypeService      = "processing-service"
	AgentTypeSourceSystem = "source-system"
)

// Agent identifies an actor in a provenance record.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

// Provenance describes who produced a change and when.
type Provenance struct {
	Created time.Time `json:"created"`
	Agents  []Agent   `json:"agents"`
}

// AnnotationEvent is the structured change description emitted after a
// media has been fully committed. For updates, Patch is the field-level
// RFC 6902 diff between the old and new attributes.
type AnnotationEvent struct {
	CorrelationID string          `json:"correlation_id"`
	Action        string          `json:"action"`
	MediaID       string          `json:"media_id"`
	Version       int             `json:"version"`
	Patch         json.RawMessage `json:"patch,omitempty"`
	Provenance    Provenance      `json:"provenance"`
}
