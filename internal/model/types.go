package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EntityRelationship links a media to another digital object (its
// specimen, its source system, a license document...).
type EntityRelationship struct {
	RelationshipType string    `json:"relationship_type"`
	RelatedResource  string    `json:"related_resource"`
	Agent            string    `json:"agent,omitempty"`
	EstablishedDate  time.Time `json:"established_date"`
}

// Attributes is the harmonised, structured part of a media description.
// Modified and the relationships' EstablishedDate are generated fields:
// they are excluded from change detection.
type Attributes struct {
	AccessURI           string               `json:"access_uri" validate:"required,mediauri"`
	Format              string               `json:"format,omitempty"`
	License             string               `json:"license,omitempty"`
	OrganisationID      string               `json:"organisation_id,omitempty"`
	SourceSystemID      string               `json:"source_system_id,omitempty"`
	SourceSystemName    string               `json:"source_system_name,omitempty"`
	Modified            time.Time            `json:"modified"`
	EntityRelationships []EntityRelationship `json:"entity_relationships,omitempty"`
}

func (a Attributes) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal Attributes: %w", err)
	}
	return b, nil
}
func (a *Attributes) Scan(src interface{}) error {
	if src == nil {
		*a = Attributes{}
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("Attributes.Scan: expected []byte, got %T", src)
	}
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("unmarshal Attributes: %w", err)
	}
	return nil
}

// MediaWrapper pairs the harmonised attributes of a media with the opaque
// payload as the source system delivered it. Wrappers are never mutated in
// place: every change produces a new value so equality stays sound.
type MediaWrapper struct {
	// ID is set only when the producer already minted a handle upstream.
	ID                 string          `json:"id,omitempty"`
	Type               string          `json:"type" validate:"required"`
	SpecimenID         string          `json:"specimen_id" validate:"required"`
	Attributes         Attributes      `json:"attributes"`
	OriginalAttributes json.RawMessage `json:"original_attributes,omitempty"`
}

func (w MediaWrapper) Key() IdentityKey {
	return IdentityKey{SpecimenID: w.SpecimenID, MediaURL: w.Attributes.AccessURI}
}

// WithID returns a copy of w carrying the given handle.
func (w MediaWrapper) WithID(id string) MediaWrapper {
	out := w.clone()
	out.ID = id
	return out
}

// WithModified returns a copy of w whose modification timestamp is t.
func (w MediaWrapper) WithModified(t time.Time) MediaWrapper {
	out := w.clone()
	out.Attributes.Modified = t
	return out
}

// WithRelationships returns a copy of w carrying the given relationships.
func (w MediaWrapper) WithRelationships(rels []EntityRelationship) MediaWrapper {
	out := w.clone()
	out.Attributes.EntityRelationships = cloneRelationships(rels)
	return out
}

func (w MediaWrapper) clone() MediaWrapper {
	out := w
	out.Attributes.EntityRelationships = cloneRelationships(w.Attributes.EntityRelationships)
	if w.OriginalAttributes != nil {
		out.OriginalAttributes = append(json.RawMessage(nil), w.OriginalAttributes...)
	}
	return out
}

func cloneRelationships(rels []EntityRelationship) []EntityRelationship {
	if rels == nil {
		return nil
	}
	return append([]EntityRelationship(nil), rels...)
}
