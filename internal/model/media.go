package model

import (
	"time"
)

// IdentityKey is the natural key of a digital media: the specimen it
// depicts plus the URI the media lives at. It is the dedup key within a
// batch, the lookup key into the store, and the correlation key the PID
// registry echoes back when minting.
type IdentityKey struct {
	SpecimenID string `json:"specimen_id"`
	MediaURL   string `json:"media_url"`
}

// MediaRecord is the current version of a digital media as held in the
// store of record. ID is the externally minted handle; Created is the
// timestamp of version 1 and is preserved across updates.
type MediaRecord struct {
	ID      string       `json:"id"`
	Version int          `json:"version"`
	Created time.Time    `json:"created"`
	Wrapper MediaWrapper `json:"wrapper"`
}

func (r MediaRecord) Key() IdentityKey { return r.Wrapper.Key() }

// NextVersion builds the record superseding r with the given wrapper.
// The handle and the creation timestamp carry over.
func (r MediaRecord) NextVersion(w MediaWrapper) MediaRecord {
	return MediaRecord{
		ID:      r.ID,
		Version: r.Version + 1,
		Created: r.Created,
		Wrapper: w,
	}
}
