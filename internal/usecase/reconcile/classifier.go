package reconcile

import (
	"bytes"
	"log"
	"reflect"
	"time"

	"github.com/fhuszti/digimedia-ms-go/internal/model"
)

// Verdict is the classification of an incoming wrapper against the
// stored record for the same identity key.
type Verdict int

const (
	VerdictNew Verdict = iota
	VerdictUnchanged
	VerdictChanged
)

func (v Verdict) String() string {
	switch v {
	case VerdictNew:
		return "new"
	case VerdictUnchanged:
		return "unchanged"
	default:
		return "changed"
	}
}

// Classify decides whether incoming is identical to, an update of, or
// unrelated to the stored record. It returns the verdict together with
// the wrapper the pipeline should carry forward:
//
//   - for Changed, the incoming wrapper with the current record's
//     established-dates adopted (so timestamp churn alone never shows up
//     as a field change) and the modification timestamp stamped to now;
//   - for New, the incoming wrapper untouched;
//   - for Unchanged, the stored wrapper.
//
// Generated fields (modification timestamp, relationship established
// dates) never influence the verdict. The opaque original payload is
// never diffed: a divergence there is logged, not acted upon.
func Classify(current *model.MediaRecord, incoming model.MediaWrapper, now time.Time) (Verdict, model.MediaWrapper) {
	if current == nil {
		return VerdictNew, incoming
	}

	adopted := incoming.WithRelationships(adoptEstablishedDates(
		current.Wrapper.Attributes.EntityRelationships,
		incoming.Attributes.EntityRelationships,
	))

	if equalIgnoringGenerated(current.Wrapper, adopted) {
		if !bytes.Equal(current.Wrapper.OriginalAttributes, incoming.OriginalAttributes) {
			log.Printf("original payload diverged for media %q while harmonised attributes are equal; divergence is not captured", current.ID)
		}
		return VerdictUnchanged, current.Wrapper
	}
	return VerdictChanged, adopted.WithModified(now)
}

// adoptEstablishedDates copies the current relationship's established
// date onto each incoming relationship whose every other field matches.
func adoptEstablishedDates(current, incoming []model.EntityRelationship) []model.EntityRelationship {
	if len(incoming) == 0 {
		return incoming
	}
	out := make([]model.EntityRelationship, len(incoming))
	for i, rel := range incoming {
		out[i] = rel
		for _, cur := range current {
			if rel.RelationshipType == cur.RelationshipType &&
				rel.RelatedResource == cur.RelatedResource &&
				rel.Agent == cur.Agent {
				out[i].EstablishedDate = cur.EstablishedDate
				break
			}
		}
	}
	return out
}

func equalIgnoringGenerated(a, b model.MediaWrapper) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// normalize strips everything equality must not see: generated
// timestamps, the opaque original payload and any pre-assigned handle.
func normalize(w model.MediaWrapper) model.MediaWrapper {
	out := w.WithModified(time.Time{})
	for i := range out.Attributes.EntityRelationships {
		out.Attributes.EntityRelationships[i].EstablishedDate = time.Time{}
	}
	out.OriginalAttributes = nil
	out.ID = ""
	return out
}

// identifierFieldsChanged reports whether the externally-visible
// identifier metadata differs between the stored and incoming wrappers.
// Only these fields warrant a registry update.
func identifierFieldsChanged(old, new model.MediaWrapper) bool {
	return old.SpecimenID != new.SpecimenID ||
		old.Attributes.AccessURI != new.Attributes.AccessURI ||
		old.Attributes.License != new.Attributes.License ||
		old.Type != new.Type ||
		old.Attributes.OrganisationID != new.Attributes.OrganisationID
}
