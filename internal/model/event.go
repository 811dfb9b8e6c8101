package model

// MediaEvent is the unit consumed from the inbound topic and the unit
// produced when re-queuing or dead-lettering. EnrichmentList names the
// downstream processing requests to fan out once the media is committed.
type MediaEvent struct {
	EnrichmentList []string     `json:"enrichment_list,omitempty" validate:"omitempty,dive,min=1"`
	Wrapper        MediaWrapper `json:"wrapper" validate:"required"`
	// Requeued counts how often this event went back onto the inbound
	// topic as an in-batch duplicate. Purely diagnostic: delivery is
	// unconditional either way.
	Requeued int `json:"requeued,omitempty"`
}

func (e MediaEvent) Key() IdentityKey { return e.Wrapper.Key() }
