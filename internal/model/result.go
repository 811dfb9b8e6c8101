package model

// UpdatedMediaTuple pairs an incoming event with the stored record it was
// classified against. It lives for one batch pass only and carries enough
// context to compensate later without re-querying the store.
type UpdatedMediaTuple struct {
	Current MediaRecord
	Event   MediaEvent
}

// ProcessResult partitions one deduplicated batch into three disjoint
// lists. Every input key appears in exactly one of them.
type ProcessResult struct {
	Unchanged []UpdatedMediaTuple
	Changed   []UpdatedMediaTuple
	New       []MediaEvent
}
