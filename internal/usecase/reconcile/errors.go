package reconcile

import "errors"

var (
	// ErrSpecimenNotFound is returned by the synchronous path when the
	// referenced specimen does not exist in the store.
	ErrSpecimenNotFound = errors.New("reconcile: referenced specimen not found")
	// ErrProcessingFailed is returned by the synchronous path when the
	// event could not be committed; the event was dead-lettered and its
	// side effects compensated.
	ErrProcessingFailed = errors.New("reconcile: media could not be committed")
)
