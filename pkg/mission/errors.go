package mission

import "errors"

var (
	// ErrMissionNotFound is returned for an unknown mission id.
	ErrMissionNotFound = errors.New("mission not found")

	// ErrRequirementMissing is returned when a mission is checked before its required disk is attached.
	ErrRequirementMissing = errors.New("requirement missing")
)
