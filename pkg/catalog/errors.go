package catalog

import "errors"

var (
	// ErrModuleNotFound is returned when no module has the requested id.
	ErrModuleNotFound = errors.New("module not found")

	// ErrTopicNotFound is returned when an identifier does not resolve to a topic.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrInvalidCatalog is returned when catalog data cannot be decoded or has bad ids.
	ErrInvalidCatalog = errors.New("invalid catalog")
)
