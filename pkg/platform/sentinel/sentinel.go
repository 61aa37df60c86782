package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so callers can decide between failing and degrading without
// inspecting driver errors.
//
// For protocol failures use pkg/domain-errors directly.
var (
	// ErrUnavailable: a shared backend (Redis, Kafka, Postgres) could not be
	// reached.
	ErrUnavailable = errors.New("unavailable")
)
