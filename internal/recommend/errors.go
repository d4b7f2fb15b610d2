// Stylemesh - Multi-Strategy Catalog Recommendation Service
// Copyright 2026 Stylemesh Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/stylemesh/stylemesh

package recommend

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the engine and data providers.
var (
	// ErrNotReady means no catalog snapshot has been loaded yet. The API layer
	// maps it to 503.
	ErrNotReady = errors.New("recommendation engine not initialized")

	// ErrInternal is the opaque error returned when the pipeline panics.
	// Details are logged, never surfaced to callers.
	ErrInternal = errors.New("internal recommendation error")

	// ErrNoPreference is returned by DataProvider.UserPreferenceVector for
	// users with no interaction history. Generators treat it as an empty
	// candidate list, not a failure.
	ErrNoPreference = errors.New("no preference vector for user")
)

// ValidationError describes a rejected request field. Validation failures are
// returned before any source work begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// AsValidationError unwraps err as a *ValidationError if possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
