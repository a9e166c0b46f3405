// SPDX-License-Identifier: MIT

package meta

import "errors"

var (
	// ErrMalformed classifies sidecar lines without a key=value separator.
	// Use errors.Is(err, ErrMalformed) instead of string matching.
	ErrMalformed = errors.New("malformed metadata")

	// ErrMissingField classifies typed lookups of absent keys.
	ErrMissingField = errors.New("missing metadata field")
)
