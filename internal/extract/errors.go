// SPDX-License-Identifier: MIT

package extract

import "errors"

var (
	// ErrInvalidTimeRange classifies a requested time window that is empty,
	// negative, or entirely past the end of the file.
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrTruncatedRead classifies a source file shorter than the range being
	// read, i.e. shorter than its own advertised size.
	ErrTruncatedRead = errors.New("truncated read")
)
