// SPDX-License-Identifier: MIT

package merge

import "errors"

var (
	// ErrSampleRateMismatch classifies pairs whose sidecars disagree on the
	// sampling rate. Merging such recordings is never valid.
	ErrSampleRateMismatch = errors.New("sample rate mismatch")

	// ErrChannelCountMismatch classifies pairs whose sidecars disagree on
	// the saved channel count.
	ErrChannelCountMismatch = errors.New("channel count mismatch")

	// ErrNonIntegralSampleCount classifies a merged payload whose length is
	// not a whole number of frames. It signals a slicing or concatenation
	// bug upstream and is never rounded away.
	ErrNonIntegralSampleCount = errors.New("merged size is not a whole number of frames")
)
