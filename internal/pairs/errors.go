// SPDX-License-Identifier: MIT

package pairs

import "errors"

// ErrNoPairsFound classifies a resolve that matched no filenames across the
// two roots. Use errors.Is(err, ErrNoPairsFound) instead of string matching.
var ErrNoPairsFound = errors.New("no matching file pairs found")
