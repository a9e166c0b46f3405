// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID     = "run_id"
	FieldPair      = "pair"
	FieldComponent = "component"

	// Path fields
	FieldPath       = "path"
	FieldOutputPath = "output_path"
	FieldDir1       = "dir1"
	FieldDir2       = "dir2"
	FieldOutputDir  = "output_dir"

	// Recording fields
	FieldExtension    = "extension"
	FieldSampleRate   = "sample_rate"
	FieldChannelCount = "channel_count"
	FieldBytes        = "bytes"
	FieldSampleCount  = "sample_count"
	FieldStartByte    = "start_byte"
	FieldEndByte      = "end_byte"
)
