// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/npmerge/internal/meta"
)

func TestFixMetaFiles_RewritesMergedTotals(t *testing.T) {
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 1000, channels: 2, firstSample: 500, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 1000, channels: 2, firstSample: 250, fill: 0x22},
	)

	_, err := engine.MergeMatchingFiles(context.Background())
	require.NoError(t, err)

	written, err := engine.FixMetaFiles(context.Background())
	require.NoError(t, err)
	require.Len(t, written, 1)
	require.Equal(t, filepath.Join(opts.OutputDir, "probe0.ap.meta"), written[0])

	fixed, err := meta.Parse(written[0])
	require.NoError(t, err)

	size, err := fixed.FileSizeBytes()
	require.NoError(t, err)
	require.Equal(t, int64(3000), size)

	// sample_count * channel_count * 2 == merged file size
	count, ok := fixed.Get(meta.KeySampleCount)
	require.True(t, ok)
	require.Equal(t, "750", count)

	secs, ok := fixed.Get(meta.KeyFileTime)
	require.True(t, ok)
	require.Equal(t, "0.75", secs)

	first, err := fixed.FirstSample()
	require.NoError(t, err)
	require.Equal(t, int64(250), first)

	// Descriptive fields come from dir1 and survive verbatim.
	tbl, ok := fixed.Get("~imroTbl")
	require.True(t, ok)
	require.Equal(t, "(0,2)", tbl)
	created, ok := fixed.Get("fileCreateTime")
	require.True(t, ok)
	require.Equal(t, "2024-11-02T10:21:53", created)
}

func TestFixMetaFiles_NonIntegralSampleCount(t *testing.T) {
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 1000, channels: 2, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 1000, channels: 2, fill: 0x22},
	)

	// A merged binary whose length is not a whole number of frames signals
	// an upstream slicing bug and must never be rounded away.
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(opts.OutputDir, "probe0.ap.bin"), make([]byte, 3001), 0o644))

	_, err := engine.FixMetaFiles(context.Background())
	require.ErrorIs(t, err, ErrNonIntegralSampleCount)
}

func TestFixMetaFiles_SkipsPairWithoutMergedBinary(t *testing.T) {
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 1000, channels: 2, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 1000, channels: 2, fill: 0x22},
	)
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))

	written, err := engine.FixMetaFiles(context.Background())
	require.NoError(t, err)
	require.Empty(t, written)
}

func TestFixMetaFiles_RevalidatesCompatibility(t *testing.T) {
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 30000, channels: 2, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 2500, channels: 2, fill: 0x22},
	)

	// FixMetaFiles may run independently of the merge step, so it performs
	// the same compatibility check even over a pre-existing binary.
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(opts.OutputDir, "probe0.ap.bin"), make([]byte, 3000), 0o644))

	_, err := engine.FixMetaFiles(context.Background())
	require.ErrorIs(t, err, ErrSampleRateMismatch)
}

func TestFixMetaFiles_ZeroChannelSidecars(t *testing.T) {
	// A degenerate nSavedChans=0 must surface as an error, not divide the
	// merged size by a zero frame.
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 1000, channels: 0, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 1000, channels: 0, fill: 0x22},
	)
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(opts.OutputDir, "probe0.ap.bin"), make([]byte, 3000), 0o644))

	_, err := engine.FixMetaFiles(context.Background())
	require.ErrorIs(t, err, meta.ErrMalformed)
	require.Contains(t, err.Error(), meta.KeyChannelCount)
}

func TestFixMetaFiles_NonPositiveSampleRate(t *testing.T) {
	opts, engine := newFixture(t,
		recording{name: "probe0.ap.bin", sizeBytes: 1000, sampleRate: 0, channels: 2, fill: 0x11},
		recording{name: "probe0.ap.bin", sizeBytes: 2000, sampleRate: 0, channels: 2, fill: 0x22},
	)
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(opts.OutputDir, "probe0.ap.bin"), make([]byte, 3000), 0o644))

	_, err := engine.FixMetaFiles(context.Background())
	require.ErrorIs(t, err, meta.ErrMalformed)
	require.Contains(t, err.Error(), meta.KeySampleRate)
}
