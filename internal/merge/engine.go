// SPDX-License-Identifier: MIT

// Package merge concatenates paired recording binaries and rewrites their
// sidecar metadata so the merged output stays self-describing.
package merge

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/npmerge/internal/extract"
	xglog "github.com/ManuGH/npmerge/internal/log"
	"github.com/ManuGH/npmerge/internal/meta"
	"github.com/ManuGH/npmerge/internal/pairs"
	"github.com/ManuGH/npmerge/internal/platform/fs"
)

// Options configures one merge run.
type Options struct {
	Dir1      string
	Dir2      string
	OutputDir string
	// Extension selects the binary files, e.g. "ap.bin" or "lf.bin".
	Extension string
	// Range1 and Range2 optionally restrict each side to a time window in
	// seconds. The two windows are independent.
	Range1 *extract.TimeRange
	Range2 *extract.TimeRange
}

// Result records one merged binary.
type Result struct {
	Pair        pairs.Pair
	OutputPath  string
	MergedBytes int64
}

// Engine merges matched recording pairs from two roots into an output
// directory. It is single-threaded; each pair is fully independent, so
// callers wanting throughput would parallelize across pairs, never within
// one pair's byte copy.
type Engine struct {
	opts Options
}

// New returns an Engine for the given options.
func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// MergeMatchingFiles resolves pairs across the two roots and merges each in
// resolver order. The first failing pair aborts the whole batch; a partial
// merged dataset would be misleading to downstream analysis.
func (e *Engine) MergeMatchingFiles(ctx context.Context) ([]Result, error) {
	matched, err := pairs.Resolve(e.opts.Dir1, e.opts.Dir2, e.opts.Extension)
	if err != nil {
		return nil, err
	}
	if err := fs.EnsureDir(e.opts.OutputDir); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matched))
	for _, p := range matched {
		res, err := e.MergePair(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("pair %s: %w", p.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// MergePair extracts the (possibly time-sliced) payload from each side of
// one pair, concatenates dir1's slice followed by dir2's, and writes the
// result under the pair's filename in the output directory. A pre-existing
// output of the same name is overwritten.
func (e *Engine) MergePair(ctx context.Context, p pairs.Pair) (Result, error) {
	ctx = xglog.ContextWithPair(ctx, p.Name)
	logger := xglog.WithComponentFromContext(ctx, "merge")

	meta1, meta2, err := loadSidecars(p, e.opts.Extension)
	if err != nil {
		return Result{}, err
	}
	rate, channels, err := compatible(meta1, meta2)
	if err != nil {
		return Result{}, err
	}

	range1, err := sideRange(p.Path1, rate, channels, e.opts.Range1)
	if err != nil {
		return Result{}, err
	}
	range2, err := sideRange(p.Path2, rate, channels, e.opts.Range2)
	if err != nil {
		return Result{}, err
	}

	if err := fs.EnsureDir(e.opts.OutputDir); err != nil {
		return Result{}, err
	}
	outPath := filepath.Join(e.opts.OutputDir, p.Name)

	logger.Info().
		Str(xglog.FieldPath, outPath).
		Int64(xglog.FieldBytes, range1.Len()+range2.Len()).
		Float64(xglog.FieldSampleRate, rate).
		Int(xglog.FieldChannelCount, channels).
		Msg("merging pair")

	written, err := writeMerged(ctx, outPath, p, range1, range2)
	if err != nil {
		return Result{}, err
	}

	logger.Debug().
		Str(xglog.FieldPath, outPath).
		Int64(xglog.FieldBytes, written).
		Msg("pair merged")

	return Result{Pair: p, OutputPath: outPath, MergedBytes: written}, nil
}

// writeMerged streams both slices into a pending file and commits it
// atomically. On any error the pending file is discarded, so a failed merge
// never leaves a partial output behind.
func writeMerged(ctx context.Context, outPath string, p pairs.Pair, r1, r2 extract.ByteRange) (int64, error) {
	logger := xglog.WithComponentFromContext(ctx, "merge")

	pending, err := renameio.NewPendingFile(outPath)
	if err != nil {
		return 0, fmt.Errorf("create pending output: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending output")
		}
	}()

	var written int64
	for _, side := range []struct {
		path string
		r    extract.ByteRange
	}{
		{p.Path1, r1},
		{p.Path2, r2},
	} {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, err := extract.CopyRange(pending, side.path, side.r)
		written += n
		if err != nil {
			return written, err
		}
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return written, fmt.Errorf("atomically replace %s: %w", outPath, err)
	}
	return written, nil
}

// sideRange computes the frame-aligned byte range for one side's binary.
func sideRange(path string, rate float64, channels int, window *extract.TimeRange) (extract.ByteRange, error) {
	size, err := fs.FileSize(path)
	if err != nil {
		return extract.ByteRange{}, err
	}
	r, err := extract.ComputeRange(size, rate, channels, window)
	if err != nil {
		return extract.ByteRange{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// loadSidecars parses both sides' metadata for a binary pair.
func loadSidecars(p pairs.Pair, ext string) (*meta.Metadata, *meta.Metadata, error) {
	meta1, err := meta.Parse(meta.SidecarName(p.Path1, ext))
	if err != nil {
		return nil, nil, err
	}
	meta2, err := meta.Parse(meta.SidecarName(p.Path2, ext))
	if err != nil {
		return nil, nil, err
	}
	return meta1, meta2, nil
}

// compatible verifies the two sides describe mergeable recordings and
// returns the shared sample rate and channel count.
func compatible(meta1, meta2 *meta.Metadata) (float64, int, error) {
	rate1, err := meta1.SampleRate()
	if err != nil {
		return 0, 0, err
	}
	rate2, err := meta2.SampleRate()
	if err != nil {
		return 0, 0, err
	}
	if rate1 != rate2 {
		return 0, 0, fmt.Errorf("%g vs %g Hz: %w", rate1, rate2, ErrSampleRateMismatch)
	}
	if rate1 <= 0 {
		return 0, 0, fmt.Errorf("key %q: sample rate %g is not positive: %w",
			meta.KeySampleRate, rate1, meta.ErrMalformed)
	}

	chans1, err := meta1.ChannelCount()
	if err != nil {
		return 0, 0, err
	}
	chans2, err := meta2.ChannelCount()
	if err != nil {
		return 0, 0, err
	}
	if chans1 != chans2 {
		return 0, 0, fmt.Errorf("%d vs %d channels: %w", chans1, chans2, ErrChannelCountMismatch)
	}
	if chans1 <= 0 {
		return 0, 0, fmt.Errorf("key %q: channel count %d is not positive: %w",
			meta.KeyChannelCount, chans1, meta.ErrMalformed)
	}
	return rate1, chans1, nil
}
