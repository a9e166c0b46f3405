// SPDX-License-Identifier: MIT

package merge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/npmerge/internal/extract"
	xglog "github.com/ManuGH/npmerge/internal/log"
	"github.com/ManuGH/npmerge/internal/meta"
	"github.com/ManuGH/npmerge/internal/pairs"
	"github.com/ManuGH/npmerge/internal/platform/fs"
)

// FixMetaFiles writes one corrected sidecar per merged binary present in the
// output directory. Source sidecars are re-resolved from the original roots
// and re-validated for compatibility; this step may run independently of
// MergeMatchingFiles, as long as the binaries exist.
//
// The corrected sidecar starts from dir1's metadata, so descriptive fields
// like probe geometry and gain tables come from the first source, and gets
// its size, sample count, duration and first-sample fields rewritten from
// the merged payload. Returns the paths written.
func (e *Engine) FixMetaFiles(ctx context.Context) ([]string, error) {
	metaExt := meta.SidecarExtension(e.opts.Extension)
	matched, err := pairs.Resolve(e.opts.Dir1, e.opts.Dir2, metaExt)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, p := range matched {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		path, err := e.fixPair(ctx, p, metaExt)
		if err != nil {
			return written, fmt.Errorf("pair %s: %w", p.Name, err)
		}
		if path != "" {
			written = append(written, path)
		}
	}
	return written, nil
}

// fixPair corrects the sidecar for one sidecar pair. Returns "" when the
// matching merged binary does not exist in the output directory.
func (e *Engine) fixPair(ctx context.Context, p pairs.Pair, metaExt string) (string, error) {
	ctx = xglog.ContextWithPair(ctx, p.Name)
	logger := xglog.WithComponentFromContext(ctx, "fixmeta")

	binName := strings.TrimSuffix(p.Name, metaExt) + e.opts.Extension
	binPath := filepath.Join(e.opts.OutputDir, binName)
	mergedSize, err := fs.FileSize(binPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().
				Str(xglog.FieldPath, binPath).
				Msg("no merged binary for sidecar pair, skipping")
			return "", nil
		}
		return "", err
	}

	meta1, err := meta.Parse(p.Path1)
	if err != nil {
		return "", err
	}
	meta2, err := meta.Parse(p.Path2)
	if err != nil {
		return "", err
	}
	rate, channels, err := compatible(meta1, meta2)
	if err != nil {
		return "", err
	}

	frame := extract.FrameSize(channels)
	if mergedSize%frame != 0 {
		return "", fmt.Errorf("%s: %d bytes, frame size %d: %w",
			binPath, mergedSize, frame, ErrNonIntegralSampleCount)
	}
	sampleCount := mergedSize / frame

	fixed := meta1.Clone()
	fixed.SetFileSizeBytes(mergedSize)
	fixed.SetSampleCount(sampleCount)
	fixed.SetFileTimeSecs(float64(sampleCount) / rate)
	first1, err1 := meta1.FirstSample()
	first2, err2 := meta2.FirstSample()
	if err1 == nil && err2 == nil {
		fixed.SetFirstSample(min(first1, first2))
	}

	outPath := filepath.Join(e.opts.OutputDir, p.Name)
	if err := renameio.WriteFile(outPath, fixed.Serialize(), 0o644); err != nil {
		return "", fmt.Errorf("write sidecar %s: %w", outPath, err)
	}

	logger.Info().
		Str(xglog.FieldPath, outPath).
		Int64(xglog.FieldBytes, mergedSize).
		Int64(xglog.FieldSampleCount, sampleCount).
		Msg("sidecar fixed")

	return outPath, nil
}
