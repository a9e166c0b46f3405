// SPDX-License-Identifier: MIT

// Package extract computes and reads sample-aligned byte ranges of raw
// recording binaries.
//
// The payload is headerless little-endian int16, interleaved per channel:
// one frame holds one sample from every channel, frames follow in time
// order. A frame is the atomic unit of the format, so every range this
// package produces is aligned to whole frames; slicing mid-frame would
// silently rotate the channel assignment of every following sample.
package extract

import (
	"fmt"
	"io"
	"math"
	"os"
)

// BytesPerSample is fixed by the format: 16-bit signed samples.
const BytesPerSample = 2

// copyChunkSize bounds memory while streaming large recordings.
const copyChunkSize = 128 << 20

// TimeRange is a half-open window [Start, End) in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// ByteRange is a half-open interval [Start, End) within a binary payload,
// always aligned to whole frames.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int64 {
	return r.End - r.Start
}

// FrameSize returns the byte size of one frame: one sample from every
// channel.
func FrameSize(channelCount int) int64 {
	return int64(channelCount) * BytesPerSample
}

// ComputeRange maps an optional time window onto frame-aligned byte bounds.
// A nil window selects the whole file. The start rounds down and the end
// rounds up to whole samples, biasing toward including a little extra data
// rather than truncating the requested window; the end is clamped to the
// file length.
func ComputeRange(fileLen int64, sampleRate float64, channelCount int, window *TimeRange) (ByteRange, error) {
	if window == nil {
		return ByteRange{Start: 0, End: fileLen}, nil
	}
	if sampleRate <= 0 {
		return ByteRange{}, fmt.Errorf("sample rate %g is not positive: %w", sampleRate, ErrInvalidTimeRange)
	}
	if channelCount <= 0 {
		return ByteRange{}, fmt.Errorf("channel count %d is not positive: %w", channelCount, ErrInvalidTimeRange)
	}
	if window.Start < 0 {
		return ByteRange{}, fmt.Errorf("start %gs is negative: %w", window.Start, ErrInvalidTimeRange)
	}
	if window.End <= window.Start {
		return ByteRange{}, fmt.Errorf("[%gs, %gs) is empty: %w", window.Start, window.End, ErrInvalidTimeRange)
	}

	frame := FrameSize(channelCount)
	start := int64(math.Floor(window.Start*sampleRate)) * frame
	end := int64(math.Ceil(window.End*sampleRate)) * frame
	if end > fileLen {
		end = fileLen
	}
	if start >= fileLen {
		return ByteRange{}, fmt.Errorf("[%gs, %gs) starts at byte %d past end of %d-byte file: %w",
			window.Start, window.End, start, fileLen, ErrInvalidTimeRange)
	}
	return ByteRange{Start: start, End: end}, nil
}

// ReadRange reads exactly the requested bytes from path.
func ReadRange(path string, r ByteRange) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(r.Start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s to %d: %w", path, r.Start, err)
	}
	buf := make([]byte, r.Len())
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%s: want %d bytes at %d: %w", path, r.Len(), r.Start, ErrTruncatedRead)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}

// CopyRange streams the requested bytes from path into dst through a bounded
// buffer, so multi-gigabyte recordings are never held in memory whole.
// Returns the number of bytes written.
func CopyRange(dst io.Writer, path string, r ByteRange) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Seek(r.Start, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek %s to %d: %w", path, r.Start, err)
	}

	want := r.Len()
	chunk := int64(copyChunkSize)
	if chunk > want {
		chunk = want
	}
	var buf []byte
	if chunk > 0 {
		buf = make([]byte, chunk)
	}
	n, err := io.CopyBuffer(dst, io.LimitReader(f, want), buf)
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", path, err)
	}
	if n < want {
		return n, fmt.Errorf("%s: want %d bytes at %d, got %d: %w", path, want, r.Start, n, ErrTruncatedRead)
	}
	return n, nil
}
