// SPDX-License-Identifier: MIT

// Package meta models SpikeGLX-style sidecar metadata: an ordered list of
// key=value lines accompanying each recording binary. Unknown keys are
// carried through verbatim so that serialize(parse(x)) == x; only the
// handful of fields the merger rewrites have typed accessors.
package meta

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Sidecar keys rewritten or read by the merger. All other keys are opaque.
const (
	KeySampleRate   = "imSampRate"
	KeyChannelCount = "nSavedChans"
	KeyFileSize     = "fileSizeBytes"
	KeyFileTime     = "fileTimeSecs"
	KeyFirstSample  = "firstSample"
	KeySampleCount  = "fileNumSamples"
)

// Metadata is an ordered key=value mapping parsed from a sidecar file.
// Insertion order is preserved on serialization; downstream tooling
// depends on field order.
type Metadata struct {
	keys   []string
	values map[string]string
	// noFinalNewline records that the parsed input did not end with a
	// newline, so serialization stays byte-identical.
	noFinalNewline bool
}

// Parse reads a sidecar file of key=value lines.
func Parse(path string) (*Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}
	m, err := ParseBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseBytes parses sidecar text. A line without '=' is malformed; a
// trailing empty line (final newline) is tolerated.
func ParseBytes(raw []byte) (*Metadata, error) {
	m := &Metadata{values: make(map[string]string)}
	if len(raw) > 0 && raw[len(raw)-1] != '\n' {
		m.noFinalNewline = true
	}
	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		if line == "" && i == len(lines)-1 {
			break
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d %q: %w", i+1, line, ErrMalformed)
		}
		if _, seen := m.values[key]; !seen {
			m.keys = append(m.keys, key)
		}
		m.values[key] = value
	}
	return m, nil
}

// Serialize re-emits every key in insertion order, one key=value per line.
// A missing final newline in the parsed input is reproduced, so with no
// mutation the output is byte-identical to the input.
func (m *Metadata) Serialize() []byte {
	var b strings.Builder
	for _, key := range m.keys {
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(m.values[key])
		b.WriteByte('\n')
	}
	out := b.String()
	if m.noFinalNewline {
		out = strings.TrimSuffix(out, "\n")
	}
	return []byte(out)
}

// Clone returns a deep copy. The fixer mutates a copy of dir1's metadata
// so that source sidecars are never touched.
func (m *Metadata) Clone() *Metadata {
	c := &Metadata{
		keys:           append([]string(nil), m.keys...),
		values:         make(map[string]string, len(m.values)),
		noFinalNewline: m.noFinalNewline,
	}
	for k, v := range m.values {
		c.values[k] = v
	}
	return c
}

// Get returns the raw value for key.
func (m *Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key, appending the key if it is new.
func (m *Metadata) Set(key, value string) {
	if _, seen := m.values[key]; !seen {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Len returns the number of distinct keys.
func (m *Metadata) Len() int {
	return len(m.keys)
}

func (m *Metadata) lookup(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("key %q: %w", key, ErrMissingField)
	}
	return v, nil
}

// SampleRate returns the sampling rate in Hz.
func (m *Metadata) SampleRate() (float64, error) {
	v, err := m.lookup(KeySampleRate)
	if err != nil {
		return 0, err
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("key %q=%q: %w", KeySampleRate, v, ErrMalformed)
	}
	return rate, nil
}

// ChannelCount returns the total saved channel count, sync channel included.
func (m *Metadata) ChannelCount() (int, error) {
	v, err := m.lookup(KeyChannelCount)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("key %q=%q: %w", KeyChannelCount, v, ErrMalformed)
	}
	return n, nil
}

// FileSizeBytes returns the advertised payload size in bytes.
func (m *Metadata) FileSizeBytes() (int64, error) {
	v, err := m.lookup(KeyFileSize)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %q=%q: %w", KeyFileSize, v, ErrMalformed)
	}
	return n, nil
}

// FirstSample returns the absolute index of the recording's first sample.
func (m *Metadata) FirstSample() (int64, error) {
	v, err := m.lookup(KeyFirstSample)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("key %q=%q: %w", KeyFirstSample, v, ErrMalformed)
	}
	return n, nil
}

// SetFileSizeBytes updates the advertised payload size.
func (m *Metadata) SetFileSizeBytes(n int64) {
	m.Set(KeyFileSize, strconv.FormatInt(n, 10))
}

// SetSampleCount updates the per-channel sample count.
func (m *Metadata) SetSampleCount(n int64) {
	m.Set(KeySampleCount, strconv.FormatInt(n, 10))
}

// SetFileTimeSecs updates the recording duration in seconds.
func (m *Metadata) SetFileTimeSecs(secs float64) {
	m.Set(KeyFileTime, strconv.FormatFloat(secs, 'f', -1, 64))
}

// SetFirstSample updates the absolute index of the first sample.
func (m *Metadata) SetFirstSample(n int64) {
	m.Set(KeyFirstSample, strconv.FormatInt(n, 10))
}

// SidecarName maps a binary filename to its sidecar filename by swapping
// the extension suffix, e.g. "run_g0_t0.imec0.ap.bin" with extension
// "ap.bin" becomes "run_g0_t0.imec0.ap.meta".
func SidecarName(name, ext string) string {
	return strings.TrimSuffix(name, ext) + SidecarExtension(ext)
}

// SidecarExtension maps a binary extension to the sidecar extension,
// e.g. "ap.bin" -> "ap.meta".
func SidecarExtension(ext string) string {
	if strings.HasSuffix(ext, ".bin") {
		return strings.TrimSuffix(ext, ".bin") + ".meta"
	}
	return ext + ".meta"
}
