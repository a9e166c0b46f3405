// SPDX-License-Identifier: MIT

package pairs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolve_PairsByNameAcrossImecDirs(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "run_imec0", "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir1, "run_imec1", "probe1.ap.bin"))
	writeFile(t, filepath.Join(dir2, "other_imec0", "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir2, "other_imec1", "probe1.ap.bin"))

	got, err := Resolve(dir1, dir2, "ap.bin")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Sorted by name, paths point into the right roots.
	require.Equal(t, "probe0.ap.bin", got[0].Name)
	require.Equal(t, "probe1.ap.bin", got[1].Name)
	require.Equal(t, filepath.Join(dir1, "run_imec0", "probe0.ap.bin"), got[0].Path1)
	require.Equal(t, filepath.Join(dir2, "other_imec0", "probe0.ap.bin"), got[0].Path2)
}

func TestResolve_SkipsOneSidedFiles(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "imec0", "both.ap.bin"))
	writeFile(t, filepath.Join(dir2, "imec0", "both.ap.bin"))
	writeFile(t, filepath.Join(dir1, "imec0", "only1.ap.bin"))
	writeFile(t, filepath.Join(dir2, "imec0", "only2.ap.bin"))

	got, err := Resolve(dir1, dir2, "ap.bin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "both.ap.bin", got[0].Name)
}

func TestResolve_FiltersByExtension(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "imec0", "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir2, "imec0", "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir1, "imec0", "probe0.lf.bin"))
	writeFile(t, filepath.Join(dir2, "imec0", "probe0.lf.bin"))

	got, err := Resolve(dir1, dir2, "lf.bin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "probe0.lf.bin", got[0].Name)
}

func TestResolve_RootLevelFiles(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir2, "probe0.ap.bin"))

	got, err := Resolve(dir1, dir2, "ap.bin")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestResolve_IgnoresNonImecSubdirs(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "nidq", "probe0.ap.bin"))
	writeFile(t, filepath.Join(dir2, "nidq", "probe0.ap.bin"))

	_, err := Resolve(dir1, dir2, "ap.bin")
	require.ErrorIs(t, err, ErrNoPairsFound)
}

func TestResolve_DisjointNames(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()

	writeFile(t, filepath.Join(dir1, "imec0", "a.ap.bin"))
	writeFile(t, filepath.Join(dir2, "imec0", "b.ap.bin"))

	_, err := Resolve(dir1, dir2, "ap.bin")
	require.ErrorIs(t, err, ErrNoPairsFound)
}

func TestResolve_MissingRoot(t *testing.T) {
	dir2 := t.TempDir()
	writeFile(t, filepath.Join(dir2, "imec0", "a.ap.bin"))

	_, err := Resolve(filepath.Join(dir2, "nope"), dir2, "ap.bin")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoPairsFound)
}
