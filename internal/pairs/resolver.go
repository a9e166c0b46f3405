// SPDX-License-Identifier: MIT

// Package pairs matches recording files by name across two source roots.
//
// Each root optionally holds imecX-style probe subdirectories (imec0..imec3,
// possibly embedded in longer folder names). Files are paired by bare
// filename with the directory prefix stripped; a file present on only one
// side is skipped, not an error.
package pairs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ManuGH/npmerge/internal/platform/fs"
)

// imec probe folder tags recognised inside a source root.
var imecTags = []string{"imec0", "imec1", "imec2", "imec3"}

// Pair is an ordered pair of absolute paths sharing the same relative
// filename across the two roots.
type Pair struct {
	// Name is the bare filename, identical on both sides.
	Name string
	// Path1 and Path2 are the absolute paths under dir1 and dir2.
	Path1 string
	Path2 string
}

// Resolve lists files under each root whose name ends with ext, pairs files
// with identical names across the two roots, and returns the pairs sorted by
// name. Returns ErrNoPairsFound when nothing matches on both sides.
func Resolve(dir1, dir2, ext string) ([]Pair, error) {
	files1, err := scan(dir1, ext)
	if err != nil {
		return nil, err
	}
	files2, err := scan(dir2, ext)
	if err != nil {
		return nil, err
	}

	var out []Pair
	for name, p1 := range files1 {
		p2, ok := files2[name]
		if !ok {
			continue
		}
		out = append(out, Pair{Name: name, Path1: p1, Path2: p2})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if len(out) == 0 {
		return nil, fmt.Errorf("%s vs %s (ext %q): %w", dir1, dir2, ext, ErrNoPairsFound)
	}
	return out, nil
}

// scan maps bare filename to absolute path for every regular file ending in
// ext, looking at the root itself and one level into imecX-style subfolders.
func scan(root, ext string) (map[string]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	found := make(map[string]string)
	collect := func(dir string, entries []os.DirEntry) {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if fs.IsRegularFile(path) != nil {
				continue
			}
			found[e.Name()] = path
		}
	}

	collect(root, entries)
	for _, e := range entries {
		if !e.IsDir() || !isImecDir(e.Name()) {
			continue
		}
		sub := filepath.Join(root, e.Name())
		subEntries, err := os.ReadDir(sub)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", sub, err)
		}
		collect(sub, subEntries)
	}
	return found, nil
}

func isImecDir(name string) bool {
	for _, tag := range imecTags {
		if strings.Contains(name, tag) {
			return true
		}
	}
	return false
}
