// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FindFilesByName recursively searches the given root path for all files with
// the given base name, returning their paths relative to the root. Any
// directory whose root-relative path matches one of the ignore globs
// (doublestar syntax, e.g. "out" or ".*") is skipped entirely.
func FindFilesByName(rootPath, name string, ignoreGlobs []string) ([]string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(rootPath, path)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() && rel != "." {
			for _, glob := range ignoreGlobs {
				ok, matchErr := doublestar.Match(glob, filepath.ToSlash(rel))
				if matchErr != nil {
					return matchErr
				}
				if ok {
					return filepath.SkipDir
				}
			}
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
