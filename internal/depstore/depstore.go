// Package depstore persists the extra file dependencies discovered for each
// compiled object — the headers its translation unit actually read. Records
// live next to their objects in the variant's output tree and are merged
// back into the graph as prerequisite edges at the start of the next run.
package depstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/masonbuild/mason/internal/fsutil"
)

// RecordSuffix is appended to an object's output-tree path to form its
// record file.
const RecordSuffix = ".deps"

// Record maps one compiled object to the headers it read.
type Record struct {
	Object  string   `yaml:"object"`
	Headers []string `yaml:"headers"`
}

// Store reads and writes dependency records under one variant's output tree.
type Store struct {
	outDir string
}

// New returns a Store rooted at a variant's output tree.
func New(outDir string) *Store {
	return &Store{outDir: outDir}
}

// LoadAll reads every record under the output tree, keyed by the object's
// root-relative path. A first-ever build has no records; that is not an
// error. A record that cannot be parsed is dropped — the worst outcome is
// one conservative recompile.
func (s *Store) LoadAll() (map[string][]string, error) {
	records := make(map[string][]string)
	err := filepath.WalkDir(s.outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == s.outDir {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), RecordSuffix) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var rec Record
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return nil
		}
		if rec.Object != "" {
			records[rec.Object] = rec.Headers
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading dependency records: %w", err)
	}
	return records, nil
}

// Save persists the record for one object after a successful compile. object
// is the object's root-relative path; headers are as reported by the
// compiler. The write is atomic so an interrupted run never leaves a
// truncated record.
func (s *Store) Save(object string, headers []string) error {
	rec := Record{Object: object, Headers: headers}
	data, err := yaml.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encoding dependency record for %s: %w", object, err)
	}
	path := filepath.Join(s.outDir, object+RecordSuffix)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating record directory for %s: %w", object, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing dependency record for %s: %w", object, err)
	}
	return nil
}
