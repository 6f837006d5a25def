// Package dataset provides the offline data sources of the fallback
// chain: a local dataset loaded from YAML files, and a bundled
// reduced dataset used as the last resort when every other source
// failed.
package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/lexigen-app/lexigen/internal/lexicon"
)

// file is the on-disk shape of one dataset file: a list of entries.
type file struct {
	Entries []lexicon.Entry `yaml:"entries"`
}

// Dataset is an in-memory index of entries keyed by normalized
// query + language.
type Dataset struct {
	entries map[string]lexicon.Entry
}

// Load reads every *.yml/*.yaml file under dir. A missing directory is
// not an error: it yields an empty dataset, and lookups simply miss.
func Load(dir string) (*Dataset, error) {
	d := &Dataset{entries: make(map[string]lexicon.Entry)}

	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("os.ReadDir > %w", err)
	}

	for _, f := range files {
		ext := filepath.Ext(f.Name())
		if f.IsDir() || (ext != ".yml" && ext != ".yaml") {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("file: %s, os.ReadFile > %w", f.Name(), err)
		}
		if err := d.add(contents); err != nil {
			return nil, fmt.Errorf("file: %s > %w", f.Name(), err)
		}
	}
	return d, nil
}

func (d *Dataset) add(contents []byte) error {
	var decoded file
	if err := yaml.Unmarshal(contents, &decoded); err != nil {
		return fmt.Errorf("yaml.Unmarshal > %w", err)
	}
	for _, entry := range decoded.Entries {
		key := lexicon.NewKey(entry.Word, entry.Language)
		d.entries[key.String()] = entry
	}
	return nil
}

// Lookup returns the entry for the query in the target language.
func (d *Dataset) Lookup(query, language string) (*lexicon.Entry, bool) {
	entry, ok := d.entries[lexicon.NewKey(query, language).String()]
	if !ok {
		return nil, false
	}
	return &entry, true
}

// Len returns the number of indexed entries.
func (d *Dataset) Len() int {
	return len(d.entries)
}

var (
	fallbackOnce sync.Once
	fallbackSet  *Dataset
)

// Fallback returns the bundled reduced dataset. It is parsed once; the
// bundled data is validated by tests, so a decode failure here is a
// build defect and panics.
func Fallback() *Dataset {
	fallbackOnce.Do(func() {
		fallbackSet = &Dataset{entries: make(map[string]lexicon.Entry)}
		entries, err := fs.ReadFile(embedded, "fallback.yml")
		if err != nil {
			panic(fmt.Errorf("fs.ReadFile(fallback.yml) > %w", err))
		}
		if err := fallbackSet.add(entries); err != nil {
			panic(fmt.Errorf("bundled fallback dataset > %w", err))
		}
	})
	return fallbackSet
}
