// Package registry persists the user-defined extra targets.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/targets"
)

// Extra is one user-defined target as stored on disk.
type Extra struct {
	Name       string   `json:"name"`
	RootPath   string   `json:"root_path"`
	BaseFolder string   `json:"base_folder"`
	Structure  []string `json:"structure"`
	Enabled    bool     `json:"enabled"`
}

// Target converts the record to a backup target.
func (e Extra) Target() targets.Target {
	return targets.Custom(e.Name, e.RootPath, e.BaseFolder, e.Enabled)
}

// Data is the ordered set of extras.
type Data struct {
	Extras []Extra `json:"extras"`
}

// rawExtra keeps field presence so incomplete records can be dropped.
type rawExtra struct {
	Name       *string  `json:"name"`
	RootPath   *string  `json:"root_path"`
	BaseFolder *string  `json:"base_folder"`
	Structure  []string `json:"structure"`
	Enabled    *bool    `json:"enabled"`
}

// Store reads and rewrites the extras file.
type Store struct {
	path   string
	logger *logging.Logger
	mu     sync.Mutex
}

// NewStore returns a store backed by path.
func NewStore(logger *logging.Logger, path string) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored extras. A missing or unparsable file yields an
// empty set; records without name, root_path or base_folder are dropped.
func (s *Store) Load() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() Data {
	empty := Data{Extras: []Extra{}}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warning("Cannot read extras file %s: %v", s.path, err)
		}
		return empty
	}

	var doc struct {
		Extras []json.RawMessage `json:"extras"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warning("Ignoring unparsable extras file %s: %v", s.path, err)
		return empty
	}

	out := empty
	for i, raw := range doc.Extras {
		var rec rawExtra
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Debug("Extras record %d is not an object: %v", i, err)
			continue
		}
		// A key present with a JSON null value decodes to a nil pointer and is
		// treated as missing.
		if rec.Name == nil || rec.RootPath == nil || rec.BaseFolder == nil {
			s.logger.Debug("Extras record %d lacks name/root_path/base_folder; dropped", i)
			continue
		}
		extra := Extra{
			Name:       *rec.Name,
			RootPath:   *rec.RootPath,
			BaseFolder: *rec.BaseFolder,
			Structure:  rec.Structure,
			Enabled:    true,
		}
		if extra.Structure == nil {
			extra.Structure = []string{}
		}
		if rec.Enabled != nil {
			extra.Enabled = *rec.Enabled
		}
		out.Extras = append(out.Extras, extra)
	}
	return out
}

// Save rewrites the whole file.
func (s *Store) Save(data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(data)
}

func (s *Store) save(data Data) error {
	if data.Extras == nil {
		data.Extras = []Extra{}
	}
	for i := range data.Extras {
		if data.Extras[i].Structure == nil {
			data.Extras[i].Structure = []string{}
		}
	}
	content, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal extras: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create extras directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write temp extras: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(content, '\n')); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp extras: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp extras: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace extras file: %w", err)
	}
	return nil
}

// Update loads the set, applies mutate and saves the result.
func (s *Store) Update(mutate func(*Data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.load()
	if err := mutate(&data); err != nil {
		return err
	}
	return s.save(data)
}

// Find returns the extra named name.
func (d Data) Find(name string) (Extra, bool) {
	for _, e := range d.Extras {
		if e.Name == name {
			return e, true
		}
	}
	return Extra{}, false
}

// Upsert replaces the extra with the same name or appends a new one.
// It reports whether an existing record was replaced.
func (d *Data) Upsert(extra Extra) bool {
	for i := range d.Extras {
		if d.Extras[i].Name == extra.Name {
			d.Extras[i] = extra
			return true
		}
	}
	d.Extras = append(d.Extras, extra)
	return false
}

// Remove deletes the extra named name.
func (d *Data) Remove(name string) bool {
	for i := range d.Extras {
		if d.Extras[i].Name == name {
			d.Extras = append(d.Extras[:i], d.Extras[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles the extra named name.
func (d *Data) SetEnabled(name string, enabled bool) bool {
	for i := range d.Extras {
		if d.Extras[i].Name == name {
			d.Extras[i].Enabled = enabled
			return true
		}
	}
	return false
}

// Rename changes the name of an extra. The new name must be unused.
func (d *Data) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("new name is empty")
	}
	if _, taken := d.Find(newName); taken && newName != oldName {
		return fmt.Errorf("an extra named %q already exists", newName)
	}
	for i := range d.Extras {
		if d.Extras[i].Name == oldName {
			d.Extras[i].Name = newName
			return nil
		}
	}
	return fmt.Errorf("no extra named %q", oldName)
}

// NewExtra builds a record for an existing directory; base_folder is the
// directory's base name.
func NewExtra(name, root string) (Extra, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Extra{}, fmt.Errorf("name is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Extra{}, fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Extra{}, fmt.Errorf("folder %s: %w", abs, err)
	}
	if !info.IsDir() {
		return Extra{}, fmt.Errorf("%s is not a directory", abs)
	}
	return Extra{
		Name:       name,
		RootPath:   abs,
		BaseFolder: filepath.Base(abs),
		Structure:  []string{},
		Enabled:    true,
	}, nil
}
