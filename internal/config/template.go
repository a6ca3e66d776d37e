package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tis24dev/savesync/pkg/utils"
)

//go:embed templates/savesync.env
var defaultEnvTemplate string

// DefaultEnvTemplate returns the commented configuration template.
func DefaultEnvTemplate() string {
	return defaultEnvTemplate
}

// Save writes every value changed through Set (or the setters) back to the
// configuration file, keeping comments and layout. A missing file is created
// from the template.
func (c *Config) Save() error {
	body := DefaultEnvTemplate()
	mode := os.FileMode(0o600)
	if data, err := os.ReadFile(c.ConfigPath); err == nil {
		body = string(data)
		if info, err := os.Stat(c.ConfigPath); err == nil {
			mode = info.Mode() & os.ModePerm
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot read configuration file %s: %w", c.ConfigPath, err)
	}

	keys := make([]string, 0, len(c.dirty))
	for key := range c.dirty {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		body = utils.SetEnvValue(body, key, utils.QuoteValue(c.raw[key]))
	}

	if err := writeFileAtomic(c.ConfigPath, []byte(body), mode); err != nil {
		return err
	}
	c.dirty = map[string]bool{}
	c.Exists = true
	return nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary config: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temporary config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temporary config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace config %s: %w", path, err)
	}
	return nil
}

// templateKeys lists the keys defined by the template, in order.
func templateKeys() []string {
	var keys []string
	seen := map[string]bool{}
	for _, line := range strings.Split(DefaultEnvTemplate(), "\n") {
		if utils.IsComment(line) {
			continue
		}
		key, _, ok := utils.SplitKeyValue(line)
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}
