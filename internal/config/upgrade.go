package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tis24dev/savesync/pkg/utils"
)

// UpgradeResult describes the outcome of a configuration upgrade.
type UpgradeResult struct {
	// BackupPath is the copy of the previous file (empty in dry-run mode).
	BackupPath string
	// MissingKeys are template keys absent from the user's file; they are
	// appended with their template defaults.
	MissingKeys []string
	// Changed reports whether the file was (or would be) modified.
	Changed bool
}

// UpgradeConfigFile appends template keys missing from the file at
// configPath, keeping every existing line untouched. The previous file is
// copied to <path>.backup.<timestamp> first. With dryRun nothing is written.
func UpgradeConfigFile(configPath string, dryRun bool) (*UpgradeResult, error) {
	result := &UpgradeResult{}
	original, err := os.ReadFile(configPath)
	if err != nil {
		return result, fmt.Errorf("cannot read configuration file %s: %w", configPath, err)
	}

	present, err := parseEnvBody(string(original))
	if err != nil {
		return result, err
	}
	defaults, err := parseEnvBody(DefaultEnvTemplate())
	if err != nil {
		return result, err
	}

	var added []string
	for _, key := range templateKeys() {
		if _, ok := present[key]; ok {
			continue
		}
		result.MissingKeys = append(result.MissingKeys, key)
		added = append(added, key+"="+utils.QuoteValue(defaults[key]))
	}
	if len(added) == 0 {
		return result, nil
	}
	result.Changed = true
	if dryRun {
		return result, nil
	}

	body := strings.TrimRight(string(original), "\n")
	body += "\n\n# Added by config upgrade on " + time.Now().Format("2006-01-02") + "\n"
	body += strings.Join(added, "\n") + "\n"

	mode := os.FileMode(0o600)
	if info, err := os.Stat(configPath); err == nil {
		mode = info.Mode() & os.ModePerm
	}
	backupPath := fmt.Sprintf("%s.backup.%s", configPath, time.Now().Format("20060102_150405"))
	if err := os.WriteFile(backupPath, original, mode); err != nil {
		return result, fmt.Errorf("failed to create backup %s: %w", backupPath, err)
	}
	if err := writeFileAtomic(configPath, []byte(body), mode); err != nil {
		return result, err
	}
	result.BackupPath = backupPath

	if _, err := LoadConfig(configPath); err != nil {
		_ = os.Rename(backupPath, configPath)
		return result, fmt.Errorf("upgraded config invalid, restored backup: %w", err)
	}
	return result, nil
}
