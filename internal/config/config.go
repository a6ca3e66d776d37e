package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tis24dev/savesync/internal/types"
	"github.com/tis24dev/savesync/pkg/utils"
)

const (
	// DefaultFileName is the name of the configuration file inside the base directory.
	DefaultFileName = "savesync.env"
	appDirName      = "savesync"
)

var multiValueKeys = map[string]bool{
	"AGE_RECIPIENT": true,
}

// targetKeys maps each emulator kind to its path/enabled keys.
var targetKeys = map[types.TargetKind][2]string{
	types.TargetPPSSPP: {"PPSSPP_PATH", "PPSSPP_ENABLED"},
	types.TargetPCSX2:  {"PCSX2_PATH", "PCSX2_ENABLED"},
	types.TargetCitra:  {"CITRA_PATH", "CITRA_ENABLED"},
}

// EmulatorSettings is the persisted state of a built-in target.
type EmulatorSettings struct {
	Path    string
	Enabled bool
}

// Config holds the general configuration record.
type Config struct {
	ConfigPath string
	BaseDir    string
	// Exists is false when no configuration file was found (first run).
	Exists bool

	// General
	Language   string
	DebugLevel types.LogLevel
	UseColor   bool

	// Folders
	SyncPath   string
	StagingDir string
	ExtrasFile string
	LocalesDir string

	// Emulators
	Emulators map[types.TargetKind]EmulatorSettings

	// Archiver
	ArchiverPath    string
	ArchiverKind    types.ArchiverKind
	ArchiverTimeout time.Duration

	// Safety
	LockPath       string
	MaxLockAge     time.Duration
	MinFreeSpaceMB int
	FSTimeout      time.Duration

	// Sealed copies
	SealArchives     bool
	AgeRecipients    []string
	AgeRecipientFile string
	AgeIdentityFile  string

	// Logs, history, metrics
	LogPath        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	SessionLogDir  string
	HistoryEnabled bool
	HistoryPath    string
	MetricsEnabled bool
	MetricsPath    string

	// Scheduler
	Schedule string

	raw   map[string]string
	dirty map[string]bool
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, appDirName, DefaultFileName)
	}
	return DefaultFileName
}

// LoadConfig reads the configuration file at configPath. A missing file is
// not an error: defaults are returned with Exists=false, with the first
// emulator enabled as an example and default folders detected.
func LoadConfig(configPath string) (*Config, error) {
	configPath = strings.TrimSpace(configPath)
	if configPath == "" {
		configPath = DefaultConfigPath()
	}
	absPath, err := utils.AbsPath(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ConfigPath: absPath,
		BaseDir:    filepath.Dir(absPath),
		raw:        map[string]string{},
		dirty:      map[string]bool{},
	}

	if utils.FileExists(absPath) {
		rawValues, err := parseEnvFile(absPath)
		if err != nil {
			return nil, err
		}
		cfg.raw = rawValues
		cfg.Exists = true
	} else {
		// Template defaults, so an unsaved config behaves like a fresh file.
		rawValues, err := parseEnvBody(DefaultEnvTemplate())
		if err != nil {
			return nil, fmt.Errorf("invalid embedded template: %w", err)
		}
		cfg.raw = rawValues
	}

	// Environment variables take precedence over file values.
	cfg.loadEnvOverrides()

	if err := cfg.parse(); err != nil {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}
	if !cfg.Exists {
		cfg.applyFirstRunDefaults()
	}
	return cfg, nil
}

func (c *Config) loadEnvOverrides() {
	envKeys := []string{
		"LANGUAGE", "DEBUG_LEVEL", "USE_COLOR",
		"SYNC_PATH", "STAGING_DIR", "EXTRAS_FILE", "LOCALES_DIR",
		"PPSSPP_PATH", "PPSSPP_ENABLED", "PCSX2_PATH", "PCSX2_ENABLED", "CITRA_PATH", "CITRA_ENABLED",
		"ARCHIVER_PATH", "ARCHIVER_KIND", "ARCHIVER_TIMEOUT_MINUTES",
		"LOCK_PATH", "MAX_LOCK_AGE_MINUTES", "MIN_FREE_SPACE_MB", "FS_TIMEOUT_SECONDS",
		"SEAL_ARCHIVES", "AGE_RECIPIENT", "AGE_RECIPIENT_FILE", "AGE_IDENTITY_FILE",
		"LOG_PATH", "LOG_MAX_SIZE_MB", "LOG_MAX_BACKUPS", "SESSION_LOG_DIR",
		"HISTORY_ENABLED", "HISTORY_PATH", "METRICS_ENABLED", "METRICS_PATH",
		"SCHEDULE",
	}

	for _, key := range envKeys {
		if envValue := os.Getenv(key); envValue != "" {
			c.raw[key] = envValue
		}
	}
}

func (c *Config) parse() error {
	c.Language = strings.TrimSpace(c.getString("LANGUAGE", "EN"))
	if c.Language == "" {
		c.Language = "EN"
	}
	c.DebugLevel = c.getLogLevel("DEBUG_LEVEL", types.LogLevelInfo)
	if disableColors, ok := c.raw["DISABLE_COLORS"]; ok {
		c.UseColor = !utils.ParseBool(disableColors)
	} else {
		c.UseColor = c.getBool("USE_COLOR", true)
	}

	c.SyncPath = c.getPath("SYNC_PATH", "")
	c.StagingDir = c.getPath("STAGING_DIR", filepath.Join(c.BaseDir, "Multi Savedata Backup"))
	c.ExtrasFile = c.getPath("EXTRAS_FILE", filepath.Join(c.BaseDir, "extra_backups.json"))
	c.LocalesDir = c.getPath("LOCALES_DIR", "")

	c.Emulators = make(map[types.TargetKind]EmulatorSettings, len(targetKeys))
	for kind, keys := range targetKeys {
		c.Emulators[kind] = EmulatorSettings{
			Path:    c.getPath(keys[0], ""),
			Enabled: c.getBool(keys[1], false),
		}
	}

	c.ArchiverPath = c.getPath("ARCHIVER_PATH", "")
	switch kind := strings.ToLower(c.getString("ARCHIVER_KIND", "")); kind {
	case "":
	case "winrar", "rar":
		c.ArchiverKind = types.ArchiverWinRAR
	case "7zip", "7z", "7-zip":
		c.ArchiverKind = types.Archiver7Zip
	default:
		return fmt.Errorf("ARCHIVER_KIND must be winrar or 7zip, got %q", kind)
	}
	c.ArchiverTimeout = time.Duration(c.ensurePositiveInt("ARCHIVER_TIMEOUT_MINUTES", 30)) * time.Minute

	c.LockPath = c.getPath("LOCK_PATH", filepath.Join(c.BaseDir, "savesync.lock"))
	c.MaxLockAge = time.Duration(c.ensurePositiveInt("MAX_LOCK_AGE_MINUTES", 120)) * time.Minute
	c.MinFreeSpaceMB = c.getInt("MIN_FREE_SPACE_MB", 50)
	if c.MinFreeSpaceMB < 0 {
		c.MinFreeSpaceMB = 0
	}
	c.FSTimeout = time.Duration(c.ensurePositiveInt("FS_TIMEOUT_SECONDS", 10)) * time.Second

	c.SealArchives = c.getBool("SEAL_ARCHIVES", false)
	c.AgeRecipients = c.getStringSlice("AGE_RECIPIENT", nil)
	c.AgeRecipientFile = c.getPath("AGE_RECIPIENT_FILE", "")
	c.AgeIdentityFile = c.getPath("AGE_IDENTITY_FILE", "")
	if c.SealArchives && len(c.AgeRecipients) == 0 && c.AgeRecipientFile == "" {
		return fmt.Errorf("SEAL_ARCHIVES requires AGE_RECIPIENT or AGE_RECIPIENT_FILE")
	}

	c.LogPath = c.getPath("LOG_PATH", "")
	c.LogMaxSizeMB = c.ensurePositiveInt("LOG_MAX_SIZE_MB", 5)
	c.LogMaxBackups = c.getInt("LOG_MAX_BACKUPS", 3)
	c.SessionLogDir = c.getPath("SESSION_LOG_DIR", "")
	c.HistoryEnabled = c.getBool("HISTORY_ENABLED", true)
	c.HistoryPath = c.getPath("HISTORY_PATH", filepath.Join(c.BaseDir, "history.db"))
	c.MetricsEnabled = c.getBool("METRICS_ENABLED", false)
	c.MetricsPath = c.getPath("METRICS_PATH", filepath.Join(c.BaseDir, "metrics"))

	c.Schedule = strings.TrimSpace(c.getString("SCHEDULE", "0 0 */6 * * *"))
	return nil
}

// Emulator returns the settings of a built-in target.
func (c *Config) Emulator(kind types.TargetKind) EmulatorSettings {
	return c.Emulators[kind]
}

// SetEmulator updates the settings of a built-in target in memory.
// Call Save to persist.
func (c *Config) SetEmulator(kind types.TargetKind, settings EmulatorSettings) error {
	keys, ok := targetKeys[kind]
	if !ok {
		return fmt.Errorf("%s is not a built-in target", kind)
	}
	c.Emulators[kind] = settings
	c.Set(keys[0], settings.Path)
	c.Set(keys[1], strconv.FormatBool(settings.Enabled))
	return nil
}

// SetSyncPath updates the synchronized folder in memory.
func (c *Config) SetSyncPath(path string) {
	c.SyncPath = path
	c.Set("SYNC_PATH", path)
}

// SetLanguage updates the message language in memory.
func (c *Config) SetLanguage(lang string) {
	c.Language = lang
	c.Set("LANGUAGE", lang)
}

func (c *Config) getString(key, defaultValue string) string {
	if val, ok := c.raw[key]; ok {
		return c.expandEnvVars(val)
	}
	return defaultValue
}

// getPath returns an expanded, cleaned path (empty stays empty).
func (c *Config) getPath(key, defaultValue string) string {
	val := strings.TrimSpace(c.getString(key, defaultValue))
	if val == "" {
		return ""
	}
	return filepath.Clean(utils.ExpandHome(val))
}

func (c *Config) getBool(key string, defaultValue bool) bool {
	if val, ok := c.raw[key]; ok && strings.TrimSpace(val) != "" {
		return utils.ParseBool(val)
	}
	return defaultValue
}

func (c *Config) getInt(key string, defaultValue int) int {
	if val, ok := c.raw[key]; ok {
		if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func (c *Config) ensurePositiveInt(key string, defaultValue int) int {
	value := c.getInt(key, defaultValue)
	if value <= 0 {
		return defaultValue
	}
	return value
}

func (c *Config) getLogLevel(key string, defaultValue types.LogLevel) types.LogLevel {
	val, ok := c.raw[key]
	if !ok {
		return defaultValue
	}
	if intVal, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
		if intVal < int(types.LogLevelNone) || intVal > int(types.LogLevelDebug) {
			return defaultValue
		}
		return types.LogLevel(intVal)
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "standard":
		return types.LogLevelInfo
	case "advanced", "debug":
		return types.LogLevelDebug
	}
	return defaultValue
}

func (c *Config) getStringSlice(key string, defaultValue []string) []string {
	val, ok := c.raw[key]
	if !ok {
		return defaultValue
	}
	parts := strings.FieldsFunc(val, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	var result []string
	for _, part := range parts {
		if trimmed := strings.Trim(strings.TrimSpace(part), `"'`); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// expandEnvVars expands $VAR and ${VAR}; BASE_DIR resolves to the directory
// holding the configuration file unless set in the environment.
func (c *Config) expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(key string) string {
		if key == "BASE_DIR" {
			if val := os.Getenv("BASE_DIR"); val != "" {
				return val
			}
			return c.BaseDir
		}
		return os.Getenv(key)
	})
}

// Get returns a raw configuration value.
func (c *Config) Get(key string) (string, bool) {
	val, ok := c.raw[key]
	return val, ok
}

// Set stores a raw configuration value in memory and marks it for Save.
func (c *Config) Set(key, value string) {
	c.raw[key] = value
	c.dirty[key] = true
}

func parseEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %w", err)
	}
	return parseEnvBody(string(data))
}

func parseEnvBody(body string) (map[string]string, error) {
	raw := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if utils.IsComment(line) {
			continue
		}
		key, value, ok := utils.SplitKeyValue(line)
		if !ok || key == "" {
			continue
		}
		key = strings.TrimPrefix(key, "export ")
		if multiValueKeys[key] && raw[key] != "" && value != "" {
			raw[key] = raw[key] + "\n" + value
			continue
		}
		if multiValueKeys[key] && value == "" {
			if _, seen := raw[key]; seen {
				continue
			}
		}
		raw[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	return raw, nil
}
