package config

import (
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

// applyFirstRunDefaults fills empty roots and the sync folder from the
// usual install locations and enables PPSSPP as a working example.
func (c *Config) applyFirstRunDefaults() {
	c.DetectMissing()
	ppsspp := c.Emulator(types.TargetPPSSPP)
	if !ppsspp.Enabled {
		ppsspp.Enabled = true
		_ = c.SetEmulator(types.TargetPPSSPP, ppsspp)
	}
}

// DetectMissing fills every empty emulator root and an empty sync folder
// with detected defaults. It returns the keys that changed.
func (c *Config) DetectMissing() []string {
	var changed []string
	for _, kind := range types.BuiltinKinds {
		settings := c.Emulator(kind)
		if settings.Path != "" {
			continue
		}
		if root := targets.DetectDefaultRoot(kind); root != "" {
			settings.Path = root
			_ = c.SetEmulator(kind, settings)
			changed = append(changed, targetKeys[kind][0])
		}
	}
	if c.SyncPath == "" {
		if sync := targets.DetectSyncFolder(); sync != "" {
			c.SetSyncPath(sync)
			changed = append(changed, "SYNC_PATH")
		}
	}
	return changed
}
