package orchestrator

import (
	"strings"

	"github.com/tis24dev/savesync/internal/config"
	"github.com/tis24dev/savesync/internal/registry"
	"github.com/tis24dev/savesync/internal/targets"
	"github.com/tis24dev/savesync/internal/types"
)

// Targets builds the run order: built-ins in fixed kind order, then extras
// in registry order. Disabled targets are included and skipped at run time.
func Targets(cfg *config.Config, data registry.Data) []targets.Target {
	list := make([]targets.Target, 0, len(types.BuiltinKinds)+len(data.Extras))
	for _, kind := range types.BuiltinKinds {
		settings := cfg.Emulator(kind)
		list = append(list, targets.Builtin(kind, settings.Path, settings.Enabled))
	}
	for _, extra := range data.Extras {
		list = append(list, extra.Target())
	}
	return list
}

// Select keeps the targets whose name matches one of names (case-insensitive
// for built-ins). An empty names list keeps everything.
func Select(list []targets.Target, names []string) []targets.Target {
	if len(names) == 0 {
		return list
	}
	var out []targets.Target
	for _, t := range list {
		for _, name := range names {
			if matchesName(t, name) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func matchesName(t targets.Target, name string) bool {
	if t.Kind == types.TargetCustom {
		return t.Name == name
	}
	kind, ok := types.ParseTargetKind(strings.ToLower(strings.TrimSpace(name)))
	return ok && kind == t.Kind
}
