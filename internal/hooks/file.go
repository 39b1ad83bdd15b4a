package hooks

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/muxd/internal/cmdq"
)

// ParseFunc turns a command line into a command list. The parser lives
// outside this package; callers supply it when loading definitions.
type ParseFunc func(line, file string, lineno int) (*cmdq.List, error)

// fileFormat is the TOML shape of a hooks file:
//
//	[hooks]
//	"after-new-window" = "display-message \"window added\""
type fileFormat struct {
	Hooks map[string]string `toml:"hooks"`
}

// LoadFile reads a TOML hooks file and installs every definition into r,
// replacing its previous contents. A missing file leaves r empty and is not
// an error; a definition that fails to parse is skipped and reported in the
// returned error list. On a read or decode failure the registry keeps its
// current contents.
func LoadFile(r *Registry, path string, parse ParseFunc) []error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.Clear()
			return nil
		}
		return []error{fmt.Errorf("hooks: read %s: %w", path, err)}
	}

	var f fileFormat
	if err := toml.Unmarshal(data, &f); err != nil {
		return []error{fmt.Errorf("hooks: parse %s: %w", path, err)}
	}

	r.Clear()
	var errs []error
	for name, line := range f.Hooks {
		list, err := parse(line, path, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("hooks: %s: %w", name, err))
			continue
		}
		r.Set(name, list)
		list.Release() // registry holds its own reference now
	}

	hookLog.Info("hooks_loaded",
		slog.String("path", path),
		slog.Int("count", len(f.Hooks)-len(errs)),
	)
	return errs
}
