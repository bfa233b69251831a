package profile

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// overridesFile is the hand-edited, user-maintained layer on top of the
// built-in profile table. It lives at ~/.config/workmux/profiles.toml and
// is read once at startup; there is no write path, matching its role as a
// config file a user edits directly rather than one the program manages.
type overridesFile struct {
	Profiles map[string]tomlProfile `toml:"profiles"`
}

type tomlProfile struct {
	NeedsBangDelay  bool   `toml:"needs_bang_delay"`
	NeedsAutoStatus bool   `toml:"needs_auto_status"`
	PromptStyle     string `toml:"prompt_style"`
}

// LoadOverrides reads path as a TOML overrides file and returns the
// profiles it declares, keyed by name. A missing file is not an error: it
// returns an empty map, since the override file is optional.
func LoadOverrides(path string) (map[string]Profile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]Profile{}, nil
	}

	var parsed overridesFile
	if _, err := toml.DecodeFile(path, &parsed); err != nil {
		return nil, fmt.Errorf("parsing profile overrides %s: %w", path, err)
	}

	out := make(map[string]Profile, len(parsed.Profiles))
	for name, tp := range parsed.Profiles {
		out[name] = Profile{
			Name:            name,
			NeedsBangDelay:  tp.NeedsBangDelay,
			NeedsAutoStatus: tp.NeedsAutoStatus,
			PromptStyle:     parsePromptStyle(tp.PromptStyle),
		}
	}
	return out, nil
}

func parsePromptStyle(s string) PromptStyle {
	switch PromptStyle(s) {
	case StyleDashI, StylePromptFlag, StyleDashDash:
		return PromptStyle(s)
	default:
		return StyleDashDash
	}
}
