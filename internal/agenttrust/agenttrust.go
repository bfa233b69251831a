// Package agenttrust manages Claude Code's per-project trust entries in
// ~/.claude.json, so a freshly opened worktree never stops to ask the
// agent to accept its trust dialog.
package agenttrust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arthurnw/workmux/internal/atomicfile"
)

const configFileName = ".claude.json"

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home dir: %w", err)
	}
	return filepath.Join(home, configFileName), nil
}

func readConfig(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixed path under $HOME
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{"projects": map[string]interface{}{}}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg map[string]interface{}
	if err := json.Unmarshal(data, &cfg); err != nil {
		// Malformed config: recreate rather than fail the caller's open.
		return map[string]interface{}{"projects": map[string]interface{}{}}, nil
	}
	if _, ok := cfg["projects"]; !ok {
		cfg["projects"] = map[string]interface{}{}
	}
	return cfg, nil
}

func newTrustEntry() map[string]interface{} {
	return map[string]interface{}{
		"allowedTools":                         []interface{}{},
		"mcpContextUris":                        []interface{}{},
		"mcpServers":                            map[string]interface{}{},
		"enabledMcpjsonServers":                 []interface{}{},
		"disabledMcpjsonServers":                []interface{}{},
		"hasTrustDialogAccepted":                true,
		"projectOnboardingSeenCount":            0,
		"hasClaudeMdExternalIncludesApproved":   false,
		"hasClaudeMdExternalIncludesWarningShown": false,
		"hasCompletedProjectOnboarding":          true,
	}
}

// TrustDirectory marks path as a trusted project in ~/.claude.json,
// merging onto any existing entry so user customizations survive. Best
// effort: callers that only want to open a pane should warn and continue
// on error rather than fail the open.
func TrustDirectory(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	cp, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := readConfig(cp)
	if err != nil {
		return err
	}

	projects, ok := cfg["projects"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s: projects key is not an object", cp)
	}

	existing, _ := projects[abs].(map[string]interface{})
	if existing == nil {
		existing = map[string]interface{}{}
	}
	for k, v := range newTrustEntry() {
		if _, present := existing[k]; !present {
			existing[k] = v
		}
	}
	projects[abs] = existing
	cfg["projects"] = projects

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", cp, err)
	}
	return atomicfile.WriteFile(cp, data, 0o600)
}
