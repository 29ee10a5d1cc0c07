package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const projectOverlayFile = ".agentcore.toml"

// tomlOverlay mirrors the subset of Config a project-local override file may
// set. Every field is optional; only present keys are applied.
type tomlOverlay struct {
	Workspace *struct {
		Path       *string `toml:"path"`
		MaxChars   *int    `toml:"max_chars"`
		AgentsFile *string `toml:"agents_file"`
		MemoryFile *string `toml:"memory_file"`
	} `toml:"workspace"`
	LLM *struct {
		DefaultProvider *string `toml:"default_provider"`
		DefaultModel    *string `toml:"default_model"`
	} `toml:"llm"`
	Logging *struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"logging"`
}

// applyTOMLOverlay looks for a project-local .agentcore.toml next to the
// YAML config (or in the workspace root once known) and, if present,
// overlays its values onto cfg. This lets a project pin its own defaults
// (e.g. default_model) without editing the shared YAML config.
func applyTOMLOverlay(cfg *Config, configDir string) error {
	path := filepath.Join(configDir, projectOverlayFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var overlay tomlOverlay
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if ws := overlay.Workspace; ws != nil {
		if ws.Path != nil {
			cfg.Workspace.Path = *ws.Path
		}
		if ws.MaxChars != nil {
			cfg.Workspace.MaxChars = *ws.MaxChars
		}
		if ws.AgentsFile != nil {
			cfg.Workspace.AgentsFile = *ws.AgentsFile
		}
		if ws.MemoryFile != nil {
			cfg.Workspace.MemoryFile = *ws.MemoryFile
		}
	}
	if llm := overlay.LLM; llm != nil {
		if llm.DefaultProvider != nil {
			cfg.LLM.DefaultProvider = *llm.DefaultProvider
		}
		if llm.DefaultModel != nil {
			cfg.LLM.DefaultModel = *llm.DefaultModel
		}
	}
	if logging := overlay.Logging; logging != nil {
		if logging.Level != nil {
			cfg.Logging.Level = *logging.Level
		}
		if logging.Format != nil {
			cfg.Logging.Format = *logging.Format
		}
	}

	return nil
}
