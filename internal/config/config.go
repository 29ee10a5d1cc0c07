package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the top-level configuration for the agent runtime: workspace
// location, model/provider selection, tool policy, and the ambient
// logging/retry knobs the Agent Turn Engine and Executor read at startup.
type Config struct {
	// Version is the config file format version. Zero means unset, which
	// Load treats as CurrentVersion for backward compatibility with
	// configs written before versioning existed.
	Version   int             `yaml:"version"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	LLM       LLMConfig       `yaml:"llm"`
	Tools     ToolsConfig     `yaml:"tools"`
	Agent     AgentConfig     `yaml:"agent"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorkspaceConfig locates the project root and the memory/identity files
// loaded into the system prompt.
type WorkspaceConfig struct {
	Path       string `yaml:"path"`
	MaxChars   int    `yaml:"max_chars"`
	AgentsFile string `yaml:"agents_file"`
	MemoryFile string `yaml:"memory_file"`
}

// LLMConfig selects the default provider/model and lists the providers
// available to the Stream Adapter.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	DefaultModel    string                       `yaml:"default_model"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`
}

// LLMProviderConfig holds the connection details for a single provider.
type LLMProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// ToolsConfig controls the tool registry's approval policy and the Bash
// tool's execution limits.
type ToolsConfig struct {
	Approval  ApprovalConfig  `yaml:"approval"`
	Execution ExecutionConfig `yaml:"execution"`
}

// ApprovalConfig mirrors the tool policy knobs the teacher exposes, trimmed
// to the allow/deny-by-pattern shape the Tool Registry filters against.
type ApprovalConfig struct {
	// Allowlist contains tool name patterns that never require approval.
	// Supports glob-style patterns like "mcp:*" and the literal "*".
	Allowlist []string `yaml:"allowlist"`

	// Denylist contains tool name patterns that are always rejected.
	Denylist []string `yaml:"denylist"`

	// DefaultDecision is applied when no allow/deny pattern matches:
	// "allowed" or "denied".
	DefaultDecision string `yaml:"default_decision"`
}

// ExecutionConfig controls the Bash tool's process limits.
type ExecutionConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxOutput    int           `yaml:"max_output"`
	MaxTurns     int           `yaml:"max_turns"`
	MaxToolCalls int           `yaml:"max_tool_calls"`
}

// AgentConfig carries the Agent Turn Engine's retry/backoff/timeout budget.
type AgentConfig struct {
	MaxRetries       int           `yaml:"max_retries"`
	InitialBackoff   time.Duration `yaml:"initial_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	FirstEventTimeout time.Duration `yaml:"first_event_timeout"`
	MaxWallTime      time.Duration `yaml:"max_wall_time"`
}

// LoggingConfig configures the observability.Logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path, merging any $include directives, then applies env
// overrides, defaults, and validation, in that order. If an
// ".agentcore.toml" file sits next to path (or in the workspace once
// Workspace.Path is known), its values overlay the YAML document — see
// applyTOMLOverlay.
func Load(path string) (*Config, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := decodeRawConfig(raw)
	if err != nil {
		return nil, err
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if err := ValidateVersion(cfg.Version); err != nil {
		return nil, err
	}

	if err := applyTOMLOverlay(cfg, filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("failed to apply project config overlay: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workspace.Path == "" {
		cfg.Workspace.Path = "."
	}
	if cfg.Workspace.MaxChars == 0 {
		cfg.Workspace.MaxChars = 20000
	}
	if cfg.Workspace.AgentsFile == "" {
		cfg.Workspace.AgentsFile = "AGENTS.md"
	}
	if cfg.Workspace.MemoryFile == "" {
		cfg.Workspace.MemoryFile = "MEMORY.md"
	}

	if cfg.LLM.DefaultProvider == "" {
		cfg.LLM.DefaultProvider = "anthropic"
	}

	if cfg.Tools.Approval.DefaultDecision == "" {
		cfg.Tools.Approval.DefaultDecision = "allowed"
	}
	if cfg.Tools.Execution.Timeout == 0 {
		cfg.Tools.Execution.Timeout = 2 * time.Minute
	}
	if cfg.Tools.Execution.MaxOutput == 0 {
		cfg.Tools.Execution.MaxOutput = 64000
	}
	if cfg.Tools.Execution.MaxToolCalls == 0 {
		cfg.Tools.Execution.MaxToolCalls = 64
	}

	if cfg.Agent.MaxRetries == 0 {
		cfg.Agent.MaxRetries = 10
	}
	if cfg.Agent.InitialBackoff == 0 {
		cfg.Agent.InitialBackoff = time.Second
	}
	if cfg.Agent.MaxBackoff == 0 {
		cfg.Agent.MaxBackoff = 30 * time.Second
	}
	if cfg.Agent.FirstEventTimeout == 0 {
		cfg.Agent.FirstEventTimeout = 60 * time.Second
	}
	if cfg.Agent.MaxWallTime == 0 {
		cfg.Agent.MaxWallTime = 30 * time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if value := strings.TrimSpace(os.Getenv("AGENTCORE_LOG_LEVEL")); value != "" {
		cfg.Logging.Level = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENTCORE_WORKSPACE")); value != "" {
		cfg.Workspace.Path = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENTCORE_DEFAULT_PROVIDER")); value != "" {
		cfg.LLM.DefaultProvider = value
	}
	if value := strings.TrimSpace(os.Getenv("AGENTCORE_DEFAULT_MODEL")); value != "" {
		cfg.LLM.DefaultModel = value
	}

	// Provider API keys follow <PROVIDER>_API_KEY, matching the pattern
	// .env files loaded by godotenv typically populate.
	for name, provider := range cfg.LLM.Providers {
		envName := strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		if value := strings.TrimSpace(os.Getenv(envName)); value != "" {
			provider.APIKey = value
			cfg.LLM.Providers[name] = provider
		}
	}
}

// ConfigValidationError reports one or more invalid configuration values.
type ConfigValidationError struct {
	Issues []string
}

func (e *ConfigValidationError) Error() string {
	return "config validation failed:\n- " + strings.Join(e.Issues, "\n- ")
}

func validateConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	var issues []string

	if cfg.Workspace.MaxChars < 0 {
		issues = append(issues, "workspace.max_chars must be >= 0")
	}

	if decision := strings.ToLower(strings.TrimSpace(cfg.Tools.Approval.DefaultDecision)); decision != "" {
		switch decision {
		case "allowed", "denied":
		default:
			issues = append(issues, `tools.approval.default_decision must be "allowed" or "denied"`)
		}
	}
	if cfg.Tools.Execution.Timeout < 0 {
		issues = append(issues, "tools.execution.timeout must be >= 0")
	}
	if cfg.Tools.Execution.MaxOutput < 0 {
		issues = append(issues, "tools.execution.max_output must be >= 0")
	}
	if cfg.Tools.Execution.MaxToolCalls < 0 {
		issues = append(issues, "tools.execution.max_tool_calls must be >= 0")
	}

	if cfg.Agent.MaxRetries < 0 {
		issues = append(issues, "agent.max_retries must be >= 0")
	}
	if cfg.Agent.InitialBackoff < 0 {
		issues = append(issues, "agent.initial_backoff must be >= 0")
	}
	if cfg.Agent.MaxBackoff < 0 {
		issues = append(issues, "agent.max_backoff must be >= 0")
	}

	defaultProvider := strings.ToLower(strings.TrimSpace(cfg.LLM.DefaultProvider))
	if defaultProvider != "" && len(cfg.LLM.Providers) > 0 {
		if _, ok := cfg.LLM.Providers[defaultProvider]; !ok {
			if _, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]; !ok {
				issues = append(issues, fmt.Sprintf("llm.providers missing entry for default_provider %q", cfg.LLM.DefaultProvider))
			}
		}
	}

	if len(issues) > 0 {
		return &ConfigValidationError{Issues: issues}
	}
	return nil
}
