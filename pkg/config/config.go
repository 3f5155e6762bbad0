// Package config provides configuration loading, validation, and management for pmcopilot.
//
// A single global Config is kept in memory behind a mutex. GetConfig returns it by
// value; changes go through the Update* functions, which validate and persist to
// <projectDir>/.pmcopilot/config.json.
//
//	err := config.LoadConfig(projectDir)
//	cfg, err := config.GetConfig()
//	err = config.UpdateOrchestrator(&newOrchestratorConfig)
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gupta362/pm-agent-v2/pkg/logx"
)

const (
	// SchemaVersion must be bumped on any incompatible change to Config.
	SchemaVersion = "1.0"

	// ProjectConfigDir holds config.json, secrets.json.enc and the transcript db.
	ProjectConfigDir = ".pmcopilot"

	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"

	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGoogleAPIKey    = "GEMINI_API_KEY"
	EnvGoogleAPIKeyAlt = "GOOGLE_GENAI_API_KEY"
	EnvOllamaHost      = "OLLAMA_HOST"

	EnvModel     = "PMCOPILOT_MODEL"
	EnvMaxRounds = "PMCOPILOT_MAX_ROUNDS"

	DefaultModel        = "claude-sonnet-4-5"
	DefaultMaxRounds    = 8
	DefaultMaxTokens    = 4096
	DefaultTemperature  = 0.3
	DefaultTranscriptDB = "transcripts.db"
	DefaultMetricsAddr  = "127.0.0.1:9464"
	DefaultScenarioMax  = 10
	DefaultOllamaHost   = "http://localhost:11434"
)

//nolint:gochecknoglobals // Intentional singleton pattern for config management
var (
	config     *Config
	projectDir string
	logger     *logx.Logger
	mu         sync.RWMutex
)

func getLogger() *logx.Logger {
	if logger == nil {
		logger = logx.NewLogger("config")
	}
	return logger
}

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string  // API provider (anthropic, openai, google, ollama)
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels registry contains pricing and provider information for common models.
// Unknown models are resolved through ProviderPatterns.
//
//nolint:gochecknoglobals // static model registry
var KnownModels = map[string]ModelInfo{
	"claude-sonnet-4-5": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-sonnet-4-20250514": {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"claude-opus-4-1": {
		Provider:         ProviderAnthropic,
		InputCPM:         15.0,
		OutputCPM:        75.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	"gpt-4.1": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.0,
		OutputCPM:        8.0,
		MaxContextTokens: 1047576,
		MaxOutputTokens:  32768,
	},
	"gpt-4o": {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	"gemini-2.5-pro": {
		Provider:         ProviderGoogle,
		InputCPM:         1.25,
		OutputCPM:        10.0,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
	"gemini-2.5-flash": {
		Provider:         ProviderGoogle,
		InputCPM:         0.3,
		OutputCPM:        2.5,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
}

// ProviderPattern maps a model name prefix to a provider.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns infers providers for model names missing from KnownModels.
//
//nolint:gochecknoglobals // inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"phi", ProviderOllama},
	{"deepseek", ProviderOllama},
	{"ollama:", ProviderOllama}, // Explicit prefix like "ollama:qwen3"
}

// GetModelProvider returns the API provider for a given model.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}
	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match", modelName)
}

// GetModelInfo returns the registry entry for modelName, or conservative defaults and false.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}

	provider, _ := GetModelProvider(modelName)
	return ModelInfo{
		Provider:         provider,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

// CalculateCost returns the USD cost of a call. Unknown models cost 0.
func CalculateCost(modelName string, promptTokens, completionTokens int) float64 {
	info, exists := KnownModels[modelName]
	if !exists {
		return 0
	}
	return (float64(promptTokens)/1_000_000.0)*info.InputCPM + (float64(completionTokens)/1_000_000.0)*info.OutputCPM
}

// OrchestratorConfig controls the turn orchestrator and its LLM exchange.
type OrchestratorConfig struct {
	Model         string  `json:"model"`
	MaxRounds     int     `json:"max_rounds"` // Tool-exchange rounds per turn before RoutingExhausted
	MaxTokens     int     `json:"max_tokens"`
	Temperature   float32 `json:"temperature"`
	DebugMessages bool    `json:"debug_messages"` // Log every message sent to the LLM
}

// TranscriptConfig controls the write-only sqlite transcript log.
type TranscriptConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db_path"` // Relative paths resolve against .pmcopilot/
}

// MetricsConfig controls prometheus export.
type MetricsConfig struct {
	Enabled      bool   `json:"enabled"`
	ListenAddr   string `json:"listen_addr"`
	TextfilePath string `json:"textfile_path,omitempty"`
}

// ScenarioConfig controls the scenario harness.
type ScenarioConfig struct {
	MaxTurns int `json:"max_turns"`
}

// Config is the full on-disk configuration.
type Config struct {
	SchemaVersion string              `json:"schema_version"`
	Orchestrator  *OrchestratorConfig `json:"orchestrator"`
	Transcript    *TranscriptConfig   `json:"transcript"`
	Metrics       *MetricsConfig      `json:"metrics"`
	Scenarios     *ScenarioConfig     `json:"scenarios"`
}

// Default returns a fully defaulted config without touching the global singleton.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// GetProjectDir returns the directory passed to LoadConfig.
func GetProjectDir() string {
	mu.RLock()
	defer mu.RUnlock()
	return projectDir
}

// ResolvePath resolves p against <projectDir>/.pmcopilot unless it is absolute.
func ResolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetProjectDir(), ProjectConfigDir, p)
}

// GetConfig returns the current global config BY VALUE.
func GetConfig() (Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if config == nil {
		return Config{}, fmt.Errorf("config not initialized - call LoadConfig first")
	}
	return *config, nil
}

// SetConfigForTesting sets the global config. Pass nil to reset.
func SetConfigForTesting(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	config = cfg
	if cfg == nil {
		projectDir = ""
	}
}

// LoadConfig loads <projectDir>/.pmcopilot/config.json into the global singleton.
//
// Missing file: defaults are written. Unparseable file: error, the file is left alone.
// Environment overrides are applied after the file and are never persisted.
func LoadConfig(inputProjectDir string) error {
	mu.Lock()
	defer mu.Unlock()

	projectDir = inputProjectDir
	configPath := filepath.Join(projectDir, ProjectConfigDir, "config.json")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		getLogger().Info("📝 Config file not found, creating new config at %s", configPath)
		cfg := Default()
		if err := validateConfig(cfg); err != nil {
			return fmt.Errorf("default config validation failed: %w", err)
		}
		if err := SaveConfig(cfg, projectDir); err != nil {
			return fmt.Errorf("failed to save initial config: %w", err)
		}
		applyEnvOverrides(cfg)
		config = cfg
		return nil
	}

	getLogger().Info("📝 Loading config from %s", configPath)
	loaded, err := loadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf("fatal: config file exists but cannot be parsed (to avoid overwriting your changes): %w", err)
	}

	applyDefaults(loaded)
	if err := validateConfig(loaded); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := SaveConfig(loaded, projectDir); err != nil {
		return fmt.Errorf("failed to save config with applied defaults: %w", err)
	}

	applyEnvOverrides(loaded)
	if err := validateConfig(loaded); err != nil {
		return fmt.Errorf("environment overrides invalid: %w", err)
	}
	config = loaded

	getLogger().Info("✅ Config loaded (model %s, max rounds %d)", loaded.Orchestrator.Model, loaded.Orchestrator.MaxRounds)
	return nil
}

// UpdateOrchestrator validates and persists a new orchestrator section.
func UpdateOrchestrator(orch *OrchestratorConfig) error {
	mu.Lock()
	defer mu.Unlock()

	if config == nil {
		return fmt.Errorf("config not initialized - call LoadConfig first")
	}

	updated := *config
	o := *orch
	updated.Orchestrator = &o
	applyDefaults(&updated)
	if err := validateConfig(&updated); err != nil {
		return err
	}
	config = &updated

	if projectDir == "" {
		return nil
	}
	return SaveConfig(config, projectDir)
}

func loadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON %s: %w", configPath, err)
	}
	return &cfg, nil
}

// SaveConfig writes cfg to <projectDir>/.pmcopilot/config.json.
func SaveConfig(cfg *Config, dir string) error {
	configPath := filepath.Join(dir, ProjectConfigDir, "config.json")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaVersion
	}

	if cfg.Orchestrator == nil {
		cfg.Orchestrator = &OrchestratorConfig{}
	}
	if cfg.Orchestrator.Model == "" {
		cfg.Orchestrator.Model = DefaultModel
	}
	if cfg.Orchestrator.MaxRounds == 0 {
		cfg.Orchestrator.MaxRounds = DefaultMaxRounds
	}
	if cfg.Orchestrator.MaxTokens == 0 {
		cfg.Orchestrator.MaxTokens = DefaultMaxTokens
	}
	if cfg.Orchestrator.Temperature == 0 {
		cfg.Orchestrator.Temperature = DefaultTemperature
	}

	if cfg.Transcript == nil {
		cfg.Transcript = &TranscriptConfig{Enabled: true}
	}
	if cfg.Transcript.DBPath == "" {
		cfg.Transcript.DBPath = DefaultTranscriptDB
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = DefaultMetricsAddr
	}

	if cfg.Scenarios == nil {
		cfg.Scenarios = &ScenarioConfig{}
	}
	if cfg.Scenarios.MaxTurns == 0 {
		cfg.Scenarios.MaxTurns = DefaultScenarioMax
	}
}

func applyEnvOverrides(cfg *Config) {
	if model := os.Getenv(EnvModel); model != "" {
		cfg.Orchestrator.Model = model
	}
	if raw := os.Getenv(EnvMaxRounds); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			getLogger().Warn("⚠️  Ignoring %s=%q: %v", EnvMaxRounds, raw, err)
			return
		}
		cfg.Orchestrator.MaxRounds = n
	}
}

func validateConfig(cfg *Config) error {
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema_version %q (want %q)", cfg.SchemaVersion, SchemaVersion)
	}

	orch := cfg.Orchestrator
	if _, err := GetModelProvider(orch.Model); err != nil {
		return fmt.Errorf("orchestrator.model: %w", err)
	}
	if orch.MaxRounds < 1 || orch.MaxRounds > 50 {
		return fmt.Errorf("orchestrator.max_rounds must be between 1 and 50, got %d", orch.MaxRounds)
	}
	if orch.MaxTokens < 256 {
		return fmt.Errorf("orchestrator.max_tokens must be at least 256, got %d", orch.MaxTokens)
	}
	if orch.Temperature < 0 || orch.Temperature > 2 {
		return fmt.Errorf("orchestrator.temperature must be between 0 and 2, got %g", orch.Temperature)
	}
	if info, _ := GetModelInfo(orch.Model); orch.MaxTokens > info.MaxOutputTokens {
		return fmt.Errorf("orchestrator.max_tokens %d exceeds %s output limit %d", orch.MaxTokens, orch.Model, info.MaxOutputTokens)
	}

	if cfg.Scenarios.MaxTurns < 1 {
		return fmt.Errorf("scenarios.max_turns must be positive, got %d", cfg.Scenarios.MaxTurns)
	}
	return nil
}

// GetAPIKey returns the API key for a provider, or the host URL for Ollama.
// Secrets decrypted from the secrets file take precedence over the environment.
func GetAPIKey(provider string) (string, error) {
	var names []string
	switch provider {
	case ProviderAnthropic:
		names = []string{EnvAnthropicAPIKey}
	case ProviderOpenAI:
		names = []string{EnvOpenAIAPIKey}
	case ProviderGoogle:
		names = []string{EnvGoogleAPIKey, EnvGoogleAPIKeyAlt}
	case ProviderOllama:
		if host, err := GetSecret(EnvOllamaHost); err == nil {
			return host, nil
		}
		return DefaultOllamaHost, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}

	for _, name := range names {
		if key, err := GetSecret(name); err == nil {
			return key, nil
		}
	}
	return "", fmt.Errorf("API key not found: %s not set in secrets file or environment", strings.Join(names, " or "))
}
