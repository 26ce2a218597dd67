package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// opsconductorYAMLConfig mirrors opsconductor.yaml: the non-secret, file-
// editable half of the configuration surface. Secrets and collaborator URLs
// also accept env var overrides per spec §6's closed environment variable
// list, applied after the file is loaded.
type opsconductorYAMLConfig struct {
	Selector      *SelectorConfig      `yaml:"selector"`
	LLMBudget     *LLMBudgetConfig     `yaml:"llm_budget"`
	Features      *FeatureFlags        `yaml:"features"`
	Collaborators *CollaboratorsConfig `yaml:"collaborators"`
	Exec          *ExecConfig          `yaml:"exec"`
	Release       *ReleaseConfig       `yaml:"release"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Load opsconductor.yaml from configDir (if present — a fully defaulted,
//     env-driven config is legal: the file is optional, the secrets are not).
//  2. Expand ${VAR}/$VAR references in the YAML.
//  3. Merge file values over built-in defaults.
//  4. Apply the closed-set environment variable overrides from spec §6.
//  5. Validate all configuration, including that required secrets are set.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("configuration initialized",
		"bypass_llm", cfg.Features.BypassLLM,
		"ambiguity_margin", cfg.Selector.AmbiguityMargin,
		"tokens_per_row_est", cfg.Selector.TokensPerRowEst)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	fileCfg, err := loader.loadYAMLFile()
	if err != nil {
		return nil, err
	}

	selector := DefaultSelectorConfig()
	if fileCfg.Selector != nil {
		if err := mergo.Merge(&selector, *fileCfg.Selector, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge selector config: %w", err)
		}
	}

	llmBudget := DefaultLLMBudgetConfig()
	if fileCfg.LLMBudget != nil {
		if err := mergo.Merge(&llmBudget, *fileCfg.LLMBudget, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm_budget config: %w", err)
		}
	}

	features := FeatureFlags{}
	if fileCfg.Features != nil {
		features = *fileCfg.Features
	}

	collaborators := CollaboratorsConfig{}
	if fileCfg.Collaborators != nil {
		collaborators = *fileCfg.Collaborators
	}

	exec := DefaultExecConfig()
	if fileCfg.Exec != nil {
		if err := mergo.Merge(&exec, *fileCfg.Exec, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge exec config: %w", err)
		}
	}

	release := DefaultReleaseConfig()
	if fileCfg.Release != nil {
		if err := mergo.Merge(&release, *fileCfg.Release, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge release config: %w", err)
		}
	}

	applyEnvOverrides(&selector, &features, &collaborators, &exec, &release)

	secrets := SecretsConfig{
		KMSKey:      os.Getenv("SECRETS_KMS_KEY"),
		InternalKey: os.Getenv("INTERNAL_KEY"),
	}

	return &Config{
		configDir:     configDir,
		Selector:      selector,
		LLMBudget:     llmBudget,
		Features:      features,
		Secrets:       secrets,
		Collaborators: collaborators,
		Exec:          exec,
		Release:       release,
	}, nil
}

// applyEnvOverrides applies the closed set of environment variables from
// spec §6 on top of whatever opsconductor.yaml supplied. Unknown env vars
// are ignored, never errors (spec §9: "unknown env vars are ignored, not
// errors").
func applyEnvOverrides(selector *SelectorConfig, features *FeatureFlags, collaborators *CollaboratorsConfig, exec *ExecConfig, release *ReleaseConfig) {
	if v, ok := os.LookupEnv("FEATURE_BYPASS_LLM"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			features.BypassLLM = b
		}
	}
	if v, ok := os.LookupEnv("SELECTOR_CACHE_TTL_SEC"); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			selector.CacheTTL = time.Duration(secs) * time.Second
		}
	}
	if v, ok := os.LookupEnv("SELECTOR_CACHE_MAX_ENTRIES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			selector.CacheMaxEntries = n
		}
	}
	if v, ok := os.LookupEnv("SELECTOR_DEGRADED_ENABLE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			selector.DegradedEnable = b
		}
	}
	if v, ok := os.LookupEnv("SELECTOR_REDIS_ADDR"); ok {
		selector.RedisAddr = v
	}
	if v, ok := os.LookupEnv("AUTOMATION_SERVICE_URL"); ok {
		collaborators.Automation.URL = v
	}
	if v, ok := os.LookupEnv("COMMUNICATION_SERVICE_URL"); ok {
		collaborators.Communication.URL = v
	}
	if v, ok := os.LookupEnv("ASSET_SERVICE_URL"); ok {
		collaborators.Asset.URL = v
	}
	if v, ok := os.LookupEnv("NETWORK_SERVICE_URL"); ok {
		collaborators.Network.URL = v
	}
	if v, ok := os.LookupEnv("AI_PIPELINE_BASE_URL"); ok {
		collaborators.AIPipelineBaseURL = v
	}
	if v, ok := os.LookupEnv("EXEC_TIMEOUT_MS"); ok {
		if ms, err := strconv.Atoi(v); err == nil {
			exec.TimeoutMS = ms
		}
	}
	if v, ok := os.LookupEnv("RELEASE_ROLLOUT_STAGE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			if s := RolloutStage(n); s.IsValid() {
				release.Stage = s
			}
		}
	}
}

func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAMLFile() (*opsconductorYAMLConfig, error) {
	cfg := &opsconductorYAMLConfig{}
	path := filepath.Join(l.configDir, "opsconductor.yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// The file is optional: defaults + env overrides are a legal
			// configuration (spec §7).
			return cfg, nil
		}
		return nil, NewLoadError("opsconductor.yaml", err)
	}

	data = expandEnv(data)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewLoadError("opsconductor.yaml", fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	return cfg, nil
}

// expandEnv expands ${VAR} and $VAR references in YAML content before
// parsing, so opsconductor.yaml can reference the same env vars
// applyEnvOverrides reads directly. Missing variables expand to empty
// string; validation catches whatever that leaves empty and required.
func expandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
