package config

import "time"

// SelectorConfig tunes Stage AB's scoring, budget, and cache behavior
// (spec §4.6, §9 Open Questions). Values are expressed in the units the
// corresponding env var names: ratios as fractions, not percentages.
type SelectorConfig struct {
	// AmbiguityMargin is the minimum score gap between the top candidate and
	// the runner-up below which Stage AB treats the result as ambiguous and
	// defers to the LLM tie-break (spec §9: "variously cited as 8% and 15%,
	// the spec mandates configurability with a default in that range").
	AmbiguityMargin float64 `yaml:"ambiguity_margin" validate:"gte=0,lte=1"`

	// TokensPerRowEst is the empirical per-candidate-row token cost used to
	// size max_rows under the LLM context budget (spec §9).
	TokensPerRowEst int `yaml:"tokens_per_row_est" validate:"min=1"`

	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CacheMaxEntries int           `yaml:"cache_max_entries" validate:"min=1"`

	// RedisAddr is the host:port of the Redis instance backing the search
	// cache. It must be shared config, not an in-process cache, because
	// SELECTOR_CACHE_* bounds a fleet-wide entry count/TTL, not a single
	// replica's (spec §4.6).
	RedisAddr string `yaml:"redis_addr" validate:"required"`

	// DegradedEnable decides how GET /api/selector/search answers when the
	// embedding path has failed and the lexical search fails too: 503 with
	// Retry-After: 30 when set, 500 when not. Lexical-only results are served
	// after an embedding failure whether or not it is set.
	DegradedEnable bool `yaml:"degraded_enable"`
}

// LLMBudgetConfig bounds how much of the model's context window Stage AB
// may spend on candidate rows (spec §6). Only Stage AB receives it.
type LLMBudgetConfig struct {
	MaxModelLen  int `yaml:"max_model_len" validate:"min=1"`
	OutputReserve int `yaml:"output_reserve" validate:"min=0"`
	SafetyMargin  int `yaml:"safety_margin" validate:"min=0"`
}

// FeatureFlags is the closed set of runtime toggles recognized by the
// platform (spec §6, §9 "Bypass path").
type FeatureFlags struct {
	// BypassLLM routes /execute through the deterministic echo tool instead
	// of the real pipeline, for walking-skeleton validation and canary
	// metric seeding (spec §9).
	BypassLLM bool `yaml:"bypass_llm"`
}

// SecretsConfig configures the secrets broker's master key material and the
// service-to-service bearer token internal endpoints require.
type SecretsConfig struct {
	// KMSKey is the master symmetric key used to derive the AEAD key for
	// credential ciphertext (spec §4.3). Required; there is no default.
	KMSKey string `yaml:"-"`

	// InternalKey is the pre-shared token internal-only routes compare
	// against X-Internal-Key (spec §6). Required; there is no default.
	InternalKey string `yaml:"-"`
}

// CollaboratorConfig is one entry of the collaborator endpoint registry
// Stage E dispatches to (spec §4.9, §6).
type CollaboratorConfig struct {
	URL string `yaml:"url"`
}

// CollaboratorsConfig is the closed registry of downstream executor
// services, keyed by execution location (spec §3 ExecutionLocation).
type CollaboratorsConfig struct {
	Automation    CollaboratorConfig `yaml:"automation"`
	Communication CollaboratorConfig `yaml:"communication"`
	Asset         CollaboratorConfig `yaml:"asset"`
	Network       CollaboratorConfig `yaml:"network"`
	AIPipelineBaseURL string         `yaml:"ai_pipeline_base_url"`
}

// ExecConfig holds request-scoped execution defaults.
type ExecConfig struct {
	// TimeoutMS is the default per-request deadline applied to /ai/execute
	// and /ai/tools/execute when the caller does not override it (spec §6).
	TimeoutMS int `yaml:"timeout_ms" validate:"min=1"`
}

// ReleaseConfig tunes the canary rollout and SLO burn-rate gate (spec
// §4.11).
type ReleaseConfig struct {
	// Stage is the current traffic-split percentage. Requests are routed
	// to the canary pipeline deterministically by actor ID so a given
	// actor's traffic doesn't flap between the baseline and canary path
	// within a rollout window.
	Stage RolloutStage `yaml:"stage"`

	// ErrorRateThreshold is the SLO gate's error-ratio ceiling over a
	// rolling window (spec §8: "errors/total<0.01").
	ErrorRateThreshold float64 `yaml:"error_rate_threshold" validate:"gt=0,lte=1"`

	// P95ThresholdSeconds/P99ThresholdSeconds are the latency ceilings the
	// gate checks (spec §8: "p95<1.0s"; "p99<2.0s").
	P95ThresholdSeconds float64 `yaml:"p95_threshold_seconds" validate:"gt=0"`
	P99ThresholdSeconds float64 `yaml:"p99_threshold_seconds" validate:"gt=0"`

	// FastBurnRateMultiple/SlowBurnRateMultiple are the burn-rate
	// multipliers that distinguish a critical page from a warning (spec
	// §8: "fast burn-rate (14.4×) fires a critical alert; slow burn-rate
	// (6×) fires a warning").
	FastBurnRateMultiple float64 `yaml:"fast_burn_rate_multiple" validate:"gt=0"`
	SlowBurnRateMultiple float64 `yaml:"slow_burn_rate_multiple" validate:"gt=0"`
}
