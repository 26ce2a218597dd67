package config

import "time"

// DefaultSelectorConfig returns Stage AB's tuning defaults before any YAML
// or env override is applied (spec §9 Open Questions: ambiguity margin
// "default in that range" of 8-15%, TOKENS_PER_ROW_EST "≈45 empirical").
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		AmbiguityMargin: 0.10,
		TokensPerRowEst: 45,
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 10_000,
		RedisAddr:       "localhost:6379",
		DegradedEnable:  true,
	}
}

// DefaultLLMBudgetConfig returns the token-budget defaults consumed by
// Stage AB's max_rows computation.
func DefaultLLMBudgetConfig() LLMBudgetConfig {
	return LLMBudgetConfig{
		MaxModelLen:   128_000,
		OutputReserve: 2_048,
		SafetyMargin:  512,
	}
}

// DefaultExecConfig returns the request-scoped execution defaults.
func DefaultExecConfig() ExecConfig {
	return ExecConfig{
		TimeoutMS: 30_000,
	}
}

// DefaultReleaseConfig returns the canary/SLO gate defaults (spec §4.11,
// §8). A fresh deployment starts pinned at the smallest traffic split.
func DefaultReleaseConfig() ReleaseConfig {
	return ReleaseConfig{
		Stage:                RolloutStage10,
		ErrorRateThreshold:   0.01,
		P95ThresholdSeconds:  1.0,
		P99ThresholdSeconds:  2.0,
		FastBurnRateMultiple: 14.4,
		SlowBurnRateMultiple: 6.0,
	}
}
