package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator validates configuration comprehensively with clear error
// messages. Struct tags do the per-field range/required checks; the
// fail-fast chain in ValidateAll adds cross-field and cross-component
// checks the tag language can't express.
type Validator struct {
	cfg *Config
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg, v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateAll performs comprehensive validation, fail-fast: stops at the
// first error so a misconfigured deployment gets one clear reason, not a
// list of symptoms of the same root cause.
func (v *Validator) ValidateAll() error {
	if err := v.validateSelector(); err != nil {
		return fmt.Errorf("selector validation failed: %w", err)
	}
	if err := v.validateLLMBudget(); err != nil {
		return fmt.Errorf("llm_budget validation failed: %w", err)
	}
	if err := v.validateSecrets(); err != nil {
		return fmt.Errorf("secrets validation failed: %w", err)
	}
	if err := v.validateCollaborators(); err != nil {
		return fmt.Errorf("collaborators validation failed: %w", err)
	}
	if err := v.validateExec(); err != nil {
		return fmt.Errorf("exec validation failed: %w", err)
	}
	if err := v.validateRelease(); err != nil {
		return fmt.Errorf("release validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateSelector() error {
	if err := v.v.Struct(v.cfg.Selector); err != nil {
		return NewValidationError("selector", "", err)
	}
	return nil
}

func (v *Validator) validateLLMBudget() error {
	b := v.cfg.LLMBudget
	if err := v.v.Struct(b); err != nil {
		return NewValidationError("llm_budget", "", err)
	}
	if b.OutputReserve+b.SafetyMargin >= b.MaxModelLen {
		return NewValidationError("llm_budget", "output_reserve+safety_margin",
			fmt.Errorf("%w: reserve and safety margin leave no room for candidate rows", ErrInvalidValue))
	}
	return nil
}

// validateSecrets is the one place a missing required env var becomes a
// fatal boot error rather than a silently-empty string (spec §7: "reading a
// required secret at boot is a fatal").
func (v *Validator) validateSecrets() error {
	if v.cfg.Secrets.KMSKey == "" {
		return fmt.Errorf("%w: SECRETS_KMS_KEY", ErrMissingRequiredSecret)
	}
	if v.cfg.Secrets.InternalKey == "" {
		return fmt.Errorf("%w: INTERNAL_KEY", ErrMissingRequiredSecret)
	}
	return nil
}

// validateCollaborators only requires a non-empty URL for a collaborator
// that the feature set will actually dispatch to; bypass mode (echo tool
// only) has no downstream dependency on any of them (spec §9 bypass path).
func (v *Validator) validateCollaborators() error {
	if v.cfg.Features.BypassLLM {
		return nil
	}
	c := v.cfg.Collaborators
	for name, url := range map[string]string{
		"automation":    c.Automation.URL,
		"communication": c.Communication.URL,
		"asset":         c.Asset.URL,
		"network":       c.Network.URL,
	} {
		if url == "" {
			return NewValidationError("collaborators", name, fmt.Errorf("%w: endpoint URL not set", ErrInvalidValue))
		}
	}
	return nil
}

func (v *Validator) validateExec() error {
	if err := v.v.Struct(v.cfg.Exec); err != nil {
		return NewValidationError("exec", "timeout_ms", err)
	}
	return nil
}

func (v *Validator) validateRelease() error {
	r := v.cfg.Release
	if !r.Stage.IsValid() {
		return NewValidationError("release", "stage", fmt.Errorf("%w: must be 10, 50, or 100", ErrInvalidValue))
	}
	if err := v.v.Struct(r); err != nil {
		return NewValidationError("release", "", err)
	}
	return nil
}
