package models

import "time"

// ToolIndexEntry is the minimal, durable, LLM-visible projection of a tool.
// Owned by the tool index store (spec §3). It never carries secrets and
// never carries execution mechanics — those live only in FullToolSpec.
type ToolIndexEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`       // <=48 chars, enforced at upsert
	DescShort string    `json:"desc_short"` // <=110 chars, truncated never null
	Platform  Platform  `json:"platform"`
	Tags      []string  `json:"tags"` // <=6
	CostHint  CostHint  `json:"cost_hint"`
	Embedding []float32 `json:"-"` // fixed-dim, never serialized to the LLM
	// AlwaysInclude marks a tool that Stage AB must always pass through to
	// the LLM regardless of retrieval/budget ranking (Glossary:
	// "Always-include tools").
	AlwaysInclude bool      `json:"always_include"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MinimalRow projects the LLM-visible subset of a ToolIndexEntry — the
// "minimal index row" of the Glossary. Embedding and UpdatedAt never leave
// the store.
type MinimalRow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DescShort string   `json:"desc_short"`
	Tags      []string `json:"tags"`
	Platform  Platform `json:"platform"`
	CostHint  CostHint `json:"cost_hint"`
}

// Row projects e down to its LLM-visible fields.
func (e ToolIndexEntry) Row() MinimalRow {
	return MinimalRow{
		ID:        e.ID,
		Name:      e.Name,
		DescShort: e.DescShort,
		Tags:      append([]string(nil), e.Tags...),
		Platform:  e.Platform,
		CostHint:  e.CostHint,
	}
}

// PreferenceScores are the three deterministic-scoring axes from spec §4.6
// step 6, each in [0,1].
type PreferenceScores struct {
	Speed      float64 `json:"speed"`
	Accuracy   float64 `json:"accuracy"`
	Complexity float64 `json:"complexity"`
}

// PolicyFlags carries per-tool dispatch policy.
type PolicyFlags struct {
	RequiresApproval   bool     `json:"requires_approval"`
	RequiresCredentials bool    `json:"requires_credentials"`
	RedactPatterns     []string `json:"redact_patterns,omitempty"`
}

// ParameterSchema describes one required or optional input of a FullToolSpec.
type ParameterSchema struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Secret           bool   `json:"secret"`
	Optional         bool   `json:"optional,omitempty"`
	ValidationRegex  string `json:"validation,omitempty"`
	Hint             string `json:"hint,omitempty"`
}

// FullToolSpec is the execution-complete tool record, loaded lazily by
// Stage C and Stage E only (spec §3 — never by the retrieval path).
type FullToolSpec struct {
	ToolIndexEntry

	ExecutionLocation ExecutionLocation  `json:"execution_location"`
	ExecutionType     ExecutionType      `json:"execution_type"`
	ConnectionType    ConnectionType     `json:"connection_type"`
	CommandStrategy   CommandStrategy    `json:"command_strategy"`
	ParameterFormat   ParameterFormat    `json:"parameter_format"`
	RequiredInputs    []ParameterSchema  `json:"required_inputs"`
	Policy            PolicyFlags        `json:"policy"`
	Preference        PreferenceScores   `json:"preference"`
	RetryMaxAttempts  int                `json:"retry_max_attempts"`
	TimeoutMS         int                `json:"timeout_ms"`
}

// Validate enforces the FullToolSpec invariants from spec §3: a spec that
// requires credentials must be dispatchable via the credential resolver
// (i.e. must declare an execution_location), and a spec whose connection
// type is not local must declare a platform.
func (f FullToolSpec) Validate() error {
	if f.Policy.RequiresCredentials && !f.ExecutionLocation.IsValid() {
		return errInvalidToolSpec("requires_credentials tool must declare a valid execution_location so the credential resolver can run")
	}
	if f.ConnectionType != ConnectionTypeLocal && f.Platform == "" {
		return errInvalidToolSpec("remote-connection tool must declare a platform")
	}
	return nil
}

type toolSpecError string

func (e toolSpecError) Error() string { return string(e) }

func errInvalidToolSpec(msg string) error { return toolSpecError(msg) }
