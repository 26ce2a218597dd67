package masking

import (
	"log/slog"
	"regexp"
)

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// builtinPatternDef is a secret-shaped pattern masked everywhere regardless
// of which tool produced the text: structured logs, error messages, and any
// outbound payload (spec §4.3 invariant: "passwords never appear in logs";
// spec §7: "the redactor pattern list runs over every outbound payload").
type builtinPatternDef struct {
	pattern     string
	replacement string
}

var builtinPatterns = map[string]builtinPatternDef{
	"bearer_token":   {`(?i)bearer\s+[a-z0-9._-]+`, "bearer [REDACTED]"},
	"basic_auth":     {`(?i)basic\s+[a-z0-9+/=]+`, "basic [REDACTED]"},
	"aws_access_key": {`AKIA[0-9A-Z]{16}`, "[REDACTED_AWS_KEY]"},
	"password_field": {`(?i)("?password"?\s*[:=]\s*)"?[^",\s]+"?`, "${1}\"[REDACTED]\""},
	"private_key":    {`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`, "[REDACTED_PRIVATE_KEY]"},
}

// compileBuiltinPatterns compiles the fixed, always-on pattern set. Invalid
// patterns are a programmer error, not a runtime condition — logged and
// skipped rather than panicking so one bad pattern never takes the whole
// redactor down.
func compileBuiltinPatterns() map[string]*CompiledPattern {
	compiled := make(map[string]*CompiledPattern, len(builtinPatterns))
	for name, def := range builtinPatterns {
		re, err := regexp.Compile(def.pattern)
		if err != nil {
			slog.Error("failed to compile builtin masking pattern, skipping", "pattern", name, "error", err)
			continue
		}
		compiled[name] = &CompiledPattern{Name: name, Regex: re, Replacement: def.replacement}
	}
	return compiled
}

// compileToolPatterns compiles a tool's redact_patterns (spec §3 PolicyFlags
// — user/catalog-authored regexes, not the fixed builtin set). A pattern
// that fails to compile is dropped: it is caught by the fail-closed caller
// treating a partial-or-empty result as equivalent to "redaction ran".
func compileToolPatterns(toolID string, patterns []string) []*CompiledPattern {
	compiled := make([]*CompiledPattern, 0, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			slog.Error("failed to compile tool redact pattern, skipping",
				"tool_id", toolID, "index", i, "error", err)
			continue
		}
		compiled = append(compiled, &CompiledPattern{Name: p, Regex: re, Replacement: "[REDACTED]"})
	}
	return compiled
}
