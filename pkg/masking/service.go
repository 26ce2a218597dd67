package masking

import (
	"log/slog"
	"sync"
)

// Service applies data masking to tool execution output, error messages, and
// log values. Created once at application startup (singleton). Builtin
// patterns are compiled eagerly; per-tool redact_patterns are compiled
// lazily and cached, since the tool catalog is loaded after the service is
// constructed.
type Service struct {
	builtin map[string]*CompiledPattern

	mu        sync.RWMutex
	toolCache map[string][]*CompiledPattern

	codeMaskers []Masker
}

// NewService creates a masking service with the builtin pattern set
// compiled.
func NewService(codeMaskers ...Masker) *Service {
	s := &Service{
		builtin:     compileBuiltinPatterns(),
		toolCache:   make(map[string][]*CompiledPattern),
		codeMaskers: codeMaskers,
	}
	slog.Info("masking service initialized", "builtin_patterns", len(s.builtin), "code_maskers", len(codeMaskers))
	return s
}

// MaskStepOutput applies a tool's redact_patterns plus the builtin set to
// its raw output (spec §3 PolicyFlags.RedactPatterns, spec §7: "the
// redactor pattern list runs over every outbound payload"). Fail-closed: any
// panic recovered while masking returns a redaction notice instead of the
// original content, since leaking a credential is worse than losing a
// result.
func (s *Service) MaskStepOutput(toolID string, redactPatterns []string, content string) (masked string) {
	if content == "" {
		return content
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("masking panicked, redacting content (fail-closed)", "tool_id", toolID, "panic", r)
			masked = "[REDACTED: data masking failure, tool result could not be safely processed]"
		}
	}()

	out := content
	for _, m := range s.codeMaskers {
		if m.AppliesTo(out) {
			out = m.Mask(out)
		}
	}
	for _, pattern := range s.toolPatterns(toolID, redactPatterns) {
		out = pattern.Regex.ReplaceAllString(out, pattern.Replacement)
	}
	for _, pattern := range s.builtin {
		out = pattern.Regex.ReplaceAllString(out, pattern.Replacement)
	}
	return out
}

// MaskLogValue redacts the builtin secret-shaped patterns from a value
// before it reaches a log sink (spec §4.3 invariant: "passwords never
// appear in logs"). Unlike MaskStepOutput it never sees a tool's custom
// patterns — log call sites don't carry tool context — so it only ever
// applies the fixed builtin set.
func (s *Service) MaskLogValue(value string) (masked string) {
	if value == "" {
		return value
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("log masking panicked, redacting value (fail-closed)", "panic", r)
			masked = "[REDACTED]"
		}
	}()

	out := value
	for _, pattern := range s.builtin {
		out = pattern.Regex.ReplaceAllString(out, pattern.Replacement)
	}
	return out
}

func (s *Service) toolPatterns(toolID string, redactPatterns []string) []*CompiledPattern {
	s.mu.RLock()
	cached, ok := s.toolCache[toolID]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	compiled := compileToolPatterns(toolID, redactPatterns)

	s.mu.Lock()
	s.toolCache[toolID] = compiled
	s.mu.Unlock()

	return compiled
}
