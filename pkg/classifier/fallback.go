package classifier

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/opsconductor/core/pkg/models"
)

// ambiguityKeywords triggers Classification.AmbiguousTarget when no
// entities were extracted (spec §4.5 edge policy).
var ambiguityKeywords = []string{"current directory", "this server", "here"}

var (
	ipRegex       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	hostnameRegex = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9-]{1,61}\.[a-zA-Z]{2,}\b`)
	pathRegex     = regexp.MustCompile(`(?:/[\w.\-]+){2,}`)
	portRegex     = regexp.MustCompile(`\bport\s+(\d{1,5})\b`)
)

// knownServices is a small closed list used by the deterministic fallback
// to spot service entities by keyword; it is intentionally conservative —
// the real extraction path is the LLM, this is only the degraded fallback.
var knownServices = []string{"nginx", "apache", "mysql", "postgres", "redis", "docker", "ssh", "sshd"}

// fallbackEntities extracts entities via regex/keyword matching, used
// whenever the LLM entity sub-task fails (spec §4.5: "deterministic
// rule-based fallback...keyword/regex extraction for entities").
func fallbackEntities(text string) []models.Entity {
	var out []models.Entity
	lower := strings.ToLower(text)

	for _, ip := range ipRegex.FindAllString(text, -1) {
		out = append(out, models.Entity{Type: models.EntityTypeIPAddress, Value: ip})
	}
	for _, host := range hostnameRegex.FindAllString(text, -1) {
		out = append(out, models.Entity{Type: models.EntityTypeHostname, Value: host})
	}
	for _, path := range pathRegex.FindAllString(text, -1) {
		out = append(out, models.Entity{Type: models.EntityTypePath, Value: path})
	}
	if m := portRegex.FindStringSubmatch(lower); len(m) == 2 {
		if _, err := strconv.Atoi(m[1]); err == nil {
			out = append(out, models.Entity{Type: models.EntityTypePort, Value: m[1]})
		}
	}
	for _, svc := range knownServices {
		if strings.Contains(lower, svc) {
			out = append(out, models.Entity{Type: models.EntityTypeService, Value: svc})
		}
	}
	return out
}

// fallbackIntent returns a conservative default when the LLM intent
// sub-task fails.
func fallbackIntent() models.Intent {
	return models.Intent{Category: "unknown", Action: "unknown"}
}

// fallbackConfidence returns a conservative default confidence when the
// LLM confidence sub-task fails — low enough that downstream stages don't
// over-trust a classification that was never actually scored.
func fallbackConfidence() float64 {
	return 0.3
}

// fallbackRiskLevel defaults to medium: neither dismissing a potentially
// risky request (low) nor forcing unnecessary approval friction on every
// degraded classification (high).
func fallbackRiskLevel() models.RiskLevel {
	return models.RiskLevelMedium
}

// hasAmbiguityKeyword reports whether text contains one of the ambiguity
// keywords the edge policy watches for.
func hasAmbiguityKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range ambiguityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
