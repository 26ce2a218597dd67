package selector

import (
	"regexp"
	"strings"

	"github.com/opsconductor/core/pkg/models"
)

var (
	ipRegex       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	hostnameRegex = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9-]{1,61}\.[a-zA-Z]{2,}\b`)
)

// extractHostsAndIPs is the early, LLM-independent entity pass (spec §4.6
// step 1: "this must not block on the LLM"). It augments whatever the
// classifier already extracted with any hostname/IP it missed, never
// duplicating an entity the classifier already found.
func extractHostsAndIPs(userText string, classified []models.Entity) []models.Entity {
	seen := make(map[string]bool, len(classified))
	for _, e := range classified {
		seen[strings.ToLower(e.Value)] = true
	}

	out := append([]models.Entity(nil), classified...)
	for _, ip := range ipRegex.FindAllString(userText, -1) {
		if !seen[strings.ToLower(ip)] {
			out = append(out, models.Entity{Type: models.EntityTypeIPAddress, Value: ip})
			seen[strings.ToLower(ip)] = true
		}
	}
	for _, host := range hostnameRegex.FindAllString(userText, -1) {
		if !seen[strings.ToLower(host)] {
			out = append(out, models.Entity{Type: models.EntityTypeHostname, Value: host})
			seen[strings.ToLower(host)] = true
		}
	}
	return out
}

// candidateHosts returns the distinct hostname/IP entity values, in order,
// for asset enrichment to resolve.
func candidateHosts(entities []models.Entity) []string {
	var out []string
	for _, e := range entities {
		if e.Type == models.EntityTypeHostname || e.Type == models.EntityTypeIPAddress {
			out = append(out, e.Value)
		}
	}
	return out
}
