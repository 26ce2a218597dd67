package asset

import (
	"strings"

	"github.com/opsconductor/core/pkg/models"
)

// platformAliases is the closed platform mapping from the Glossary: raw,
// free-text OS/tool strings normalize to exactly one of these buckets and
// nothing downstream ever compares raw OS strings again.
var platformAliases = map[models.Platform][]string{
	models.PlatformWindows:  {"windows", "windows server", "win10", "win11", "windows_server"},
	models.PlatformLinux:    {"linux", "ubuntu", "rhel", "debian"},
	models.PlatformDatabase: {"psql", "mysql", "mongo", "redis", "sqlite"},
	models.PlatformNetwork:  {"nmap", "tcpdump", "tshark"},
	models.PlatformCloud:    {"aws", "az", "gcloud"},
}

// NormalizePlatform maps a raw, free-text OS or tool-declared platform
// string to the closed Platform enum via case-insensitive substring
// matching (spec §4.4: "Windows 10" matches "windows"). An unmatched input
// yields PlatformCustom rather than an error — the mapping is deliberately
// total, since every asset still needs *some* platform for Stage AB's
// pre-filter even when its OS string is unrecognized.
func NormalizePlatform(raw string) models.Platform {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return models.PlatformCustom
	}
	for platform, aliases := range platformAliases {
		for _, alias := range aliases {
			if strings.Contains(needle, alias) {
				return platform
			}
		}
	}
	return models.PlatformCustom
}
