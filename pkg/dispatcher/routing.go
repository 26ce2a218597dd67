package dispatcher

import (
	"strings"

	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/models"
)

// route returns the collaborator base URL a FullToolSpec dispatches to
// (spec §4.9 step 1: "automation (default), communication, asset,
// network").
func route(collaborators config.CollaboratorsConfig, loc models.ExecutionLocation) string {
	switch loc {
	case models.ExecutionLocationCommunication:
		return collaborators.Communication.URL
	case models.ExecutionLocationAsset:
		return collaborators.Asset.URL
	case models.ExecutionLocationNetwork:
		return collaborators.Network.URL
	default:
		return collaborators.Automation.URL
	}
}

// normalizeToolName collapses the `-`/`_` filename variants a tool ID may
// be registered under (spec §4.9 step 1: "asset-query vs asset_query are
// normalized") into a single canonical underscore form, so the dispatcher
// and the collaborator agree on one name regardless of which variant the
// plan carries.
func normalizeToolName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
