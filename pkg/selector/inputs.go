package selector

import "github.com/opsconductor/core/pkg/models"

// resolvedParamNames are ParameterSchema.Name values Stage AB considers
// already satisfied once at least one entity of the matching kind was
// extracted (spec §4.6 step 9: "diffing each selected tool's required
// inputs against resolved context").
var resolvedParamNames = map[string]models.EntityType{
	"hostname":   models.EntityTypeHostname,
	"host":       models.EntityTypeHostname,
	"ip":         models.EntityTypeIPAddress,
	"ip_address": models.EntityTypeIPAddress,
	"service":    models.EntityTypeService,
	"path":       models.EntityTypePath,
	"port":       models.EntityTypePort,
}

// resolveAdditionalInputs diffs the required inputs of the selected tools
// against what Stage AB has already resolved from entity extraction and
// asset enrichment, returning the set the caller still needs to supply
// (spec §4.6 step 9). Secret inputs are never surfaced here — they resolve
// through the credential broker at dispatch time, not from the caller.
func resolveAdditionalInputs(selected []scoredCandidate, entities []models.Entity, assetResolved bool, missingTargetInfo bool) []models.ParameterDescriptor {
	haveEntity := make(map[models.EntityType]bool, len(entities))
	for _, e := range entities {
		haveEntity[e.Type] = true
	}

	seen := make(map[string]bool)
	var out []models.ParameterDescriptor

	if missingTargetInfo {
		out = append(out, models.ParameterDescriptor{
			Name: "target_asset",
			Type: "string",
			Hint: "Which host or asset should this run against?",
		})
		seen["target_asset"] = true
	}

	for _, c := range selected {
		for _, req := range c.Spec.RequiredInputs {
			if req.Optional || req.Secret || seen[req.Name] {
				continue
			}
			if entityType, known := resolvedParamNames[req.Name]; known && haveEntity[entityType] {
				continue
			}
			if req.Name == "target_asset" && assetResolved {
				continue
			}
			seen[req.Name] = true
			out = append(out, models.ParameterDescriptor{
				Name:       req.Name,
				Type:       req.Type,
				Secret:     req.Secret,
				Optional:   req.Optional,
				Validation: req.ValidationRegex,
				Hint:       req.Hint,
			})
		}
	}
	return out
}
