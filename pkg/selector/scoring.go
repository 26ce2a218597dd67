package selector

import (
	"sort"

	"github.com/opsconductor/core/pkg/models"
)

// modeWeights shifts the speed/accuracy/complexity axes by preference
// mode (spec §4.6 step 6). Complexity is treated as a cost: lower is
// better, so its weight contributes negatively to the scalar.
var modeWeights = map[models.PreferenceMode]models.PreferenceScores{
	models.PreferenceModeFast:     {Speed: 0.6, Accuracy: 0.25, Complexity: 0.15},
	models.PreferenceModeBalanced: {Speed: 0.34, Accuracy: 0.33, Complexity: 0.33},
	models.PreferenceModeAccurate: {Speed: 0.15, Accuracy: 0.65, Complexity: 0.20},
}

// scoredCandidate pairs a tool with its full spec, its deterministic scalar
// score and whether it requires approval.
type scoredCandidate struct {
	Entry            models.ToolIndexEntry
	Spec             models.FullToolSpec
	Score            float64
	RequiresApproval bool
}

// scoreCandidates computes the deterministic scalar for each candidate
// (spec §4.6 step 6): preference weights combined with mode, plus a risk
// boost/flag for tools requiring approval.
func scoreCandidates(candidates []models.ToolIndexEntry, specs map[string]models.FullToolSpec, mode models.PreferenceMode) []scoredCandidate {
	weights, ok := modeWeights[mode]
	if !ok {
		weights = modeWeights[models.PreferenceModeBalanced]
	}

	out := make([]scoredCandidate, 0, len(candidates))
	for _, entry := range candidates {
		spec, ok := specs[entry.ID]
		if !ok {
			continue
		}
		pref := spec.Preference
		score := weights.Speed*pref.Speed + weights.Accuracy*pref.Accuracy - weights.Complexity*pref.Complexity
		if spec.Policy.RequiresApproval {
			// A small boost keeps an approval-gated tool from being
			// silently starved out by cheaper alternatives purely on
			// scoring grounds — approval is a downstream gate, not a
			// reason to never surface the tool.
			score += 0.05
		}
		out = append(out, scoredCandidate{
			Entry:            entry,
			Spec:             spec,
			Score:            score,
			RequiresApproval: spec.Policy.RequiresApproval,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Entry.ID < out[j].Entry.ID
	})
	return out
}

// isAmbiguous reports whether the top two scored candidates are within
// margin of each other (spec §4.6 step 7).
func isAmbiguous(scored []scoredCandidate, margin float64) bool {
	if len(scored) < 2 {
		return false
	}
	return scored[0].Score-scored[1].Score < margin
}
