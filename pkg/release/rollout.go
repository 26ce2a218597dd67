package release

import (
	"hash/fnv"

	"github.com/opsconductor/core/pkg/config"
)

// ShouldRouteToCanary decides, deterministically per actor, whether a
// request at the given rollout stage should be routed to the canary path
// (spec §4.11: "traffic is split (10 → 50 → 100%)"). The same actorID
// always lands on the same side of the split at a fixed stage, so a
// single tenant's traffic doesn't flap between baseline and canary within
// a rollout window — only stage promotion changes who's in.
func ShouldRouteToCanary(stage config.RolloutStage, actorID string) bool {
	if stage >= config.RolloutStage100 {
		return true
	}
	return int(actorBucket(actorID)) < int(stage)
}

// actorBucket maps an actor ID onto [0, 100) via FNV-1a, giving a stable,
// roughly uniform split without needing per-actor state.
func actorBucket(actorID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return h.Sum32() % 100
}
