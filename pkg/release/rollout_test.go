package release

import (
	"fmt"
	"testing"

	"github.com/opsconductor/core/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestShouldRouteToCanary_Stage100_AlwaysRoutes(t *testing.T) {
	assert.True(t, ShouldRouteToCanary(config.RolloutStage100, "any-actor"))
}

func TestShouldRouteToCanary_SameActorStableAcrossCalls(t *testing.T) {
	actor := "actor-42"
	first := ShouldRouteToCanary(config.RolloutStage50, actor)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ShouldRouteToCanary(config.RolloutStage50, actor))
	}
}

func TestShouldRouteToCanary_Stage10_RoughlyOneInTen(t *testing.T) {
	routed := 0
	const n = 2000
	for i := 0; i < n; i++ {
		if ShouldRouteToCanary(config.RolloutStage10, fmt.Sprintf("actor-%d", i)) {
			routed++
		}
	}
	ratio := float64(routed) / float64(n)
	assert.Greater(t, ratio, 0.05)
	assert.Less(t, ratio, 0.15)
}
