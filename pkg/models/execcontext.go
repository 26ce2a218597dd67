package models

import "fmt"

// LoopFrame is the materialized per-iteration context Stage E injects into
// expanded loop children (spec §4.9 step 3).
type LoopFrame struct {
	LoopIndex int         `json:"_loop_index"`
	LoopTotal int         `json:"_loop_total"`
	LoopItem  interface{} `json:"_loop_item"`
}

// StepResultKey returns the well-known ExecutionContext variable name for
// the result of step i (spec §3: "step_{i}_result").
func StepResultKey(i int) string {
	return fmt.Sprintf("step_%d_result", i)
}

// AssetQueryVariables are the well-known variable names an asset-query
// result pushes into the ExecutionContext (spec §3, §4.9 step 6).
const (
	VarAssets       = "assets"
	VarHostnames    = "hostnames"
	VarIPAddresses  = "ip_addresses"
	VarAssetCount   = "asset_count"
)
