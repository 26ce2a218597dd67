// Package release implements the canary rollout and SLO burn-rate gate
// (spec §4.11): a deterministic bypass tool for walking-skeleton
// validation, traffic-split routing, and the metrics gate a rollout
// promotion or rollback decision is based on.
package release

// EchoToolID is the tool name the bypass path dispatches to. It never
// reaches pkg/dispatcher or any collaborator service — FEATURE_BYPASS_LLM
// short-circuits Stage A through Stage E entirely.
const EchoToolID = "echo"

// pingInput/pongOutput are the fixed strings the bypass path's smoke test
// checks for (spec §8 scenario 1: "POST {input:"ping", tool:"echo"} ...
// {success:true, output:"pong"}").
const (
	pingInput  = "ping"
	pongOutput = "pong"
)

// Execute runs the deterministic echo tool: "ping" in, "pong" out;
// anything else is echoed back unchanged. It never errors — that's the
// point of a bypass path meant to validate the request/response plumbing
// independent of the LLM oracle and the collaborator fleet.
func Execute(input string) string {
	if input == pingInput {
		return pongOutput
	}
	return input
}
