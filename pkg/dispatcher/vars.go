package dispatcher

import "github.com/opsconductor/core/pkg/models"

// extractAssetQueryVars pushes the well-known asset-query derived
// variables into ctx (spec §4.9 step 6: "For an asset-query result
// specifically: assets, hostnames, ip_addresses, asset_count"). The
// collaborator's output is decoded JSON (map[string]interface{} or
// []interface{}), so this reads defensively rather than assuming a typed
// shape.
func extractAssetQueryVars(ctx *ExecutionContext, output interface{}) {
	assets := assetList(output)
	if assets == nil {
		return
	}

	var hostnames, ips []interface{}
	for _, a := range assets {
		m, ok := a.(map[string]interface{})
		if !ok {
			continue
		}
		if h, ok := m["hostname"].(string); ok && h != "" {
			hostnames = append(hostnames, h)
		}
		if ip, ok := m["ip"].(string); ok && ip != "" {
			ips = append(ips, ip)
		}
	}

	ctx.Set(models.VarAssets, assets)
	ctx.Set(models.VarHostnames, hostnames)
	ctx.Set(models.VarIPAddresses, ips)
	ctx.Set(models.VarAssetCount, len(assets))
}

// assetList normalizes an asset-query output into a flat []interface{},
// whether the collaborator wrapped it as {"assets": [...]} or returned the
// array directly.
func assetList(output interface{}) []interface{} {
	switch v := output.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		if assets, ok := v["assets"].([]interface{}); ok {
			return assets
		}
	}
	return nil
}
