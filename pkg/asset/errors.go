package asset

import "errors"

// ErrAssetServiceUnavailable is returned for any transport failure or
// open-circuit rejection talking to the asset inventory service (spec
// §4.4: "inventory unreachable -> asset_service_unavailable, caller
// degrades gracefully without platform filter").
var ErrAssetServiceUnavailable = errors.New("asset: asset_service_unavailable")
