package dispatcher

import (
	"context"

	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/models"
	"github.com/opsconductor/core/pkg/secrets"
)

// credentialPurpose derives the secrets-broker "purpose" key from a tool's
// connection type. Neither the tool spec nor the asset façade carries an
// explicit "purpose" field (spec §4.3/§4.4), so the connection type — the
// protocol the tool itself speaks — doubles as the purpose the credential
// was filed under, matching how pkg/secrets' own tests key rows
// ("ssh", "winrm"-equivalent "powershell").
func credentialPurpose(spec models.FullToolSpec) string {
	return string(spec.ConnectionType)
}

// resolveCredentials implements the three-tier fallback of spec §4.9 step
// 4, in priority order: (a) an explicit asset_id plus
// use_asset_credentials; (b) auto-resolution by target_host through the
// asset façade; (c) an explicit username/password already present on the
// step. Least caller control wins — the two broker-resolved tiers are
// tried before a caller-supplied credential is ever trusted, so a stale
// explicit credential on a step that also carries a resolvable asset_id
// or target_host never shadows the one the broker would have returned.
// It returns inputs with username/password (and domain, if any) merged
// in, or a *MissingCredentialsError if the tool requires credentials and
// none of the three tiers produced any.
func resolveCredentials(ctx context.Context, broker secrets.Broker, assets asset.Client, serviceToken, actor, toolID string, spec models.FullToolSpec, inputs map[string]interface{}) (map[string]interface{}, error) {
	purpose := credentialPurpose(spec)

	if assetID, useAsset := inputs["asset_id"].(string), boolInput(inputs, "use_asset_credentials"); assetID != "" && useAsset {
		host, _ := inputs["target_host"].(string)
		if host != "" {
			if cred, err := broker.LookupCredential(ctx, serviceToken, actor, host, purpose); err == nil {
				return mergeCredential(inputs, cred), nil
			}
		}
	}

	if host, _ := inputs["target_host"].(string); host != "" && assets != nil {
		profile, err := assets.ConnectionProfile(ctx, host)
		if err == nil && profile.Found {
			if cred, err := broker.LookupCredential(ctx, serviceToken, actor, host, purpose); err == nil {
				return mergeCredential(inputs, cred), nil
			}
		}
	}

	if cred, ok := tierExplicit(inputs); ok {
		return mergeCredential(inputs, cred), nil
	}

	if spec.Policy.RequiresCredentials {
		return nil, &MissingCredentialsError{
			ToolID: toolID,
			Descriptor: models.ParameterDescriptor{
				Name:   "username",
				Type:   "string",
				Secret: false,
				Hint:   "no credential could be resolved automatically for this target",
			},
		}
	}
	return inputs, nil
}

func tierExplicit(inputs map[string]interface{}) (secrets.Credential, bool) {
	username, _ := inputs["username"].(string)
	password, _ := inputs["password"].(string)
	if username == "" || password == "" {
		return secrets.Credential{}, false
	}
	domain, _ := inputs["domain"].(string)
	return secrets.Credential{Username: username, Password: password, Domain: domain}, true
}

func mergeCredential(inputs map[string]interface{}, cred secrets.Credential) map[string]interface{} {
	out := make(map[string]interface{}, len(inputs)+2)
	for k, v := range inputs {
		out[k] = v
	}
	out["username"] = cred.Username
	out["password"] = cred.Password
	if cred.Domain != "" {
		out["domain"] = cred.Domain
	}
	return out
}

func boolInput(inputs map[string]interface{}, key string) bool {
	b, _ := inputs[key].(bool)
	return b
}
