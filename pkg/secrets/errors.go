package secrets

import "errors"

// Error kinds from spec §4.3. ErrMissingMasterKey is fatal at boot and
// should never be returned by a running broker — pkg/config's own
// validation rejects a config with an empty KMS key before pkg/secrets is
// ever constructed.
var (
	ErrMissingMasterKey  = errors.New("secrets: missing_master_key")
	ErrInvalidServiceToken = errors.New("secrets: invalid_service_token")
	ErrNotFound          = errors.New("secrets: not_found")
	ErrDecryptFailed     = errors.New("secrets: decrypt_failed")
)
