package models

import "time"

// HostCredential is the durable, encrypted row owned by the secrets broker
// (spec §3). The ciphertext/nonce/tag fields are the only form of a
// credential that is ever marshaled or persisted; plaintext lives only in
// pkg/secrets' in-process Lookup result and must never be embedded in this
// type.
type HostCredential struct {
	Host          string    `json:"host"`
	Purpose       string    `json:"purpose"`
	Username      string    `json:"username"`
	Domain        string    `json:"domain,omitempty"`
	EncryptedBlob []byte    `json:"-"`
	Nonce         []byte    `json:"-"`
	Tag           []byte    `json:"-"`
	KeyGeneration int       `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CredentialAccessOutcome is the closed set of audit-log outcomes for a
// credential read (spec §3: "(actor, host, purpose, outcome, timestamp)").
type CredentialAccessOutcome string

const (
	CredentialAccessOutcomeSuccess   CredentialAccessOutcome = "success"
	CredentialAccessOutcomeNotFound  CredentialAccessOutcome = "not_found"
	CredentialAccessOutcomeDenied    CredentialAccessOutcome = "denied"
	CredentialAccessOutcomeDecryptFailed CredentialAccessOutcome = "decrypt_failed"
)

// CredentialAccessLogEntry is one append-only audit row.
type CredentialAccessLogEntry struct {
	Actor     string                  `json:"actor"`
	Host      string                  `json:"host"`
	Purpose   string                  `json:"purpose"`
	Outcome   CredentialAccessOutcome `json:"outcome"`
	Timestamp time.Time               `json:"timestamp"`
}
