// Package secrets is the credential broker (spec §4.3): upsert_credential,
// lookup_credential, delete_credential, each gated behind an internal
// service-to-service token and each requiring exactly the three named
// error kinds at their documented status codes. Every read is audited to
// credential_access_log regardless of outcome. The external gateway must
// never route to this package directly (spec §4.3 invariant) — pkg/api
// only exposes it under /internal, checked against X-Internal-Key.
package secrets

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsconductor/core/pkg/models"
)

// Credential is the plaintext form a lookup returns. It must never be
// marshaled to a log sink or response body verbatim — pkg/masking's
// MaskLogValue covers accidental leakage, but callers are still
// responsible for not logging this type directly.
type Credential struct {
	Username string
	Password string
	Domain   string
}

// Broker is the secrets contract pkg/dispatcher depends on for tier-1
// credential resolution (spec §4.9).
type Broker interface {
	UpsertCredential(ctx context.Context, serviceToken, actor, host, purpose, username, password, domain string) error
	LookupCredential(ctx context.Context, serviceToken, actor, host, purpose string) (Credential, error)
	DeleteCredential(ctx context.Context, serviceToken, actor, host, purpose string) error

	// Rotate re-encrypts every credential still on an older key generation
	// under the keyring's current one. Exposed on the interface (rather
	// than only the concrete type) so an operator-facing admin route can
	// depend on Broker alone.
	Rotate(ctx context.Context) (rotated int, err error)
}

type broker struct {
	pool        *pgxpool.Pool
	keyring     *keyring
	internalKey string
}

// NewBroker constructs a Broker. kmsKey and internalKey come from
// pkg/config.SecretsConfig; pkg/config's own validation already rejects an
// empty KMS key at boot (spec §4.3: "missing_master_key (fatal at boot)"),
// so NewBroker re-checks defensively rather than trusting the caller.
func NewBroker(pool *pgxpool.Pool, kmsKey, internalKey string) (Broker, error) {
	kr, err := newKeyring(kmsKey)
	if err != nil {
		return nil, err
	}
	return &broker{pool: pool, keyring: kr, internalKey: internalKey}, nil
}

func (b *broker) authorize(serviceToken string) error {
	if subtle.ConstantTimeCompare([]byte(serviceToken), []byte(b.internalKey)) != 1 {
		return ErrInvalidServiceToken
	}
	return nil
}

func (b *broker) UpsertCredential(ctx context.Context, serviceToken, actor, host, purpose, username, password, domain string) error {
	if err := b.authorize(serviceToken); err != nil {
		return err
	}

	gen, material := b.keyring.currentGeneration()
	ciphertext, nonce, tag, err := sealCredential(material, []byte(password))
	if err != nil {
		return fmt.Errorf("secrets: failed to seal credential: %w", err)
	}

	var domainArg any
	if domain != "" {
		domainArg = domain
	}

	_, err = b.pool.Exec(ctx, `
		INSERT INTO host_credentials (host, purpose, username, domain, ciphertext, nonce, tag, key_generation, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (host, purpose) DO UPDATE SET
			username = EXCLUDED.username,
			domain = EXCLUDED.domain,
			ciphertext = EXCLUDED.ciphertext,
			nonce = EXCLUDED.nonce,
			tag = EXCLUDED.tag,
			key_generation = EXCLUDED.key_generation,
			updated_at = now()
	`, host, purpose, username, domainArg, ciphertext, nonce, tag, gen)
	if err != nil {
		return fmt.Errorf("secrets: upsert_credential failed: %w", err)
	}
	slog.Info("credential upserted", "event", "secrets_upsert", "host", host, "purpose", purpose, "actor", actor)
	return nil
}

func (b *broker) LookupCredential(ctx context.Context, serviceToken, actor, host, purpose string) (Credential, error) {
	if err := b.authorize(serviceToken); err != nil {
		return Credential{}, err
	}

	var (
		username              string
		domain                *string
		ciphertext, nonce, tag []byte
		generation            int
	)
	err := b.pool.QueryRow(ctx, `
		SELECT username, domain, ciphertext, nonce, tag, key_generation
		FROM host_credentials WHERE host = $1 AND purpose = $2
	`, host, purpose).Scan(&username, &domain, &ciphertext, &nonce, &tag, &generation)
	if err != nil {
		if err == pgx.ErrNoRows {
			b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeNotFound)
			return Credential{}, ErrNotFound
		}
		b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeDenied)
		return Credential{}, fmt.Errorf("secrets: lookup_credential query failed: %w", err)
	}

	material, ok := b.keyring.material(generation)
	if !ok {
		b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeDecryptFailed)
		return Credential{}, fmt.Errorf("%w: unknown key generation %d", ErrDecryptFailed, generation)
	}

	plaintext, err := openCredential(material, ciphertext, nonce, tag)
	if err != nil {
		b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeDecryptFailed)
		return Credential{}, err
	}

	b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeSuccess)
	cred := Credential{Username: username, Password: string(plaintext)}
	if domain != nil {
		cred.Domain = *domain
	}
	return cred, nil
}

func (b *broker) DeleteCredential(ctx context.Context, serviceToken, actor, host, purpose string) error {
	if err := b.authorize(serviceToken); err != nil {
		return err
	}
	tag, err := b.pool.Exec(ctx, `DELETE FROM host_credentials WHERE host = $1 AND purpose = $2`, host, purpose)
	if err != nil {
		return fmt.Errorf("secrets: delete_credential failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		b.audit(ctx, actor, host, purpose, models.CredentialAccessOutcomeNotFound)
		return ErrNotFound
	}
	slog.Info("credential deleted", "event", "secrets_delete", "host", host, "purpose", purpose, "actor", actor)
	return nil
}

// audit appends one row regardless of outcome (spec §4.3: "log the read").
// A failure to write the audit row is logged but never fails the caller's
// request — losing an audit row is a monitoring gap, not a correctness
// failure of the credential operation itself.
func (b *broker) audit(ctx context.Context, actor, host, purpose string, outcome models.CredentialAccessOutcome) {
	_, err := b.pool.Exec(ctx, `
		INSERT INTO credential_access_log (actor, host, purpose, outcome, occurred_at)
		VALUES ($1, $2, $3, $4, now())
	`, actor, host, purpose, string(outcome))
	if err != nil {
		slog.Warn("failed to write credential access audit row", "event", "secrets_audit_write_failed", "error", err)
	}
}
