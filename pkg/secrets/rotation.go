package secrets

import (
	"context"
	"fmt"
	"log/slog"
)

// Rotate re-encrypts every host_credentials row still on an older key
// generation under the keyring's current generation (spec §4.3: "an
// operator-controlled key rotation re-encrypts in bulk"). It is safe to
// run while lookups are in flight: each row is re-encrypted in its own
// transaction, and LookupCredential already accepts any generation still
// present in the keyring, so a row mid-rotation is never unreadable.
func (b *broker) Rotate(ctx context.Context) (rotated int, err error) {
	currentGen, _ := b.keyring.currentGeneration()

	rows, err := b.pool.Query(ctx, `
		SELECT host, purpose, ciphertext, nonce, tag, key_generation
		FROM host_credentials WHERE key_generation != $1
	`, currentGen)
	if err != nil {
		return 0, fmt.Errorf("secrets: rotate query failed: %w", err)
	}

	type candidate struct {
		host, purpose          string
		ciphertext, nonce, tag []byte
		generation             int
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.host, &c.purpose, &c.ciphertext, &c.nonce, &c.tag, &c.generation); err != nil {
			rows.Close()
			return rotated, fmt.Errorf("secrets: rotate scan failed: %w", err)
		}
		candidates = append(candidates, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return rotated, fmt.Errorf("secrets: rotate iteration failed: %w", err)
	}

	for _, c := range candidates {
		oldMaterial, ok := b.keyring.material(c.generation)
		if !ok {
			slog.Warn("rotate: skipping row with unknown key generation", "event", "secrets_rotate_skip", "host", c.host, "purpose", c.purpose, "generation", c.generation)
			continue
		}
		plaintext, err := openCredential(oldMaterial, c.ciphertext, c.nonce, c.tag)
		if err != nil {
			slog.Error("rotate: failed to decrypt row, leaving on old generation", "event", "secrets_rotate_decrypt_failed", "host", c.host, "purpose", c.purpose, "error", err)
			continue
		}

		_, newMaterial := b.keyring.currentGeneration()
		ciphertext, nonce, tag, err := sealCredential(newMaterial, plaintext)
		if err != nil {
			return rotated, fmt.Errorf("secrets: rotate reseal failed: %w", err)
		}

		_, err = b.pool.Exec(ctx, `
			UPDATE host_credentials SET ciphertext = $1, nonce = $2, tag = $3, key_generation = $4, updated_at = now()
			WHERE host = $5 AND purpose = $6
		`, ciphertext, nonce, tag, currentGen, c.host, c.purpose)
		if err != nil {
			return rotated, fmt.Errorf("secrets: rotate update failed for %s/%s: %w", c.host, c.purpose, err)
		}
		rotated++
	}

	slog.Info("credential rotation complete", "event", "secrets_rotate_complete", "rotated", rotated)
	return rotated, nil
}
