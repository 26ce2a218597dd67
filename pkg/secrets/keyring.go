package secrets

import "strings"

// keyring holds every key generation the broker can still decrypt under,
// so reads succeed regardless of which generation a row was last
// encrypted with (spec §4.3: "reads during rotation must succeed under
// either key generation"). Generation numbers are 1-based and assigned by
// position, oldest first; the last entry is always current.
type keyring struct {
	generations map[int]string
	current     int
}

// newKeyring parses SecretsConfig.KMSKey as a comma-separated list of key
// material, one entry per generation still in service. A single-entry
// value (the common case, no rotation in progress) yields a keyring with
// one generation.
func newKeyring(kmsKey string) (*keyring, error) {
	if strings.TrimSpace(kmsKey) == "" {
		return nil, ErrMissingMasterKey
	}
	parts := strings.Split(kmsKey, ",")
	kr := &keyring{generations: make(map[int]string, len(parts))}
	for i, p := range parts {
		gen := i + 1
		kr.generations[gen] = strings.TrimSpace(p)
		kr.current = gen
	}
	return kr, nil
}

func (k *keyring) currentGeneration() (int, string) {
	return k.current, k.generations[k.current]
}

func (k *keyring) material(generation int) (string, bool) {
	m, ok := k.generations[generation]
	return m, ok
}
