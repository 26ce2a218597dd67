package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/opsconductor/core/pkg/database"
)

const testInternalKey = "test-internal-key"

func newTestBroker(t *testing.T, kmsKey string) Broker {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "opsconductor",
			"POSTGRES_PASSWORD": "opsconductor",
			"POSTGRES_DB":       "opsconductor",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	client, err := database.NewClient(ctx, database.Config{
		Host: host, Port: port.Int(), User: "opsconductor", Password: "opsconductor",
		Database: "opsconductor", SSLMode: "disable", MaxConns: 5, MinConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	b, err := NewBroker(client.Pool, kmsKey, testInternalKey)
	require.NoError(t, err)
	return b
}

func TestBroker_UpsertAndLookup_RoundTrips(t *testing.T) {
	b := newTestBroker(t, "generation-one-key")
	ctx := context.Background()

	require.NoError(t, b.UpsertCredential(ctx, testInternalKey, "stage-e", "host-1", "ssh", "admin", "s3cr3t", "CORP"))

	cred, err := b.LookupCredential(ctx, testInternalKey, "stage-e", "host-1", "ssh")
	require.NoError(t, err)
	assert.Equal(t, "admin", cred.Username)
	assert.Equal(t, "s3cr3t", cred.Password)
	assert.Equal(t, "CORP", cred.Domain)
}

func TestBroker_LookupCredential_NotFound(t *testing.T) {
	b := newTestBroker(t, "some-key")
	_, err := b.LookupCredential(context.Background(), testInternalKey, "actor", "nowhere", "ssh")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBroker_InvalidServiceToken(t *testing.T) {
	b := newTestBroker(t, "some-key")
	err := b.UpsertCredential(context.Background(), "wrong-token", "actor", "h", "p", "u", "pw", "")
	assert.ErrorIs(t, err, ErrInvalidServiceToken)
}

func TestBroker_DeleteCredential(t *testing.T) {
	b := newTestBroker(t, "some-key")
	ctx := context.Background()
	require.NoError(t, b.UpsertCredential(ctx, testInternalKey, "actor", "host-2", "winrm", "u", "p", ""))

	require.NoError(t, b.DeleteCredential(ctx, testInternalKey, "actor", "host-2", "winrm"))

	_, err := b.LookupCredential(ctx, testInternalKey, "actor", "host-2", "winrm")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBroker_Rotate_ReadsSucceedUnderEitherGeneration(t *testing.T) {
	ctx := context.Background()
	b := newTestBroker(t, "generation-one-key")
	require.NoError(t, b.UpsertCredential(ctx, testInternalKey, "actor", "host-3", "ssh", "u", "p", ""))

	// Reconstruct the broker with a second key generation appended, as an
	// operator adding a new generation before rotating would.
	brk := b.(*broker)
	kr, err := newKeyring("generation-one-key,generation-two-key")
	require.NoError(t, err)
	brk.keyring = kr

	// Existing row still decrypts fine under generation 1 before rotation.
	cred, err := b.LookupCredential(ctx, testInternalKey, "actor", "host-3", "ssh")
	require.NoError(t, err)
	assert.Equal(t, "p", cred.Password)

	rotated, err := b.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rotated)

	cred, err = b.LookupCredential(ctx, testInternalKey, "actor", "host-3", "ssh")
	require.NoError(t, err)
	assert.Equal(t, "p", cred.Password)
}
