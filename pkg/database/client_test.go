package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient starts a real PostgreSQL container, applies migrations
// against it, and returns a Client whose pool talks to that container.
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("opsconductor_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := Config{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		Database: "opsconductor_test",
		SSLMode:  "disable",
		MaxConns: 10,
		MinConns: 1,
	}

	client, err := NewClient(ctx, cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Pool.Ping(ctx))

	health, err := Health(ctx, client.Pool)
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxConns, int32(0))
}

func TestToolIndex_TagGINIndex(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	pool := client.Pool

	_, err := pool.Exec(ctx,
		`INSERT INTO tool_index (id, name, desc_short, platform, tags, cost_hint, embedding, full_spec)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		"tool-1", "restart-service", "restart a windows service", "windows",
		[]string{"windows", "service"}, "low", []byte{0x00}, []byte(`{}`))
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO tool_index (id, name, desc_short, platform, tags, cost_hint, embedding, full_spec)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		"tool-2", "ping-host", "check host reachability", "network",
		[]string{"network", "diagnostics"}, "low", []byte{0x00}, []byte(`{}`))
	require.NoError(t, err)

	rows, err := pool.Query(ctx, `SELECT id FROM tool_index WHERE tags @> $1`, []string{"windows"})
	require.NoError(t, err)
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"tool-1"}, ids)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", SSLMode: "disable", MaxConns: 10, MinConns: 5,
			},
			wantErr: false,
		},
		{
			name: "missing password",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "",
				Database: "test", MaxConns: 10, MinConns: 5,
			},
			wantErr: true,
		},
		{
			name: "min conns exceed max conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxConns: 5, MinConns: 10,
			},
			wantErr: true,
		},
		{
			name: "zero max conns",
			cfg: Config{
				Host: "localhost", Port: 5432, User: "test", Password: "test",
				Database: "test", MaxConns: 0, MinConns: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
