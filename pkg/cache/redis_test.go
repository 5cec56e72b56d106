package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis test container")
	t.Cleanup(func() { _ = rc.Terminate(context.Background()) })

	host, err := rc.Host(ctx)
	require.NoError(t, err)
	port, err := rc.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestDeduper_MarkOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	client, closer, err := New(ctx, Config{Addr: startRedis(t)})
	require.NoError(t, err)
	defer closer()

	d := NewDeduper(client, "scored:", time.Minute)

	first, err := d.MarkOnce(ctx, "part-00000-a.json")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.MarkOnce(ctx, "part-00000-a.json")
	require.NoError(t, err)
	assert.False(t, again)

	ttl, err := client.TTL(ctx, "scored:part-00000-a.json").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, d.Release(ctx, "part-00000-a.json"))
	reclaimed, err := d.MarkOnce(ctx, "part-00000-a.json")
	require.NoError(t, err)
	assert.True(t, reclaimed)

	_, err = d.MarkOnce(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestNew_UnreachableRedis(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := New(ctx, Config{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	assert.Error(t, err)
}
