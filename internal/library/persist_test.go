package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func TestFilePersister_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", StorageKey+".json")
	p := NewFilePersister(path)

	snap, err := p.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.LocalStories)

	s := New(p)
	s.AddStory(ctx, story("On Disk", 300, time.Hour, "file"))
	require.NoError(t, s.SetView(ctx, ViewList))

	reopened, err := Open(ctx, NewFilePersister(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"On Disk"}, titles(reopened.Stories()))
	assert.Equal(t, ViewList, reopened.View())
}

func TestFilePersister_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(context.Background(), NewFilePersister(path))
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "fork-your-story-storage", RedisKey(""))
	assert.Equal(t, "fork-your-story-storage:user-1", RedisKey("user-1"))
}

func TestRedisPersister_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Redis integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	p := NewRedisPersister(client, "owner-1", zap.NewNop())
	empty, err := Open(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, empty.Stories())

	empty.AddStory(ctx, story("In Redis", 300, time.Hour))
	require.NoError(t, empty.SetView(ctx, ViewTimeline))

	exists, err := client.Exists(ctx, "fork-your-story-storage:owner-1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	reopened, err := Open(ctx, NewRedisPersister(client, "owner-1", zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, []string{"In Redis"}, titles(reopened.Stories()))
	assert.Equal(t, ViewTimeline, reopened.View())

	other, err := Open(ctx, NewRedisPersister(client, "owner-2", zap.NewNop()))
	require.NoError(t, err)
	assert.Empty(t, other.Stories())
}
