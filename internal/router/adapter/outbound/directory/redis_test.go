package directory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) (*miniredis.Miniredis, *RedisDirectory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisDirectory(client, "test:instances:", 10*time.Second)
}

func TestRedisDirectory_RegisterAndList(t *testing.T) {
	_, d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, port.ServiceInstance{
		ID:        "node-b",
		Endpoints: map[string]string{"http": "http://node-b:8080"},
		Metadata:  map[string]string{"load_factor": "2"},
	}))
	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-a"}))

	instances, err := d.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, "node-a", instances[0].ID)
	assert.Equal(t, "http://node-b:8080", instances[1].Endpoints["http"])
	assert.Equal(t, "2", instances[1].Metadata["load_factor"])
}

func TestRedisDirectory_RegisterRefreshes(t *testing.T) {
	mr, d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-a", Metadata: map[string]string{"v": "1"}}))
	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-a", Metadata: map[string]string{"v": "2"}}))

	instances, err := d.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "2", instances[0].Metadata["v"])
	assert.Equal(t, 10*time.Second, mr.TTL("test:instances:node-a"))
}

func TestRedisDirectory_ExpiryAndDeregister(t *testing.T) {
	mr, d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-a"}))
	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-b"}))

	require.NoError(t, d.Deregister(ctx, "node-a"))
	instances, err := d.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)

	mr.FastForward(11 * time.Second)
	instances, err = d.Instances(ctx)
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestRedisDirectory_SkipsForeignAndCorruptEntries(t *testing.T) {
	mr, d := newTestDirectory(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:instances:broken", "{not json"))
	require.NoError(t, mr.Set("other:key", `{"id":"x"}`))
	require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: "node-a"}))

	instances, err := d.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "node-a", instances[0].ID)
}

func TestRedisDirectory_ListsManyInstancesAndSkipsWrongType(t *testing.T) {
	mr, d := newTestDirectory(t)
	ctx := context.Background()

	for i := 0; i < 3*scanCount; i++ {
		require.NoError(t, d.Register(ctx, port.ServiceInstance{ID: fmt.Sprintf("node-%03d", i)}))
	}
	mr.HSet("test:instances:hash", "id", "node-x")

	instances, err := d.Instances(ctx)
	require.NoError(t, err)
	require.Len(t, instances, 3*scanCount)
	assert.Equal(t, "node-000", instances[0].ID)
	assert.Equal(t, fmt.Sprintf("node-%03d", 3*scanCount-1), instances[len(instances)-1].ID)
}

func TestRedisDirectory_RejectsEmptyID(t *testing.T) {
	_, d := newTestDirectory(t)
	assert.Error(t, d.Register(context.Background(), port.ServiceInstance{}))
}

func TestRedisDirectory_Unavailable(t *testing.T) {
	mr, d := newTestDirectory(t)
	mr.Close()

	_, err := d.Instances(context.Background())
	assert.Error(t, err)
}
