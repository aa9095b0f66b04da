package redis

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

func getRedisStore(t *testing.T) (*Store, string) {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	s := NewWithClient(client, "pantry-test:", nil)
	collection := uuid.NewString()
	t.Cleanup(func() {
		client.Del(context.Background(), s.key(collection))
		_ = client.Close()
	})
	return s, collection
}

func TestStore_CRUD(t *testing.T) {
	s, coll := getRedisStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, coll, "Rice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, coll, "Rice", models.Fields{Quantity: 3}))
	require.NoError(t, s.Put(ctx, coll, "Apple", models.Fields{Quantity: 1}))

	docs, err := s.ListAll(ctx, coll)
	require.NoError(t, err)
	assert.Equal(t, []models.Document{
		{Key: "Apple", Fields: models.Fields{Quantity: 1}},
		{Key: "Rice", Fields: models.Fields{Quantity: 3}},
	}, docs)

	require.NoError(t, s.Delete(ctx, coll, "Apple"))
	_, ok, err = s.Get(ctx, coll, "Apple")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Adjust(t *testing.T) {
	s, coll := getRedisStore(t)
	ctx := context.Background()

	res, err := s.Adjust(ctx, coll, "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{}, res)

	res, err = s.Adjust(ctx, coll, "Milk", 1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Quantity: 1}, res)

	res, err = s.Adjust(ctx, coll, "Milk", 2)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Existed: true, Quantity: 3}, res)

	res, err = s.Adjust(ctx, coll, "Milk", -3)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Existed: true, Deleted: true}, res)
}

func TestStore_AdjustConcurrent(t *testing.T) {
	s, coll := getRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, coll, "Eggs", models.Fields{Quantity: 100}))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Adjust(ctx, coll, "Eggs", -1)
		}()
	}
	wg.Wait()

	_, ok, err := s.Get(ctx, coll, "Eggs")
	require.NoError(t, err)
	assert.False(t, ok, "item should be deleted after reaching zero")
}
