package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, ok, err := s.Get(ctx, "pantry", "Rice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "pantry", "Rice", models.Fields{Quantity: 3}))
	require.NoError(t, s.Put(ctx, "pantry", "Apple", models.Fields{Quantity: 1}))
	require.NoError(t, s.Put(ctx, "other", "Rice", models.Fields{Quantity: 9}))

	fields, ok, err := s.Get(ctx, "pantry", "Rice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, fields.Quantity)

	docs, err := s.ListAll(ctx, "pantry")
	require.NoError(t, err)
	assert.Equal(t, []models.Document{
		{Key: "Apple", Fields: models.Fields{Quantity: 1}},
		{Key: "Rice", Fields: models.Fields{Quantity: 3}},
	}, docs)

	require.NoError(t, s.Delete(ctx, "pantry", "Rice"))
	require.NoError(t, s.Delete(ctx, "pantry", "missing"))

	docs, err = s.ListAll(ctx, "pantry")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestStore_Adjust(t *testing.T) {
	ctx := context.Background()
	s := New()

	res, err := s.Adjust(ctx, "pantry", "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{}, res)

	res, err = s.Adjust(ctx, "pantry", "Milk", 2)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Quantity: 2}, res)

	res, err = s.Adjust(ctx, "pantry", "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Existed: true, Quantity: 1}, res)

	res, err = s.Adjust(ctx, "pantry", "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Existed: true, Deleted: true}, res)

	_, ok, err := s.Get(ctx, "pantry", "Milk")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AdjustConcurrent(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Adjust(ctx, "pantry", "Eggs", 1)
		}()
	}
	wg.Wait()

	fields, ok, err := s.Get(ctx, "pantry", "Eggs")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 50, fields.Quantity)
}
