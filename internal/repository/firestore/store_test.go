package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	gfs "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/pantry/internal/domain/models"
)

// newEmulatorStore connects to the emulator named by FIRESTORE_EMULATOR_HOST.
func newEmulatorStore(t *testing.T) (*Store, string) {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := gfs.NewClient(ctx, "pantry-test")
	require.NoError(t, err)

	s := NewWithClient(client, zaptest.NewLogger(t))
	if err := s.Ping(ctx); err != nil {
		t.Skipf("Firestore emulator not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	return s, "pantry_" + uuid.NewString()
}

func TestStore_InvalidDocumentID(t *testing.T) {
	s := &Store{}
	for _, key := range []string{"", ".", "..", "a/b", "__name__"} {
		_, err := s.doc("pantry", key)
		assert.ErrorIs(t, err, ErrInvalidDocumentID, key)
	}
}

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		want    int
		wantErr string
	}{
		{name: "integer", data: map[string]any{"quantity": int64(3)}, want: 3},
		{name: "integral double", data: map[string]any{"quantity": float64(2)}, want: 2},
		{name: "fractional double", data: map[string]any{"quantity": 1.5}, wantErr: "not an integer"},
		{name: "string", data: map[string]any{"quantity": "3"}, wantErr: "unexpected quantity type"},
		{name: "missing", data: map[string]any{"qty": int64(3)}, wantErr: "has no quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := decodeFields("Rice", tt.data)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.Fields{Quantity: tt.want}, fields)
		})
	}
}

func TestStore_CRUD(t *testing.T) {
	s, coll := newEmulatorStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, coll, "Rice", models.Fields{Quantity: 3}))
	require.NoError(t, s.Put(ctx, coll, "Apple", models.Fields{Quantity: 1}))

	fields, ok, err := s.Get(ctx, coll, "Rice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, fields.Quantity)

	docs, err := s.ListAll(ctx, coll)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Apple", docs[0].Key)

	require.NoError(t, s.Delete(ctx, coll, "Rice"))
	_, ok, err = s.Get(ctx, coll, "Rice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Adjust(t *testing.T) {
	s, coll := newEmulatorStore(t)
	ctx := context.Background()

	res, err := s.Adjust(ctx, coll, "Milk", 1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Quantity: 1}, res)

	res, err = s.Adjust(ctx, coll, "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{Existed: true, Deleted: true}, res)

	res, err = s.Adjust(ctx, coll, "Milk", -1)
	require.NoError(t, err)
	assert.Equal(t, models.Adjustment{}, res)
}
