package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/osociohoteleiro/sistema-de-hoteis-sub003/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type hotelEntry struct {
	HotelID uint   `json:"hotel_id"`
	Name    string `json:"name"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute, time.Minute, nil, zaptest.NewLogger(t))

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "user:1:hotels", []hotelEntry{{HotelID: 7, Name: "Sete"}}, time.Minute))

		var got []hotelEntry
		found, err := c.Get(ctx, "user:1:hotels", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []hotelEntry{{HotelID: 7, Name: "Sete"}}, got)
	})

	t.Run("stored value is a copy", func(t *testing.T) {
		value := []hotelEntry{{HotelID: 1, Name: "Original"}}
		require.NoError(t, c.Set(ctx, "copy", value, time.Minute))
		value[0].Name = "Alterado"

		var got []hotelEntry
		found, err := c.Get(ctx, "copy", &got)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "Original", got[0].Name)
	})

	t.Run("expired entry is absent", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "curto", "x", 10*time.Millisecond))
		time.Sleep(30 * time.Millisecond)

		var got string
		found, err := c.Get(ctx, "curto", &got)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("sweep removes expired entries", func(t *testing.T) {
		local := cache.NewMemoryCache(time.Minute, time.Hour, nil, zaptest.NewLogger(t))
		require.NoError(t, local.Set(ctx, "a", 1, 10*time.Millisecond))
		require.NoError(t, local.Set(ctx, "b", 2, time.Minute))
		time.Sleep(30 * time.Millisecond)

		local.DeleteExpired()
		assert.Equal(t, 1, local.ItemCount())
	})

	t.Run("serialization error", func(t *testing.T) {
		err := c.Set(ctx, "canal", make(chan int), time.Minute)
		assert.ErrorIs(t, err, cache.ErrSerialization)
	})

	t.Run("delete pattern", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "user:2:hotels", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "user:2:workspaces:lazy", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "user:20:hotels", 1, time.Minute))
		require.NoError(t, c.Set(ctx, "hotel:2:rooms", 1, time.Minute))

		require.NoError(t, c.DeletePattern(ctx, "user:2:*"))

		var v int
		found, _ := c.Get(ctx, "user:2:hotels", &v)
		assert.False(t, found)
		found, _ = c.Get(ctx, "user:2:workspaces:lazy", &v)
		assert.False(t, found)
		found, _ = c.Get(ctx, "user:20:hotels", &v)
		assert.True(t, found)
		found, _ = c.Get(ctx, "hotel:2:rooms", &v)
		assert.True(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, c.Clear(ctx))
		assert.Equal(t, 0, c.ItemCount())
	})
}
