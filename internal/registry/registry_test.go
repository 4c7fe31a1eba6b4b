package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiscan/internal/model"
	"arbiscan/internal/store"
)

func TestRegistry_PutNeverOverwritesWithEmpty(t *testing.T) {
	kv := store.NewMemoryStore()
	reg := New(kv)
	ctx := context.Background()

	full := model.NewTicker("BTC")
	full.AddVenue("bybit_futures", model.KindCEXFutures)
	full.AddVenue("okx_spot", model.KindCEXSpot)
	require.NoError(t, reg.Put(ctx, full))

	empty := model.NewTicker("BTC")
	require.NoError(t, reg.Put(ctx, empty))

	got, found, err := reg.Get(ctx, "BTC")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Venues, 2, "empty write must not clobber the populated ticker")
}

func TestRegistry_Pairs_OrientsShortableAsHigh(t *testing.T) {
	kv := store.NewMemoryStore()
	reg := New(kv)

	tk := model.NewTicker("BTC")
	tk.AddVenue("binance_spot", model.KindCEXSpot)
	tk.AddVenue("binance_futures", model.KindCEXFutures)

	pairs := reg.Pairs(tk, nil, func(a, b string) bool { return true })
	require.Len(t, pairs, 1)
	assert.Equal(t, "binance_spot", pairs[0].LowVenue)
	assert.Equal(t, "binance_futures", pairs[0].HighVenue)
	assert.Equal(t, model.PairAuto, pairs[0].Type)
}
