package registry

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arbiscan/internal/model"
	"arbiscan/internal/store"
)

func TestPairSource_RefreshBuildsPairsFromAllTickers(t *testing.T) {
	kv := store.NewMemoryStore()
	reg := New(kv)
	ctx := context.Background()

	btc := model.NewTicker("BTC")
	btc.AddVenue("okx_spot", model.KindCEXSpot)
	btc.AddVenue("bybit_futures", model.KindCEXFutures)
	require.NoError(t, reg.Put(ctx, btc))

	eth := model.NewTicker("ETH")
	eth.AddVenue("okx_spot", model.KindCEXSpot)
	require.NoError(t, reg.Put(ctx, eth))

	src := NewPairSource(reg, nil, zerolog.Nop())
	require.NoError(t, src.Refresh(ctx))

	pairs := src.Pairs()
	require.Len(t, pairs, 1, "ETH has only one venue and must be skipped")
	assert.Equal(t, "BTC", pairs[0].Symbol)
	assert.Equal(t, "okx_spot", pairs[0].LowVenue)
	assert.Equal(t, "bybit_futures", pairs[0].HighVenue)
}

func TestPairSource_PairsEmptyBeforeRefresh(t *testing.T) {
	src := NewPairSource(New(store.NewMemoryStore()), nil, zerolog.Nop())
	assert.Empty(t, src.Pairs())
}

func TestSameExchange(t *testing.T) {
	assert.True(t, sameExchange("okx_spot", "okx_futures"))
	assert.False(t, sameExchange("okx_spot", "bybit_futures"))
}
