package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Idempotent(t *testing.T) {
	samples := []string{"BTCUSDT", "btc-usdt-swap", "ETH_PERP", "sol/usdc", "DOGEUSD"}
	for _, s := range samples {
		once := Normalize(s)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", s)
	}
}

func TestNormalize_CrossAdapterAgreement(t *testing.T) {
	assert.Equal(t, Normalize("BTCUSDT"), Normalize("BTC-USDT-SWAP"))
	assert.Equal(t, Normalize("ETHUSDT"), Normalize("ETH_PERP"))
	assert.Equal(t, "BTC", Normalize("btcusdt"))
}
