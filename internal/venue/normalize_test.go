package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeChain(t *testing.T) {
	cases := map[string]string{
		"ERC20":    "ethereum",
		"eth":      "ethereum",
		"BEP20":    "bsc",
		"SOL":      "solana",
		"Arbitrum": "arbitrum",
		"AVAXC":    "avalanche",
		"weird":    "weird",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeChain(in), "chain %s", in)
	}
}

func TestCanonicalAddress(t *testing.T) {
	assert.Equal(t, "0xabc123", canonicalAddress("ERC20", "0xABC123"))
	assert.Equal(t, "SoMeBase58", canonicalAddress("solana", "SoMeBase58"))
}
