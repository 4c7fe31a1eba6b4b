// Package registry implements the Ticker Registry (§4.2): the unified
// symbol inventory, contract mapping, and arbitrage pair generation.
package registry

import "strings"

// quoteSuffixes is checked longest-first so "USDT" doesn't get stripped
// before a longer, more specific suffix would have matched.
var quoteSuffixes = []string{"USDT", "USDC", "BUSD", "PERP", "-PERP", "-SWAP", "_PERP", "USD"}

// Normalize implements Testable Property 1: idempotent, case-insensitive,
// quote/currency/"PERP" suffix stripping so the same base asset reported by
// different adapters collapses to one registry key (e.g. Bybit's "BTCUSDT",
// OKX's "BTC-USDT-SWAP", and a DEX's "BTC" all normalize to "BTC").
func Normalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, "/", "")

	changed := true
	for changed {
		changed = false
		for _, suffix := range quoteSuffixes {
			suffix = strings.ReplaceAll(strings.ReplaceAll(suffix, "-", ""), "_", "")
			if suffix == "" {
				continue
			}
			if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
				s = strings.TrimSuffix(s, suffix)
				changed = true
			}
		}
	}
	return s
}
