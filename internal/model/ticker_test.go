package model

import "testing"

func TestTicker_SetVenueNetwork(t *testing.T) {
	tk := NewTicker("USDT")
	tk.SetVenueNetwork("binance_spot", "ethereum", true, false)
	tk.SetVenueNetwork("binance_spot", "solana", true, true)
	tk.SetVenueNetwork("kraken_spot", "ethereum", true, true)

	flags, ok := tk.NetworkFlags("binance_spot", "ethereum")
	if !ok {
		t.Fatal("expected binance_spot/ethereum flags to be recorded")
	}
	if flags.DepositEnabled != true || flags.WithdrawEnabled != false {
		t.Errorf("unexpected flags for binance_spot/ethereum: %+v", flags)
	}

	flags, ok = tk.NetworkFlags("kraken_spot", "ethereum")
	if !ok || !flags.DepositEnabled || !flags.WithdrawEnabled {
		t.Errorf("unexpected flags for kraken_spot/ethereum: %+v ok=%v", flags, ok)
	}

	if _, ok := tk.NetworkFlags("kraken_spot", "solana"); ok {
		t.Error("expected no flags recorded for a (venue, chain) pair never set")
	}
	if _, ok := tk.NetworkFlags("okx_spot", "ethereum"); ok {
		t.Error("expected no flags recorded for a venue never reported on this ticker")
	}
}
