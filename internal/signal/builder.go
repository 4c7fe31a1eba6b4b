// Package signal turns a validated Opportunity into the transport-ready
// Signal record (§4.7): signal type, strategy type, fees, net spread,
// strategy_id, action text, and venue links. Every step is pure.
package signal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// Build assembles a Signal from a validated Opportunity. lagging is nil for
// non-lagging candidates. contractAddress is used only for DEX chart/screener
// links; pass "" when neither leg is a DEX.
func Build(opp model.Opportunity, result model.ValidationResult, lagging *model.LaggingInfo, isManual bool, dir VenueDirectory, contractAddress string, now time.Time) model.Signal {
	signalType := deriveSignalType(result, lagging, isManual)
	strategyType := model.DeriveStrategyType(opp.Pair.LowKind, opp.Pair.HighKind)
	fees := ComputeFees(opp.Pair.LowKind, opp.Pair.HighKind)

	netSpread := opp.RealSpreadPct.Sub(fees.TotalPct)

	strategyID := FormatStrategyID(strategyType, opp.Pair.Symbol, opp.RealSpreadPct, now)

	buyURL, sellURL, chartURL := Links(dir, opp.Pair, contractAddress)

	status := model.StatusFailed
	if result.Valid {
		status = model.StatusValid
	}

	return model.Signal{
		StrategyID:   strategyID,
		Type:         signalType,
		StrategyType: strategyType,
		Opportunity:  opp,
		Fees:         fees,
		NetSpreadPct: netSpread,
		ActionText:   actionText(opp.Pair),
		BuyURL:       buyURL,
		SellURL:      sellURL,
		ChartURL:     chartURL,
		Validation:   result,
		Lagging:      lagging,
		Status:       status,
		CreatedAt:    now,
	}
}

// deriveSignalType computes signal_type from direction and lagging flags,
// per §4.7 step 1.
func deriveSignalType(result model.ValidationResult, lagging *model.LaggingInfo, isManual bool) model.SignalType {
	if lagging != nil {
		return model.SignalLagging
	}
	if !result.Valid {
		return model.SignalInvalid
	}
	if isManual {
		return model.SignalManual
	}
	return model.SignalAuto
}

func actionText(pair model.ArbitragePair) []string {
	action := "SHORT"
	if !pair.HighKind.Shortable() {
		action = "SELL"
	}
	return []string{
		fmt.Sprintf("BUY %s on %s", pair.Symbol, pair.LowVenue),
		fmt.Sprintf("%s %s on %s", action, pair.Symbol, pair.HighVenue),
		"Enter in parts, match sizes",
		"Wait for convergence",
	}
}

// FormatStrategyID renders {TYPE}-{SYMBOL}-S{spread}-{ts4}-{seq2}: ts4 is
// the last 4 digits of the unix timestamp (seconds), and seq2 is a base36
// pair derived from a fresh uuid, so signals emitted within the same
// 4-digit timestamp slice still disambiguate without a shared counter.
func FormatStrategyID(strategyType model.StrategyType, symbol string, spreadPct decimal.Decimal, now time.Time) string {
	ts := now.Unix()
	ts4 := ts % 10000

	seq2 := uuidSeq2()
	spreadStr := strings.ReplaceAll(spreadPct.Round(2).String(), ".", "_")

	return fmt.Sprintf("%s-%s-S%s-%04d-%s", strategyType, symbol, spreadStr, ts4, seq2)
}

// uuidSeq2 derives a 2-character base36 suffix from a fresh uuid's first
// byte, mod 100 (so it always fits in 2 base36 digits).
func uuidSeq2() string {
	id := uuid.New()
	n := int(id[0]) % 100
	s := strconv.FormatInt(int64(n), 36)
	if len(s) < 2 {
		s = "0" + s
	}
	return s
}
