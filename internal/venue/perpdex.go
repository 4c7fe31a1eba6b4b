package venue

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"arbiscan/internal/model"
)

// PerpFundingSource is the narrow on-chain perp surface (GMX/Hyperliquid-
// style) a PerpDEX adapter reads funding from; quoting/liquidity reuse
// DEXQuoter since the AMM-style price-impact model is the same shape.
type PerpFundingSource interface {
	FundingRate(ctx context.Context, chain, market string) (rate decimal.Decimal, nextFundingTime time.Time, periodHours int, err error)
}

// PerpDEX implements Adapter for an on-chain perpetual venue: shortable,
// synthetic order book like DEX, but also exposes a funding rate.
type PerpDEX struct {
	*DEX
	funding PerpFundingSource
}

func NewPerpDEX(venueID, chain string, quoter DEXQuoter, funding PerpFundingSource, tokenAddress func(string) (string, bool)) *PerpDEX {
	return &PerpDEX{DEX: NewDEX(venueID, chain, quoter, tokenAddress), funding: funding}
}

func (p *PerpDEX) Kind() model.VenueKind { return model.KindPerpDEX }

func (p *PerpDEX) FundingRate(ctx context.Context, symbol string) (FundingInfo, error) {
	addr, ok := p.tokenAddress(symbol)
	if !ok {
		return FundingInfo{}, nil
	}
	rate, next, periodHours, err := p.funding.FundingRate(ctx, p.chain, addr)
	if err != nil {
		return FundingInfo{}, err
	}
	return FundingInfo{Rate: rate, NextFundingTime: next, PeriodHours: periodHours}, nil
}
