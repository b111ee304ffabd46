package processor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"derivflow/config"
	"derivflow/logger"
	"derivflow/models"
)

const exchangeTag = "NSE"

// TickerRule resolves the output ticker for one quote-derivative item. The
// rule is swappable per source because identifier formats differ between
// instrument families.
type TickerRule func(identifier string) string

// FixedTicker always returns the configured symbol, regardless of the
// item's identifier. Used for single-instrument future sources.
func FixedTicker(symbol string) TickerRule {
	return func(string) string { return symbol }
}

// IdentifierTicker splits the identifier on whitespace and takes the second
// token. An identifier with no whitespace yields an empty ticker; that is an
// accepted edge case, not a failure.
func IdentifierTicker() TickerRule {
	return func(identifier string) string {
		parts := strings.Fields(identifier)
		if len(parts) < 2 {
			return ""
		}
		return parts[1]
	}
}

// RuleFor selects the ticker rule configured for a source. Sources without an
// explicit rule use the identifier split.
func RuleFor(src config.SourceConfig) TickerRule {
	if src.TickerRule == config.TickerRuleFixed {
		return FixedTicker(src.Symbol)
	}
	return IdentifierTicker()
}

// Normalizer converts raw provider payloads into the flat row schema. It
// decodes each vendor shape exactly once at this boundary; everything
// downstream operates on typed rows.
type Normalizer struct {
	log *logger.Log
}

func NewNormalizer() *Normalizer {
	return &Normalizer{log: logger.GetLogger()}
}

// Normalize dispatches on the source's payload shape. A body that fails to
// decode is an error (the cycle skips the source); a body that decodes but
// lacks the expected collection yields zero rows.
func (n *Normalizer) Normalize(src config.SourceConfig, raw []byte, capturedAt time.Time) ([]models.Row, error) {
	switch src.Shape {
	case config.ShapeOptionChain:
		return n.normalizeOptionChain(src, raw, capturedAt)
	case config.ShapeQuoteDerivative:
		return n.normalizeQuoteDerivative(src, raw, capturedAt)
	default:
		return nil, fmt.Errorf("source %s: unknown payload shape %q", src.Key, src.Shape)
	}
}

// normalizeOptionChain emits one row per populated CE/PE side of every
// strike/expiry record. Both sides share the record's strike and expiry; the
// ticker comes from each side's own underlying field.
func (n *Normalizer) normalizeOptionChain(src config.SourceConfig, raw []byte, capturedAt time.Time) ([]models.Row, error) {
	var payload models.OptionChainResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("source %s: failed to decode option-chain payload: %w", src.Key, err)
	}

	if len(payload.Records.Data) == 0 {
		n.log.WithComponent("normalizer").WithFields(logger.Fields{
			"source": src.Key,
		}).Warn("option-chain payload carried no records")
		return nil, nil
	}

	rows := make([]models.Row, 0, len(payload.Records.Data)*2)
	for _, rec := range payload.Records.Data {
		if rec.CE != nil {
			rows = append(rows, legRow(rec, rec.CE, "CE", capturedAt))
		}
		if rec.PE != nil {
			rows = append(rows, legRow(rec, rec.PE, "PE", capturedAt))
		}
	}
	return rows, nil
}

func legRow(rec models.OptionChainRecord, leg *models.OptionLeg, optionType string, capturedAt time.Time) models.Row {
	return models.Row{
		Ticker:        leg.Underlying,
		Exchange:      exchangeTag,
		LTP:           float64(leg.LastPrice),
		Qty:           int64(leg.TotalTradedVolume),
		Chg:           float64(leg.Change),
		PercChg:       float64(leg.PChange),
		BidQty:        int64(leg.BidQty),
		Bid:           float64(leg.BidPrice),
		Open:          float64(leg.OpenPrice),
		PrevClose:     float64(leg.PrevClose),
		Low:           float64(leg.LowPrice),
		High:          float64(leg.HighPrice),
		AvgPrice:      float64(leg.VWAP),
		TotalVolume:   int64(leg.TotalTradedVolume),
		TotalValue:    float64(leg.TotalValue),
		OI:            int64(leg.OpenInterest),
		OIChange:      int64(leg.ChangeInOI),
		NumContracts:  int64(leg.NumberOfContracts),
		StrikePrice:   float64(rec.StrikePrice),
		ExpiryDate:    rec.ExpiryDate,
		OptionType:    optionType,
		PrevOpen:      float64(leg.OpenPrice),
		OICombinedFut: float64(leg.CombinedOI),
		FiveDayAvgVol: float64(leg.FiveDayAvgVolume),
		CapturedAt:    capturedAt,
	}
}

// normalizeQuoteDerivative emits exactly one row per instrument item. Best
// bid defaults to zero when the depth array is empty.
func (n *Normalizer) normalizeQuoteDerivative(src config.SourceConfig, raw []byte, capturedAt time.Time) ([]models.Row, error) {
	var payload models.QuoteDerivativeResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("source %s: failed to decode quote-derivative payload: %w", src.Key, err)
	}

	if len(payload.Stocks) == 0 {
		n.log.WithComponent("normalizer").WithFields(logger.Fields{
			"source": src.Key,
		}).Warn("quote-derivative payload carried no instruments")
		return nil, nil
	}

	ticker := RuleFor(src)

	rows := make([]models.Row, 0, len(payload.Stocks))
	for _, stock := range payload.Stocks {
		meta := stock.Metadata
		trade := stock.OrderBook.TradeInfo

		var bidQty int64
		var bid float64
		if len(stock.OrderBook.Bid) > 0 {
			bidQty = int64(stock.OrderBook.Bid[0].Quantity)
			bid = float64(stock.OrderBook.Bid[0].Price)
		}

		rows = append(rows, models.Row{
			Ticker:        ticker(meta.Identifier),
			Exchange:      exchangeTag,
			LTP:           float64(meta.LastPrice),
			Qty:           int64(trade.TradedVolume),
			Chg:           float64(meta.Change),
			PercChg:       float64(meta.PChange),
			BidQty:        bidQty,
			Bid:           bid,
			Open:          float64(meta.OpenPrice),
			PrevClose:     float64(meta.PrevClose),
			Low:           float64(meta.LowPrice),
			High:          float64(meta.HighPrice),
			AvgPrice:      float64(trade.VMAP),
			TotalVolume:   int64(trade.TradedVolume),
			TotalValue:    float64(trade.Value),
			OI:            int64(trade.OpenInterest),
			OIChange:      int64(trade.ChangeInOI),
			NumContracts:  int64(meta.NumberOfContracts),
			StrikePrice:   float64(meta.StrikePrice),
			ExpiryDate:    meta.ExpiryDate,
			OptionType:    meta.OptionType,
			PrevOpen:      float64(meta.OpenPrice),
			OICombinedFut: float64(stock.OrderBook.OtherInfo.CombinedOI),
			FiveDayAvgVol: float64(trade.FiveDayAvgVolume),
			CapturedAt:    capturedAt,
		})
	}
	return rows, nil
}
