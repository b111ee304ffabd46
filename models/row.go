package models

import (
	"strconv"
	"time"
)

// Row is the canonical flat record every normalizer produces. Numeric fields
// are never null: absent or malformed source values are already coalesced to
// zero by the time a Row exists. A StrikePrice of exactly 0 marks a record
// that is not a real options leg; the filter stage discards those.
type Row struct {
	Ticker        string    `db:"ticker"`
	Exchange      string    `db:"exchange"`
	LTP           float64   `db:"ltp"`
	Qty           int64     `db:"qty"`
	Chg           float64   `db:"chg"`
	PercChg       float64   `db:"perc_chg"`
	BidQty        int64     `db:"bid_qty"`
	Bid           float64   `db:"bid"`
	Open          float64   `db:"open"`
	PrevClose     float64   `db:"prev_close"`
	Low           float64   `db:"low"`
	High          float64   `db:"high"`
	AvgPrice      float64   `db:"avg_price"`
	TotalVolume   int64     `db:"total_volume"`
	TotalValue    float64   `db:"total_value"`
	OI            int64     `db:"oi"`
	OIChange      int64     `db:"oi_change"`
	NumContracts  int64     `db:"num_contracts"`
	StrikePrice   float64   `db:"strike_price"`
	ExpiryDate    string    `db:"expiry_date"`
	OptionType    string    `db:"option_type"`
	PrevOpen      float64   `db:"prev_open"`
	OICombinedFut float64   `db:"oi_combined_fut"`
	FiveDayAvgVol float64   `db:"five_day_avg_vol"`
	DerivedValue  float64   `db:"derived_value"`
	CapturedAt    time.Time `db:"captured_at"`
}

// Header returns the output column names in their canonical order.
func Header() []string {
	return []string{
		"Ticker", "Exchange", "LTP", "Qty", "Chg", "PercChg", "BidQty", "Bid",
		"Open", "PrevClose", "Low", "High", "AvgPrice", "TotalVolume",
		"TotalValue", "OI", "OIChange", "NumContracts", "StrikePrice",
		"ExpiryDate", "OptionType", "PrevOpen", "OICombinedFut",
		"FiveDayAvgVol", "DerivedValue", "CapturedAt",
	}
}

// Record renders the row as strings in Header order.
func (r Row) Record() []string {
	return []string{
		r.Ticker,
		r.Exchange,
		formatFloat(r.LTP),
		strconv.FormatInt(r.Qty, 10),
		formatFloat(r.Chg),
		formatFloat(r.PercChg),
		strconv.FormatInt(r.BidQty, 10),
		formatFloat(r.Bid),
		formatFloat(r.Open),
		formatFloat(r.PrevClose),
		formatFloat(r.Low),
		formatFloat(r.High),
		formatFloat(r.AvgPrice),
		strconv.FormatInt(r.TotalVolume, 10),
		formatFloat(r.TotalValue),
		strconv.FormatInt(r.OI, 10),
		strconv.FormatInt(r.OIChange, 10),
		strconv.FormatInt(r.NumContracts, 10),
		formatFloat(r.StrikePrice),
		r.ExpiryDate,
		r.OptionType,
		formatFloat(r.PrevOpen),
		formatFloat(r.OICombinedFut),
		formatFloat(r.FiveDayAvgVol),
		formatFloat(r.DerivedValue),
		r.CapturedAt.UTC().Format(time.RFC3339),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
