package writer

import (
	"testing"
	"time"

	"derivflow/models"
)

func TestEncodeParquet(t *testing.T) {
	rows := []models.Row{
		{Ticker: "BANKNIFTY", StrikePrice: 48000, OptionType: "CE", AvgPrice: 305.25, TotalVolume: 1200, CapturedAt: time.Now()},
		{Ticker: "BANKNIFTY", StrikePrice: 48000, OptionType: "PE", CapturedAt: time.Now()},
	}

	data, err := encodeParquet(rows, "snappy")
	if err != nil {
		t.Fatalf("encodeParquet: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty parquet output")
	}
}

func TestEncodeParquetNoRows(t *testing.T) {
	data, err := encodeParquet(nil, "")
	if err != nil {
		t.Fatalf("encodeParquet with no rows: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("even an empty file carries parquet metadata")
	}
}
