package writer

import (
	"bytes"
	"fmt"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	pqwriter "github.com/xitongsys/parquet-go/writer"

	"derivflow/models"
)

// parquetRow mirrors the snapshot column set with parquet typing.
type parquetRow struct {
	Ticker        string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Exchange      string  `parquet:"name=exchange, type=BYTE_ARRAY, convertedtype=UTF8"`
	LTP           float64 `parquet:"name=ltp, type=DOUBLE"`
	Qty           int64   `parquet:"name=qty, type=INT64"`
	Chg           float64 `parquet:"name=chg, type=DOUBLE"`
	PercChg       float64 `parquet:"name=perc_chg, type=DOUBLE"`
	BidQty        int64   `parquet:"name=bid_qty, type=INT64"`
	Bid           float64 `parquet:"name=bid, type=DOUBLE"`
	Open          float64 `parquet:"name=open, type=DOUBLE"`
	PrevClose     float64 `parquet:"name=prev_close, type=DOUBLE"`
	Low           float64 `parquet:"name=low, type=DOUBLE"`
	High          float64 `parquet:"name=high, type=DOUBLE"`
	AvgPrice      float64 `parquet:"name=avg_price, type=DOUBLE"`
	TotalVolume   int64   `parquet:"name=total_volume, type=INT64"`
	TotalValue    float64 `parquet:"name=total_value, type=DOUBLE"`
	OI            int64   `parquet:"name=oi, type=INT64"`
	OIChange      int64   `parquet:"name=oi_change, type=INT64"`
	NumContracts  int64   `parquet:"name=num_contracts, type=INT64"`
	StrikePrice   float64 `parquet:"name=strike_price, type=DOUBLE"`
	ExpiryDate    string  `parquet:"name=expiry_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	OptionType    string  `parquet:"name=option_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	PrevOpen      float64 `parquet:"name=prev_open, type=DOUBLE"`
	OICombinedFut float64 `parquet:"name=oi_combined_fut, type=DOUBLE"`
	FiveDayAvgVol float64 `parquet:"name=five_day_avg_vol, type=DOUBLE"`
	DerivedValue  float64 `parquet:"name=derived_value, type=DOUBLE"`
	CapturedAt    int64   `parquet:"name=captured_at, type=INT64"`
}

// memoryFileWriter implements the ParquetFile interface for in-memory writing.
type memoryFileWriter struct {
	buffer *bytes.Buffer
}

func newMemoryFileWriter() *memoryFileWriter {
	return &memoryFileWriter{buffer: &bytes.Buffer{}}
}

func (mfw *memoryFileWriter) Create(name string) (source.ParquetFile, error) { return mfw, nil }
func (mfw *memoryFileWriter) Open(name string) (source.ParquetFile, error)   { return mfw, nil }

func (mfw *memoryFileWriter) Seek(offset int64, whence int) (int64, error) {
	return int64(mfw.buffer.Len()), nil
}

func (mfw *memoryFileWriter) Read(b []byte) (int, error)  { return mfw.buffer.Read(b) }
func (mfw *memoryFileWriter) Write(b []byte) (int, error) { return mfw.buffer.Write(b) }
func (mfw *memoryFileWriter) Close() error                { return nil }
func (mfw *memoryFileWriter) Bytes() []byte               { return mfw.buffer.Bytes() }

// encodeParquet renders rows as an in-memory parquet file.
func encodeParquet(rows []models.Row, compression string) ([]byte, error) {
	fw := newMemoryFileWriter()

	pw, err := pqwriter.NewParquetWriter(fw, new(parquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet writer: %w", err)
	}

	switch compression {
	case "snappy":
		pw.CompressionType = parquet.CompressionCodec_SNAPPY
	case "gzip":
		pw.CompressionType = parquet.CompressionCodec_GZIP
	default:
		pw.CompressionType = parquet.CompressionCodec_UNCOMPRESSED
	}

	for _, r := range rows {
		rec := parquetRow{
			Ticker:        r.Ticker,
			Exchange:      r.Exchange,
			LTP:           r.LTP,
			Qty:           r.Qty,
			Chg:           r.Chg,
			PercChg:       r.PercChg,
			BidQty:        r.BidQty,
			Bid:           r.Bid,
			Open:          r.Open,
			PrevClose:     r.PrevClose,
			Low:           r.Low,
			High:          r.High,
			AvgPrice:      r.AvgPrice,
			TotalVolume:   r.TotalVolume,
			TotalValue:    r.TotalValue,
			OI:            r.OI,
			OIChange:      r.OIChange,
			NumContracts:  r.NumContracts,
			StrikePrice:   r.StrikePrice,
			ExpiryDate:    r.ExpiryDate,
			OptionType:    r.OptionType,
			PrevOpen:      r.PrevOpen,
			OICombinedFut: r.OICombinedFut,
			FiveDayAvgVol: r.FiveDayAvgVol,
			DerivedValue:  r.DerivedValue,
			CapturedAt:    r.CapturedAt.UnixMilli(),
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return nil, fmt.Errorf("failed to write parquet record: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("failed to finalize parquet writing: %w", err)
	}

	return fw.Bytes(), nil
}
