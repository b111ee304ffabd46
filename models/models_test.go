package models

import (
	"encoding/json"
	"testing"
)

func TestFloatUnmarshalLooseValues(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want float64
	}{
		{"number", `12.5`, 12.5},
		{"numeric string", `"42"`, 42},
		{"thousand separators", `"1,23,456.75"`, 123456.75},
		{"null", `null`, 0},
		{"dash placeholder", `"-"`, 0},
		{"empty string", `""`, 0},
		{"garbage", `"NA"`, 0},
	}
	for _, c := range cases {
		var f Float
		if err := json.Unmarshal([]byte(c.in), &f); err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if float64(f) != c.want {
			t.Errorf("%s: got %v, want %v", c.name, float64(f), c.want)
		}
	}
}

func TestIntUnmarshalTruncates(t *testing.T) {
	var i Int
	if err := json.Unmarshal([]byte(`"12.9"`), &i); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if i != 12 {
		t.Errorf("got %d, want 12", i)
	}
}

func TestOptionChainAbsentSideStaysNil(t *testing.T) {
	payload := `{"records":{"data":[{"strikePrice":48000,"expiryDate":"26-Sep-2024","CE":{"underlying":"BANKNIFTY","lastPrice":120.5}}]}}`
	var resp OptionChainResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Records.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(resp.Records.Data))
	}
	rec := resp.Records.Data[0]
	if rec.CE == nil {
		t.Fatal("expected CE side present")
	}
	if rec.PE != nil {
		t.Fatal("expected PE side absent")
	}
	if rec.CE.Underlying != "BANKNIFTY" {
		t.Errorf("unexpected underlying: %s", rec.CE.Underlying)
	}
}

func TestRowRecordMatchesHeader(t *testing.T) {
	if got, want := len(Row{}.Record()), len(Header()); got != want {
		t.Fatalf("record has %d fields, header has %d", got, want)
	}
}
