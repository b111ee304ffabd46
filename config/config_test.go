package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for LoadConfig
// and returns its path.
func writeTempConfig(t *testing.T) string {
	t.Helper()
	content := `derivflow:
  name: "TestApp"
  version: "1.0"
provider:
  base_url: "https://example.test"
sources:
  - key: "BANKNIFTY"
    symbol: "BANKNIFTY"
    url: "https://example.test/api/option-chain-indices?symbol=BANKNIFTY"
    shape: "option-chain"
window:
  open: "09:15"
  close: "15:30"
  weekdays: ["Monday", "Tuesday", "Wednesday", "Thursday"]
snapshot:
  dir: "output"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Derivflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Derivflow.Name)
	}
	if cfg.Poll.Interval != 60*time.Second {
		t.Errorf("expected default poll interval, got %v", cfg.Poll.Interval)
	}
	if cfg.Expiry.Weekday != "Thursday" {
		t.Errorf("expected default expiry weekday, got %s", cfg.Expiry.Weekday)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Key != "BANKNIFTY" {
		t.Errorf("unexpected sources: %+v", cfg.Sources)
	}
}

func TestLoadConfigRejectsBadShape(t *testing.T) {
	content := `derivflow:
  name: "TestApp"
  version: "1.0"
provider:
  base_url: "https://example.test"
sources:
  - key: "X"
    url: "https://example.test/x"
    shape: "csv"
window:
  open: "09:15"
  close: "15:30"
  weekdays: ["Monday"]
snapshot:
  dir: "output"
`
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	f.Close()
	defer os.Remove(f.Name())

	if _, err := LoadConfig(f.Name()); err == nil {
		t.Fatal("expected validation error for invalid shape")
	} else if !strings.Contains(err.Error(), "invalid shape") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:15")
	if err != nil {
		t.Fatalf("ParseClock failed: %v", err)
	}
	if c.Hour != 9 || c.Minute != 15 {
		t.Errorf("unexpected clock: %+v", c)
	}
	if _, err := ParseClock("25:99"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestParseWeekday(t *testing.T) {
	d, ok := ParseWeekday("thursday")
	if !ok || d != time.Thursday {
		t.Errorf("ParseWeekday(thursday) = %v, %v", d, ok)
	}
	if _, ok := ParseWeekday("payday"); ok {
		t.Error("expected unknown weekday to fail")
	}
}

func TestIsValidS3Bucket(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"valid-bucket", true},
		{"Invalid", false},
		{"ab", false},
		{"my..bucket", false},
	}
	for _, c := range cases {
		if got := isValidS3Bucket(c.name); got != c.valid {
			t.Errorf("isValidS3Bucket(%q) = %v, want %v", c.name, got, c.valid)
		}
	}
}
