package nse

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"derivflow/config"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Provider: config.ProviderConfig{
			BaseURL:           baseURL,
			UserAgent:         "Mozilla/5.0",
			AcceptLanguage:    "en-US,en;q=0.9",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 100,
			Burst:             10,
		},
	}
}

func TestFetchWarmsSessionFirst(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if r.URL.Path == "/" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc"})
			w.WriteHeader(http.StatusOK)
			return
		}
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			t.Errorf("expected warm-up cookie on API request, got %v", r.Cookies())
		}
		w.Write([]byte(`{"records":{}}`))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	src := config.SourceConfig{Key: "NIFTY", URL: srv.URL + "/api/option-chain-indices?symbol=NIFTY"}
	body, err := client.Fetch(context.Background(), src)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("expected non-empty body")
	}
	if len(calls) != 2 || calls[0] != "/" {
		t.Fatalf("expected warm-up before API call, got %v", calls)
	}
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "Mozilla/5.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept-Language"); got != "en-US,en;q=0.9" {
			t.Errorf("Accept-Language = %q", got)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Fetch(context.Background(), config.SourceConfig{Key: "X", URL: srv.URL + "/api"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Fetch(context.Background(), config.SourceConfig{Key: "X", URL: srv.URL + "/api"})
	if err == nil {
		t.Fatalf("expected error for 401 response")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", fe.Status)
	}
	if !IsFetchError(err) {
		t.Errorf("IsFetchError = false")
	}
}

func TestFetchDecompressesGzipBody(t *testing.T) {
	payload := `{"records":{"data":[]}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Setting Accept-Encoding ourselves means the transport will not
		// decompress for us; the client has to.
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		gz.Write([]byte(payload))
		gz.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Provider.AcceptEncoding = "gzip"
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	body, err := client.Fetch(context.Background(), config.SourceConfig{Key: "X", URL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(body) != payload {
		t.Fatalf("body = %q, want decompressed payload", body)
	}
}

func TestFetchContinuesAfterFailedWarmup(t *testing.T) {
	warmFails := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			if warmFails {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	client, err := NewClient(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	// The fetch itself still succeeds even though warm-up failed.
	if _, err := client.Fetch(context.Background(), config.SourceConfig{Key: "X", URL: srv.URL + "/api"}); err != nil {
		t.Fatalf("Fetch after failed warm-up: %v", err)
	}

	// The next fetch retries the warm-up.
	warmFails = false
	if err := client.Warm(context.Background()); err != nil {
		t.Fatalf("Warm retry: %v", err)
	}
}
