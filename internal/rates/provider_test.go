package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExchangeRateAPIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/USD" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base":"USD","rates":{"EUR":0.92,"GBP":0.79,"ZZZ":123}}`))
	}))
	defer srv.Close()

	provider := NewExchangeRateAPI(srv.URL, "", 5*time.Second)
	quotes, err := provider.Fetch(context.Background(), "usd", []string{"EUR", "GBP"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes (unrequested codes dropped), got %d", len(quotes))
	}
	if !quotes["EUR"].Equal(dec(t, "0.92")) {
		t.Fatalf("unexpected EUR quote %s", quotes["EUR"])
	}
}

func TestExchangeRateAPIFetchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	provider := NewExchangeRateAPI(srv.URL, "", 5*time.Second)
	if _, err := provider.Fetch(context.Background(), "USD", []string{"EUR"}); !errors.Is(err, ErrProviderRequest) {
		t.Fatalf("expected ErrProviderRequest, got %v", err)
	}
}

func TestExchangeRateAPIFetchBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	provider := NewExchangeRateAPI(srv.URL, "", 5*time.Second)
	if _, err := provider.Fetch(context.Background(), "USD", []string{"EUR"}); !errors.Is(err, ErrProviderRequest) {
		t.Fatalf("expected ErrProviderRequest, got %v", err)
	}
}

func TestExchangeRateAPIFetchNonPositiveQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"EUR":0}}`))
	}))
	defer srv.Close()

	provider := NewExchangeRateAPI(srv.URL, "", 5*time.Second)
	if _, err := provider.Fetch(context.Background(), "USD", []string{"EUR"}); !errors.Is(err, ErrProviderRequest) {
		t.Fatalf("expected ErrProviderRequest, got %v", err)
	}
}

func TestExchangeRateAPIFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	provider := NewExchangeRateAPI(srv.URL, "", 20*time.Millisecond)
	if _, err := provider.Fetch(context.Background(), "USD", []string{"EUR"}); !errors.Is(err, ErrProviderRequest) {
		t.Fatalf("expected ErrProviderRequest on timeout, got %v", err)
	}
}
