package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
)

// ErrProviderRequest wraps any transport, decoding or data failure from the
// external rate provider. Callers may retry; the refresher never does.
var ErrProviderRequest = errors.New("rate provider request failed")

// Provider fetches quotes for a basket of currency codes against a base
// currency. Quotes are expressed as units of code per one unit of base.
type Provider interface {
	Fetch(ctx context.Context, base string, codes []string) (map[string]decimal.Decimal, error)
	Source() string
}

// ExchangeRateAPI is an HTTP client for the ExchangeRate-API latest-rates
// endpoint.
type ExchangeRateAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateAPI builds a provider client with a bounded request timeout.
func NewExchangeRateAPI(baseURL, apiKey string, timeout time.Duration) *ExchangeRateAPI {
	return &ExchangeRateAPI{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Source identifies the provider in cached pairs and history entries.
func (p *ExchangeRateAPI) Source() string { return "ExchangeRate-API" }

// Fetch retrieves the latest quotes for the requested codes. Codes the
// provider does not quote are omitted from the result; a non-positive quote
// fails the whole fetch.
func (p *ExchangeRateAPI) Fetch(ctx context.Context, base string, codes []string) (map[string]decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s", p.baseURL, currency.Normalize(base))
	if p.apiKey != "" {
		url += "?api_key=" + p.apiKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrProviderRequest, resp.StatusCode)
	}

	var payload struct {
		Rates map[string]json.Number `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrProviderRequest, err)
	}

	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[currency.Normalize(code)] = struct{}{}
	}

	quotes := make(map[string]decimal.Decimal, len(wanted))
	for code, raw := range payload.Rates {
		code = currency.Normalize(code)
		if _, ok := wanted[code]; !ok {
			continue
		}
		rate, err := decimal.NewFromString(raw.String())
		if err != nil {
			return nil, fmt.Errorf("%w: quote for %s: %v", ErrProviderRequest, code, err)
		}
		if rate.Sign() <= 0 {
			return nil, fmt.Errorf("%w: non-positive quote %s for %s", ErrProviderRequest, rate, code)
		}
		quotes[code] = rate
	}
	return quotes, nil
}

// StaticProvider serves canned quotes. It is a test double for exercising the
// refresher without network access and is never wired into a production
// configuration.
type StaticProvider map[string]decimal.Decimal

// Source labels static quotes so cached pairs are recognizably synthetic.
func (StaticProvider) Source() string { return "static-test-data" }

// Fetch returns the canned quotes for the requested codes.
func (p StaticProvider) Fetch(_ context.Context, _ string, codes []string) (map[string]decimal.Decimal, error) {
	quotes := make(map[string]decimal.Decimal, len(codes))
	for _, code := range codes {
		if rate, ok := p[currency.Normalize(code)]; ok {
			quotes[currency.Normalize(code)] = rate
		}
	}
	return quotes, nil
}
