package currency

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested currency code is not registered.
var ErrNotFound = errors.New("currency not found")

// Kind distinguishes fiat money from crypto assets.
type Kind string

const (
	KindFiat   Kind = "fiat"
	KindCrypto Kind = "crypto"
)

// Currency describes a tradable currency known to the platform.
type Currency struct {
	Code string
	Name string
	Kind Kind

	// IssuingCountry is set for fiat currencies.
	IssuingCountry string
	// Algorithm and MarketCap are set for crypto currencies.
	Algorithm string
	MarketCap float64
}

// Display returns a human readable description of the currency.
func (c Currency) Display() string {
	if c.Kind == KindCrypto {
		return fmt.Sprintf("[CRYPTO] %s - %s (algo: %s)", c.Code, c.Name, c.Algorithm)
	}
	return fmt.Sprintf("[FIAT] %s - %s (issuer: %s)", c.Code, c.Name, c.IssuingCountry)
}

// Registry holds the set of currencies the platform can trade and price.
type Registry struct {
	codes map[string]Currency
}

// NewRegistry builds a registry from the given currencies. Codes must be
// upper-case and 2 to 5 characters long.
func NewRegistry(currencies ...Currency) (*Registry, error) {
	r := &Registry{codes: make(map[string]Currency, len(currencies))}
	for _, c := range currencies {
		if c.Name == "" {
			return nil, fmt.Errorf("currency %q: name must not be empty", c.Code)
		}
		if len(c.Code) < 2 || len(c.Code) > 5 || c.Code != strings.ToUpper(c.Code) {
			return nil, fmt.Errorf("currency code %q must be upper-case, 2-5 characters", c.Code)
		}
		if _, exists := r.codes[c.Code]; exists {
			return nil, fmt.Errorf("currency %q registered twice", c.Code)
		}
		r.codes[c.Code] = c
	}
	return r, nil
}

// Default returns the registry of currencies supported out of the box.
func Default() *Registry {
	r, err := NewRegistry(
		Currency{Code: "USD", Name: "US Dollar", Kind: KindFiat, IssuingCountry: "United States"},
		Currency{Code: "EUR", Name: "Euro", Kind: KindFiat, IssuingCountry: "Eurozone"},
		Currency{Code: "GBP", Name: "British Pound", Kind: KindFiat, IssuingCountry: "United Kingdom"},
		Currency{Code: "JPY", Name: "Japanese Yen", Kind: KindFiat, IssuingCountry: "Japan"},
		Currency{Code: "CAD", Name: "Canadian Dollar", Kind: KindFiat, IssuingCountry: "Canada"},
		Currency{Code: "CHF", Name: "Swiss Franc", Kind: KindFiat, IssuingCountry: "Switzerland"},
		Currency{Code: "AUD", Name: "Australian Dollar", Kind: KindFiat, IssuingCountry: "Australia"},
		Currency{Code: "CNY", Name: "Chinese Yuan", Kind: KindFiat, IssuingCountry: "China"},
		Currency{Code: "RUB", Name: "Russian Ruble", Kind: KindFiat, IssuingCountry: "Russia"},
		Currency{Code: "BTC", Name: "Bitcoin", Kind: KindCrypto, Algorithm: "SHA-256", MarketCap: 1.12e12},
		Currency{Code: "ETH", Name: "Ethereum", Kind: KindCrypto, Algorithm: "Ethash", MarketCap: 4.4e11},
		Currency{Code: "SOL", Name: "Solana", Kind: KindCrypto, Algorithm: "PoH", MarketCap: 8.0e10},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Normalize upper-cases and trims a user supplied currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Get resolves a currency by code, case-insensitively.
func (r *Registry) Get(code string) (Currency, error) {
	c, ok := r.codes[Normalize(code)]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrNotFound, code)
	}
	return c, nil
}

// Codes lists all registered currency codes.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.codes))
	for code := range r.codes {
		out = append(out, code)
	}
	return out
}
