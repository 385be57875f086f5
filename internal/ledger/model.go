package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valutatrade/valutatrade/internal/currency"
)

var (
	// ErrPortfolioNotFound indicates no portfolio is recorded for the user.
	// Registration always provisions one, so this is a data-integrity error
	// rather than a normal-path condition.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrNonPositiveAmount rejects zero or negative deposit/withdraw amounts.
	ErrNonPositiveAmount = errors.New("amount must be positive")
)

// InsufficientFundsError occurs when a withdrawal exceeds the wallet balance.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
	Currency  string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %s %s, requested %s %s",
		e.Available, e.Currency, e.Requested, e.Currency)
}

// Wallet holds a non-negative balance in a single currency.
type Wallet struct {
	Currency string
	Balance  decimal.Decimal
}

// Deposit credits the wallet. The amount must be positive.
func (w *Wallet) Deposit(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("deposit: %w", ErrNonPositiveAmount)
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

// Withdraw debits the wallet. The amount must be positive and must not exceed
// the current balance.
func (w *Wallet) Withdraw(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("withdraw: %w", ErrNonPositiveAmount)
	}
	if amount.GreaterThan(w.Balance) {
		return &InsufficientFundsError{Available: w.Balance, Requested: amount, Currency: w.Currency}
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// Portfolio is the set of wallets owned by one user, keyed by currency code.
type Portfolio struct {
	UserID  string
	Wallets map[string]*Wallet
}

// NewPortfolio creates an empty portfolio for the user.
func NewPortfolio(userID string) *Portfolio {
	return &Portfolio{UserID: userID, Wallets: make(map[string]*Wallet)}
}

// Wallet returns the wallet for the currency, creating a zero-balance entry
// on first reference. Codes are case-normalized so a user holds at most one
// wallet per currency.
func (p *Portfolio) Wallet(code string) *Wallet {
	code = currency.Normalize(code)
	w, ok := p.Wallets[code]
	if !ok {
		w = &Wallet{Currency: code, Balance: decimal.Zero}
		p.Wallets[code] = w
	}
	return w
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state outside an Update.
func (p *Portfolio) Clone() *Portfolio {
	cp := NewPortfolio(p.UserID)
	for code, w := range p.Wallets {
		cp.Wallets[code] = &Wallet{Currency: w.Currency, Balance: w.Balance}
	}
	return cp
}
