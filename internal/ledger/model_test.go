package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestWalletDepositWithdraw(t *testing.T) {
	w := &Wallet{Currency: "USD", Balance: decimal.Zero}

	if err := w.Deposit(dec(t, "100.50")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if err := w.Withdraw(dec(t, "40.25")); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !w.Balance.Equal(dec(t, "60.25")) {
		t.Fatalf("expected balance 60.25, got %s", w.Balance)
	}
}

func TestWalletRejectsNonPositiveAmounts(t *testing.T) {
	w := &Wallet{Currency: "USD", Balance: dec(t, "10")}

	for _, amount := range []string{"0", "-1"} {
		if err := w.Deposit(dec(t, amount)); !errors.Is(err, ErrNonPositiveAmount) {
			t.Fatalf("deposit %s: expected ErrNonPositiveAmount, got %v", amount, err)
		}
		if err := w.Withdraw(dec(t, amount)); !errors.Is(err, ErrNonPositiveAmount) {
			t.Fatalf("withdraw %s: expected ErrNonPositiveAmount, got %v", amount, err)
		}
	}
	if !w.Balance.Equal(dec(t, "10")) {
		t.Fatalf("balance mutated by rejected amounts: %s", w.Balance)
	}
}

func TestWalletOverdraft(t *testing.T) {
	w := &Wallet{Currency: "BTC", Balance: dec(t, "0.01")}

	err := w.Withdraw(dec(t, "0.02"))
	var insufficient *InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if insufficient.Currency != "BTC" ||
		!insufficient.Available.Equal(dec(t, "0.01")) ||
		!insufficient.Requested.Equal(dec(t, "0.02")) {
		t.Fatalf("unexpected error detail: %+v", insufficient)
	}
	if !w.Balance.Equal(dec(t, "0.01")) {
		t.Fatalf("balance mutated by failed withdrawal: %s", w.Balance)
	}
}

func TestPortfolioWalletGetOrCreate(t *testing.T) {
	p := NewPortfolio("user-1")

	w := p.Wallet("btc")
	if w.Currency != "BTC" || !w.Balance.IsZero() {
		t.Fatalf("unexpected wallet: %+v", w)
	}
	if p.Wallet("BTC") != w {
		t.Fatalf("expected one wallet per currency regardless of case")
	}
	if len(p.Wallets) != 1 {
		t.Fatalf("expected 1 wallet, got %d", len(p.Wallets))
	}
}

func TestPortfolioCloneIsDeep(t *testing.T) {
	p := NewPortfolio("user-1")
	if err := p.Wallet("USD").Deposit(dec(t, "500")); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	cp := p.Clone()
	if err := cp.Wallet("USD").Withdraw(dec(t, "200")); err != nil {
		t.Fatalf("withdraw on clone: %v", err)
	}

	if !p.Wallet("USD").Balance.Equal(dec(t, "500")) {
		t.Fatalf("clone mutation leaked into original: %s", p.Wallet("USD").Balance)
	}
}
