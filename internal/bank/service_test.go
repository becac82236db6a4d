package bank

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/bankvault/bankvault/internal/keys"
	"github.com/bankvault/bankvault/internal/ledger"
)

func newIdentity(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return keys.PublicKey(pub).String()
}

func TestServiceDepositWithdrawFlow(t *testing.T) {
	ctx := context.Background()
	vault := ledger.NewInMemory()
	svc := NewService(vault, nil)

	admin := newIdentity(t)
	user := newIdentity(t)

	if _, err := svc.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	res, err := svc.Deposit(ctx, DepositInput{Owner: user, Amount: 1_000_000})
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if res.Reserve != 1_000_000 {
		t.Fatalf("expected reserve 1000000, got %d", res.Reserve)
	}

	if _, err := svc.Withdraw(ctx, WithdrawInput{Owner: user, Amount: 2_000_000}); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	balance, err := svc.Reserve(ctx, user)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if balance != 1_000_000 {
		t.Fatalf("failed withdrawal changed balance: %d", balance)
	}

	res, err = svc.Withdraw(ctx, WithdrawInput{Owner: user, Amount: 1_000_000})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Reserve != 0 {
		t.Fatalf("expected reserve 0, got %d", res.Reserve)
	}
}

func TestServiceWithdrawFromSeededReserve(t *testing.T) {
	ctx := context.Background()
	vault := ledger.NewInMemory()
	svc := NewService(vault, nil)

	admin := newIdentity(t)
	user := newIdentity(t)

	if _, err := svc.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	ledger.SeedReserve(vault, user, 5_000)

	res, err := svc.Withdraw(ctx, WithdrawInput{Owner: user, Amount: 2_000})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if res.Reserve != 3_000 {
		t.Fatalf("expected reserve 3000, got %d", res.Reserve)
	}
}

func TestServiceRejectsInvalidIdentity(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewInMemory(), nil)

	if _, err := svc.Initialize(ctx, "not-a-key"); err == nil {
		t.Fatal("expected error for malformed administrator key")
	}
	if _, err := svc.Deposit(ctx, DepositInput{Owner: "!!!", Amount: 100}); err == nil {
		t.Fatal("expected error for malformed owner key")
	}
}

func TestServiceRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	vault := ledger.NewInMemory()
	svc := NewService(vault, nil)

	admin := newIdentity(t)
	if _, err := svc.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.Deposit(ctx, DepositInput{Owner: admin, Amount: 0}); !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for zero deposit, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, WithdrawInput{Owner: admin, Amount: -5}); !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for negative withdrawal, got %v", err)
	}
	if _, err := svc.DepositToken(ctx, TokenInput{Owner: admin, Mint: admin, Amount: 0}); !errors.Is(err, ledger.ErrNonPositiveAmount) {
		t.Fatalf("expected ErrNonPositiveAmount for zero token deposit, got %v", err)
	}
}

func TestServiceTokenDepositWithdraw(t *testing.T) {
	ctx := context.Background()
	vault := ledger.NewInMemory()
	svc := NewService(vault, nil)

	admin := newIdentity(t)
	user := newIdentity(t)
	mint := newIdentity(t)

	if _, err := svc.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	res, err := svc.DepositToken(ctx, TokenInput{Owner: user, Mint: mint, Amount: 4_000})
	if err != nil {
		t.Fatalf("token deposit: %v", err)
	}
	if res.Reserve != 4_000 || res.Mint != mint {
		t.Fatalf("unexpected token result: %+v", res)
	}

	if _, err := svc.DepositToken(ctx, TokenInput{Owner: user, Mint: "not-a-mint", Amount: 100}); err == nil {
		t.Fatal("expected error for malformed mint")
	}

	res, err = svc.WithdrawToken(ctx, TokenInput{Owner: user, Mint: mint, Amount: 1_500})
	if err != nil {
		t.Fatalf("token withdraw: %v", err)
	}
	if res.Reserve != 2_500 {
		t.Fatalf("expected reserve 2500, got %d", res.Reserve)
	}

	balance, err := svc.TokenReserve(ctx, user, mint)
	if err != nil {
		t.Fatalf("token reserve: %v", err)
	}
	if balance != 2_500 {
		t.Fatalf("expected balance 2500, got %d", balance)
	}

	// The lamport reserve stays independent of token holdings.
	if _, err := svc.Reserve(ctx, user); !errors.Is(err, ledger.ErrUnknownReserve) {
		t.Fatalf("expected no lamport reserve, got %v", err)
	}
}

func TestServicePauseGate(t *testing.T) {
	ctx := context.Background()
	vault := ledger.NewInMemory()
	svc := NewService(vault, nil)

	admin := newIdentity(t)
	user := newIdentity(t)

	if _, err := svc.Initialize(ctx, admin); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, err := svc.SetPaused(ctx, user, true); !errors.Is(err, ledger.ErrUnauthorized) {
		t.Fatalf("expected unauthorized pause, got %v", err)
	}

	if _, err := svc.SetPaused(ctx, admin, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := svc.Deposit(ctx, DepositInput{Owner: user, Amount: 500}); !errors.Is(err, ledger.ErrPaused) {
		t.Fatalf("expected paused deposit, got %v", err)
	}

	if _, err := svc.SetPaused(ctx, admin, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := svc.Deposit(ctx, DepositInput{Owner: user, Amount: 500}); err != nil {
		t.Fatalf("deposit after unpause: %v", err)
	}
}
