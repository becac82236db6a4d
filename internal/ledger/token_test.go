package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestTokenDepositsTrackPerMint(t *testing.T) {
	v := initializedVault(t)
	ctx := context.Background()

	res, err := v.DepositToken(ctx, userKey, mintKey, "tok-1", 1_000)
	if err != nil {
		t.Fatalf("token deposit: %v", err)
	}
	if res.Reserve != 1_000 || res.Pooled != 1_000 {
		t.Fatalf("unexpected token accounting: %+v", res)
	}

	// A second mint keeps its own reserve and pool.
	other := "mint-bonk"
	if _, err := v.DepositToken(ctx, userKey, other, "tok-2", 250); err != nil {
		t.Fatalf("token deposit other mint: %v", err)
	}

	balance, err := v.TokenReserve(ctx, userKey, mintKey)
	if err != nil {
		t.Fatalf("token reserve: %v", err)
	}
	if balance != 1_000 {
		t.Fatalf("expected reserve 1000, got %d", balance)
	}
	otherBalance, _ := v.TokenReserve(ctx, userKey, other)
	if otherBalance != 250 {
		t.Fatalf("expected reserve 250 for second mint, got %d", otherBalance)
	}

	// Token holdings never touch the lamport accounting.
	info, _ := v.Info(ctx)
	if info.Pooled != 0 || info.Invested != 0 {
		t.Fatalf("token deposit moved lamport accounting: %+v", info)
	}
}

func TestTokenWithdraw(t *testing.T) {
	v := initializedVault(t)
	ctx := context.Background()

	if _, err := v.DepositToken(ctx, userKey, mintKey, "tok-1", 1_000_000); err != nil {
		t.Fatalf("token deposit: %v", err)
	}

	if _, err := v.WithdrawToken(ctx, userKey, mintKey, "tok-2", 2_000_000); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	balance, _ := v.TokenReserve(ctx, userKey, mintKey)
	if balance != 1_000_000 {
		t.Fatalf("balance changed on failed token withdrawal: %d", balance)
	}

	res, err := v.WithdrawToken(ctx, userKey, mintKey, "tok-3", 1_000_000)
	if err != nil {
		t.Fatalf("token withdraw: %v", err)
	}
	if res.Reserve != 0 || res.Pooled != 0 {
		t.Fatalf("unexpected token accounting after withdrawal: %+v", res)
	}

	if _, err := v.WithdrawToken(ctx, "stranger", mintKey, "tok-4", 10); !errors.Is(err, ErrUnknownReserve) {
		t.Fatalf("expected ErrUnknownReserve, got %v", err)
	}
}

func TestTokenOperationsRespectPause(t *testing.T) {
	v := initializedVault(t)
	ctx := context.Background()

	if _, err := v.DepositToken(ctx, userKey, mintKey, "tok-1", 800); err != nil {
		t.Fatalf("token deposit: %v", err)
	}
	if _, err := v.SetPaused(ctx, adminKey, true); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := v.DepositToken(ctx, userKey, mintKey, "tok-2", 100); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on token deposit, got %v", err)
	}
	if _, err := v.WithdrawToken(ctx, userKey, mintKey, "tok-3", 100); !errors.Is(err, ErrPaused) {
		t.Fatalf("expected ErrPaused on token withdrawal, got %v", err)
	}

	balance, _ := v.TokenReserve(ctx, userKey, mintKey)
	if balance != 800 {
		t.Fatalf("paused token mutation changed balance: %d", balance)
	}
}

func TestTokenDuplicateTransaction(t *testing.T) {
	v := initializedVault(t)
	ctx := context.Background()

	first, err := v.DepositToken(ctx, userKey, mintKey, "tok-dup", 300)
	if err != nil {
		t.Fatalf("token deposit: %v", err)
	}

	replay, err := v.DepositToken(ctx, userKey, mintKey, "tok-dup", 300)
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected ErrDuplicateTransaction, got %v", err)
	}
	if replay.Reserve != first.Reserve || replay.TransactionID != first.TransactionID {
		t.Fatalf("replay returned different outcome: %+v vs %+v", replay, first)
	}

	balance, _ := v.TokenReserve(ctx, userKey, mintKey)
	if balance != 300 {
		t.Fatalf("duplicate token deposit mutated balance: %d", balance)
	}
}
