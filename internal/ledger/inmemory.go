package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryVault struct {
	mu            sync.RWMutex
	info          *VaultInfo
	reserves      map[string]int64
	tokenReserves map[string]int64 // keyed owner + "/" + mint
	tokenPooled   map[string]int64 // keyed mint
	reserveTx     map[string]ReserveResult
	investTx      map[string]InvestResult
	tokenTx       map[string]TokenResult
}

// NewInMemory creates a concurrency-safe in-memory vault useful for unit
// tests and DB-less development mode.
func NewInMemory() Vault {
	return &inMemoryVault{
		reserves:      make(map[string]int64),
		tokenReserves: make(map[string]int64),
		tokenPooled:   make(map[string]int64),
		reserveTx:     make(map[string]ReserveResult),
		investTx:      make(map[string]InvestResult),
		tokenTx:       make(map[string]TokenResult),
	}
}

func tokenKey(owner, mint string) string { return owner + "/" + mint }

func (v *inMemoryVault) Initialize(_ context.Context, administrator string) (VaultInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info != nil {
		return VaultInfo{}, ErrAlreadyInitialized
	}
	v.info = &VaultInfo{
		Administrator: administrator,
		Paused:        false,
		Pooled:        0,
		Invested:      0,
		CreatedAt:     time.Now().UTC(),
	}
	return *v.info, nil
}

func (v *inMemoryVault) Info(_ context.Context) (VaultInfo, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.info == nil {
		return VaultInfo{}, ErrNotInitialized
	}
	return *v.info, nil
}

func (v *inMemoryVault) SetPaused(_ context.Context, caller string, paused bool) (VaultInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return VaultInfo{}, ErrNotInitialized
	}
	if caller != v.info.Administrator {
		return VaultInfo{}, ErrUnauthorized
	}
	v.info.Paused = paused
	return *v.info, nil
}

func (v *inMemoryVault) Deposit(_ context.Context, owner, clientTxID string, amount int64) (ReserveResult, error) {
	if amount <= 0 {
		return ReserveResult{}, ErrNonPositiveAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return ReserveResult{}, ErrNotInitialized
	}
	if res, exists := v.reserveTx[KindDeposit+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}
	if v.info.Paused {
		return ReserveResult{}, ErrPaused
	}

	// Lazily create the owner's reserve on first deposit.
	v.reserves[owner] += amount
	v.info.Pooled += amount

	res := ReserveResult{
		TransactionID: uuid.NewString(),
		Owner:         owner,
		Reserve:       v.reserves[owner],
		Pooled:        v.info.Pooled,
	}
	v.reserveTx[KindDeposit+":"+clientTxID] = res
	return res, nil
}

func (v *inMemoryVault) Withdraw(_ context.Context, owner, clientTxID string, amount int64) (ReserveResult, error) {
	if amount <= 0 {
		return ReserveResult{}, ErrNonPositiveAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return ReserveResult{}, ErrNotInitialized
	}
	if res, exists := v.reserveTx[KindWithdraw+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}
	if v.info.Paused {
		return ReserveResult{}, ErrPaused
	}

	reserve, ok := v.reserves[owner]
	if !ok {
		return ReserveResult{}, ErrUnknownReserve
	}
	if reserve < amount {
		return ReserveResult{}, ErrInsufficientBalance
	}
	if v.info.Pooled < amount {
		return ReserveResult{}, ErrInsufficientLiquidity
	}

	v.reserves[owner] = reserve - amount
	v.info.Pooled -= amount

	res := ReserveResult{
		TransactionID: uuid.NewString(),
		Owner:         owner,
		Reserve:       v.reserves[owner],
		Pooled:        v.info.Pooled,
	}
	v.reserveTx[KindWithdraw+":"+clientTxID] = res
	return res, nil
}

func (v *inMemoryVault) MoveInvested(_ context.Context, caller, clientTxID string, amount int64, toExternal bool) (InvestResult, error) {
	if amount <= 0 {
		return InvestResult{}, ErrNonPositiveAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return InvestResult{}, ErrNotInitialized
	}
	// Authorization precedes the replay lookup: only the administrator
	// may learn a stored stake or unstake outcome.
	if caller != v.info.Administrator {
		return InvestResult{}, ErrUnauthorized
	}

	kind := KindStake
	if !toExternal {
		kind = KindUnstake
	}
	if res, exists := v.investTx[kind+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}

	if toExternal {
		if v.info.Pooled < amount {
			return InvestResult{}, ErrInsufficientLiquidity
		}
		v.info.Pooled -= amount
		v.info.Invested += amount
	} else {
		if v.info.Invested < amount {
			return InvestResult{}, ErrInsufficientBalance
		}
		v.info.Invested -= amount
		v.info.Pooled += amount
	}

	res := InvestResult{
		TransactionID: uuid.NewString(),
		Pooled:        v.info.Pooled,
		Invested:      v.info.Invested,
	}
	v.investTx[kind+":"+clientTxID] = res
	return res, nil
}

func (v *inMemoryVault) Investment(_ context.Context, clientTxID string, toExternal bool) (InvestResult, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	kind := KindStake
	if !toExternal {
		kind = KindUnstake
	}
	res, ok := v.investTx[kind+":"+clientTxID]
	return res, ok, nil
}

func (v *inMemoryVault) Reserve(_ context.Context, owner string) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.info == nil {
		return 0, ErrNotInitialized
	}
	reserve, ok := v.reserves[owner]
	if !ok {
		return 0, ErrUnknownReserve
	}
	return reserve, nil
}

func (v *inMemoryVault) DepositToken(_ context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error) {
	if amount <= 0 {
		return TokenResult{}, ErrNonPositiveAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return TokenResult{}, ErrNotInitialized
	}
	if res, exists := v.tokenTx[KindTokenDeposit+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}
	if v.info.Paused {
		return TokenResult{}, ErrPaused
	}

	key := tokenKey(owner, mint)
	v.tokenReserves[key] += amount
	v.tokenPooled[mint] += amount

	res := TokenResult{
		TransactionID: uuid.NewString(),
		Owner:         owner,
		Mint:          mint,
		Reserve:       v.tokenReserves[key],
		Pooled:        v.tokenPooled[mint],
	}
	v.tokenTx[KindTokenDeposit+":"+clientTxID] = res
	return res, nil
}

func (v *inMemoryVault) WithdrawToken(_ context.Context, owner, mint, clientTxID string, amount int64) (TokenResult, error) {
	if amount <= 0 {
		return TokenResult{}, ErrNonPositiveAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.info == nil {
		return TokenResult{}, ErrNotInitialized
	}
	if res, exists := v.tokenTx[KindTokenWithdraw+":"+clientTxID]; exists {
		return res, ErrDuplicateTransaction
	}
	if v.info.Paused {
		return TokenResult{}, ErrPaused
	}

	key := tokenKey(owner, mint)
	reserve, ok := v.tokenReserves[key]
	if !ok {
		return TokenResult{}, ErrUnknownReserve
	}
	if reserve < amount {
		return TokenResult{}, ErrInsufficientBalance
	}

	v.tokenReserves[key] = reserve - amount
	v.tokenPooled[mint] -= amount

	res := TokenResult{
		TransactionID: uuid.NewString(),
		Owner:         owner,
		Mint:          mint,
		Reserve:       v.tokenReserves[key],
		Pooled:        v.tokenPooled[mint],
	}
	v.tokenTx[KindTokenWithdraw+":"+clientTxID] = res
	return res, nil
}

func (v *inMemoryVault) TokenReserve(_ context.Context, owner, mint string) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.info == nil {
		return 0, ErrNotInitialized
	}
	reserve, ok := v.tokenReserves[tokenKey(owner, mint)]
	if !ok {
		return 0, ErrUnknownReserve
	}
	return reserve, nil
}
