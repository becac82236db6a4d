package ledger

// SeedReserve is a test helper that sets an owner's reserve balance directly
// when using the in-memory vault. The pooled holding area grows by the same
// amount so the custody invariant (pooled + invested = sum of reserves)
// stays intact.
func SeedReserve(v Vault, owner string, amount int64) {
	if mem, ok := v.(*inMemoryVault); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		prev := mem.reserves[owner]
		mem.reserves[owner] = amount
		if mem.info != nil {
			mem.info.Pooled += amount - prev
		}
	}
}
