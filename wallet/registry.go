package wallet

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"forksim_go/blockchain"
	"forksim_go/utils"
)

/**
 * Registry is the wallet table of the simulation. It owns stake and balance
 * bookkeeping: lookups for consensus, slashing (floored at zero), identity
 * splitting, and the full balance replay performed after a chain switch.
 *
 * Split identities intentionally keep no link back to their source identity.
 * Per-declared-identity stake aggregation is exactly what a Sybil split
 * defeats; the registry must not "fix" that.
 */
type Registry struct {
	mutex   sync.RWMutex
	wallets map[string]*Wallet
}

// NewRegistry creates an empty wallet table.
func NewRegistry() *Registry {
	return &Registry{wallets: make(map[string]*Wallet)}
}

// Put registers a wallet under its name, replacing any previous entry.
func (r *Registry) Put(w *Wallet) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.wallets[w.Name] = w
}

// Get returns the wallet for the identity, if known.
func (r *Registry) Get(name string) (*Wallet, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	w, ok := r.wallets[name]
	return w, ok
}

// StakeOf returns the identity's current stake, or 0 for unknown identities.
func (r *Registry) StakeOf(name string) int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if w, ok := r.wallets[name]; ok {
		return w.Stake
	}
	return 0
}

// Names returns all registered identities in sorted order.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.wallets))
	for name := range r.wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every wallet keyed by name.
func (r *Registry) Snapshot() map[string]*Wallet {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	snap := make(map[string]*Wallet, len(r.wallets))
	for name, w := range r.wallets {
		snap[name] = w.clone()
	}
	return snap
}

// Slash reduces the identity's stake by amount, flooring at zero, and returns
// the stake actually removed.
func (r *Registry) Slash(name string, amount int) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	w, ok := r.wallets[name]
	if !ok {
		return 0
	}
	removed := amount
	if removed > w.Stake {
		removed = w.Stake
	}
	w.Stake -= removed
	utils.LogInfo("Slashed %d stake from %s (remaining: %d)", removed, name, w.Stake)
	return removed
}

// Compromise marks a crackable wallet's key as stolen. Secure keys cannot be
// compromised.
func (r *Registry) Compromise(name string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	w, ok := r.wallets[name]
	if !ok {
		return fmt.Errorf("unknown wallet: %s", name)
	}
	if w.KeyMode == KeyModeSecure {
		return fmt.Errorf("wallet %s uses a secure key and cannot be compromised", name)
	}
	w.Compromised = true
	return nil
}

// UpgradeAllSecure re-keys every wallet to the secure key mode and clears the
// compromised flags. Chain history is untouched.
func (r *Registry) UpgradeAllSecure() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, w := range r.wallets {
		w.KeyMode = KeyModeSecure
		w.Compromised = false
	}
}

// SplitIdentity divides an identity into n new wallets named <source>_A,
// <source>_B, ... Stake and balance are split with floor division and the
// remainder assigned to the last wallet; key mode and compromise status are
// copied. The source identity is drained so the economic total is unchanged,
// and the new wallets carry no reference to it.
func (r *Registry) SplitIdentity(source string, n int) ([]*Wallet, error) {
	if n < 2 {
		return nil, fmt.Errorf("identity split needs at least 2 parts, got %d", n)
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()

	src, ok := r.wallets[source]
	if !ok {
		return nil, fmt.Errorf("unknown wallet: %s", source)
	}

	stakeShare := src.Stake / n
	balanceShare := math.Floor(src.Balance / float64(n))

	parts := make([]*Wallet, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%c", source, 'A'+i)
		stake := stakeShare
		balance := balanceShare
		if i == n-1 {
			stake = src.Stake - stakeShare*(n-1)
			balance = src.Balance - balanceShare*float64(n-1)
		}
		w := New(name, balance, stake, src.KeyMode)
		w.Compromised = src.Compromised
		r.wallets[name] = w
		parts = append(parts, w)
	}

	// Drain the source, original funding included, so a later balance replay
	// does not resurrect the moved funds.
	src.Stake = 0
	src.Balance = 0
	src.OriginalBalance = 0

	utils.LogInfo("Split identity %s into %d wallets", source, n)
	return parts, nil
}

// ReplayBalances recomputes every balance from scratch: each wallet is reset
// to its original funding, then every transaction in the chain is replayed in
// block order, debiting senders and crediting recipients. Full replay keeps
// balances free of drift against the authoritative chain history.
func (r *Registry) ReplayBalances(chain *blockchain.Chain) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, w := range r.wallets {
		w.Balance = w.OriginalBalance
	}
	for _, block := range chain.Blocks[1:] {
		for _, tx := range block.Transactions {
			if sender, ok := r.wallets[tx.From]; ok {
				sender.Balance -= tx.Amount
			}
			if recipient, ok := r.wallets[tx.To]; ok {
				recipient.Balance += tx.Amount
			}
		}
	}
}
