package simulation

import (
	"forksim_go/blockchain"
	"forksim_go/consensus"
	"forksim_go/proof"
	"forksim_go/wallet"
)

/**
 * Snapshot is the full observable state of the simulation, taken atomically
 * under the read lock. It is what the HTTP API serves and what the websocket
 * feed pushes after every mutation.
 */
type Snapshot struct {
	CanonicalChain *blockchain.Chain         `json:"canonicalChain"`
	CandidateChain *blockchain.Chain         `json:"candidateChain"`
	Wallets        map[string]*wallet.Wallet `json:"wallets"`
	DefenseMode    consensus.DefenseMode     `json:"defenseMode"`
	HashPower      map[string]float64        `json:"hashPower"`
	ProofEvents    proof.Flags               `json:"proofEvents"`
	ProofLog       []proof.LogEntry          `json:"proofLog"`
	Log            []string                  `json:"log"`
}

// Snapshot returns a consistent copy of everything a client can observe.
// Chains, wallets and logs are copied so the caller can serialize them
// without holding the lock.
func (s *State) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snap := Snapshot{
		CanonicalChain: s.canonical.Clone(),
		Wallets:        s.wallets.Snapshot(),
		DefenseMode:    s.mode,
		HashPower:      make(map[string]float64, len(s.hashPower)),
		ProofEvents:    s.tracker.Flags(),
		ProofLog:       s.tracker.Log(),
		Log:            make([]string, len(s.logs)),
	}
	if s.candidate != nil {
		snap.CandidateChain = s.candidate.Clone()
	}
	for k, v := range s.hashPower {
		snap.HashPower[k] = v
	}
	copy(snap.Log, s.logs)
	return snap
}

// CanonicalHeight reports the canonical chain length.
func (s *State) CanonicalHeight() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.canonical.Length()
}

// CandidateHeight reports the candidate chain length, zero when no attack
// chain exists.
func (s *State) CandidateHeight() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.candidate == nil {
		return 0
	}
	return s.candidate.Length()
}

// Balance returns a wallet's current balance and whether the wallet exists.
func (s *State) Balance(name string) (float64, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	w, ok := s.wallets.Get(name)
	if !ok {
		return 0, false
	}
	return w.Balance, true
}

// StakeOf returns a wallet's current stake, zero for unknown wallets.
func (s *State) StakeOf(name string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.wallets.StakeOf(name)
}

// ProofFlags returns the current proof-event flags.
func (s *State) ProofFlags() proof.Flags {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tracker.Flags()
}
