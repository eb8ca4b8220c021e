package simulation

import (
	"fmt"

	"forksim_go/blockchain"
	"forksim_go/consensus"
	"forksim_go/utils"
)

// MineCanonicalBlock appends an empty block to the canonical chain. With an
// empty miner name the honest miners rotate, as the network's distributed
// miners would.
func (s *State) MineCanonicalBlock(miner string) *blockchain.Block {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if miner == "" {
		miner = honestMiners[s.canonical.Length()%len(honestMiners)]
	}
	block := s.canonical.Mine(miner, nil)
	s.appendLog("[NETWORK] %s mined block %d on honest chain", miner, block.Index)
	s.appendLog("[NETWORK] Honest chain height: %d", s.canonical.Length())

	s.tracker.Recompute(s.canonical, s.candidate)
	s.drainProofLog()
	return block
}

// MineCandidateBlock appends a block to the candidate chain, forking it from
// genesis on the first call. The first candidate block carries the
// double-spend transaction: a forged Alice -> Eve transfer under Legacy/CBL
// (which requires the victim's key to be compromised), or Eve double-spending
// her own funds under the stake modes.
func (s *State) MineCandidateBlock(miner string) (*blockchain.Block, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.hashPower[Attacker] < MajorityHashPower {
		return nil, fmt.Errorf("must acquire majority hash power first")
	}
	if miner == "" {
		miner = Attacker
	}

	if s.candidate == nil {
		s.candidate = s.canonical.Fork(attackChainName)
		s.appendLog("[EVE] === STARTING ATTACK CHAIN ===")
		s.appendLog("[EVE] Creating secret fork from genesis block...")
	}

	var txs []*blockchain.Transaction
	if s.candidate.Length() == 1 {
		tx, err := s.buildDoubleSpend()
		if err != nil {
			return nil, err
		}
		txs = []*blockchain.Transaction{tx}
		s.tracker.SetConflictTx(tx.ID)
		s.appendLog("[EVE] Creating transaction: %s -> %s %.1f BTC (double spend)", tx.From, tx.To, tx.Amount)
	}

	block := s.candidate.Mine(miner, txs)
	s.appendLog("[EVE] Mined block %d as %s", block.Index, miner)
	s.appendLog("[EVE] Attack chain length: %d (Honest: %d)", s.candidate.Length(), s.canonical.Length())

	s.tracker.Recompute(s.canonical, s.candidate)
	s.drainProofLog()
	return block, nil
}

func (s *State) buildDoubleSpend() (*blockchain.Transaction, error) {
	if s.mode.UsesStake() {
		return blockchain.NewTransactionWithID(SelfSpendTxID, Attacker, Attacker, 10.0, "eve_sig_1"), nil
	}
	victim, ok := s.wallets.Get(VictimIdentity)
	if !ok || !victim.Compromised {
		return nil, fmt.Errorf("victim key not compromised: cannot forge a signature for %s", VictimIdentity)
	}
	return blockchain.NewTransactionWithID(TheftTxID, VictimIdentity, Attacker, 100.0, "stolen_sig_alice"), nil
}

// CompromiseKey marks a wallet's key as stolen. It fails for secure keys.
func (s *State) CompromiseKey(name string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.wallets.Compromise(name); err != nil {
		s.appendLog("[EVE] Key cracking FAILED: %v", err)
		return err
	}
	s.appendLog("[EVE] %s's wallet is now COMPROMISED", name)
	return nil
}

// AcquireHashPower hands the attacker the majority of the network's mining
// power.
func (s *State) AcquireHashPower() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.hashPower[Attacker] = MajorityHashPower
	s.hashPower["Honest"] = 100.0 - MajorityHashPower
	s.appendLog("[EVE] Now controlling %.0f%% of network hash power", MajorityHashPower)
}

// SplitIdentity divides a wallet into independent Sybil identities. A zero
// part count means the default two-way split.
func (s *State) SplitIdentity(name string, parts int) ([]string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if parts == 0 {
		parts = 2
	}
	wallets, err := s.wallets.SplitIdentity(name, parts)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(wallets))
	for i, w := range wallets {
		names[i] = w.Name
		s.appendLog("[EVE] Created Sybil identity %s (stake: %d)", w.Name, w.Stake)
	}
	return names, nil
}

// BroadcastResult is the outcome of broadcasting the candidate chain.
type BroadcastResult struct {
	Accepted bool     `json:"accepted"`
	Reason   string   `json:"reason"`
	Slashed  []string `json:"slashed"`
}

// Broadcast submits the candidate chain to the consensus engine and, on
// acceptance, performs the reorganization. On rejection it applies any stake
// penalties, discards the candidate and replays balances from the canonical
// chain so a failed attack leaves no drift.
func (s *State) Broadcast() BroadcastResult {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.candidate == nil || s.candidate.Length() <= 1 {
		return BroadcastResult{Accepted: false, Reason: consensus.ErrNoCandidateChain.Error()}
	}

	s.appendLog("[NETWORK] === BROADCASTING ATTACK CHAIN ===")
	s.appendLog("[NETWORK] Attack chain length: %d, honest: %d, mode: %s",
		s.candidate.Length(), s.canonical.Length(), s.mode)

	decision := s.engine.ValidateFork(s.candidate, s.canonical, s.mode, s.wallets)

	if decision.Accepted {
		s.applyReorg()
		s.appendLog("[NETWORK] CHAIN ACCEPTED: %s", decision.Reason)
	} else {
		for identity, penalty := range decision.Penalties {
			s.wallets.Slash(identity, penalty)
		}
		if len(decision.Slashed) > 0 {
			s.appendLog("[NETWORK] Stake slashed for: %v", decision.Slashed)
		}
		s.candidate = nil
		s.wallets.ReplayBalances(s.canonical)
		s.tracker.Recompute(s.canonical, nil)
		s.drainProofLog()
		s.appendLog("[NETWORK] CHAIN REJECTED: %s", decision.Reason)
	}

	return BroadcastResult{
		Accepted: decision.Accepted,
		Reason:   decision.Reason,
		Slashed:  decision.Slashed,
	}
}

// applyReorg swaps the canonical chain for the accepted candidate and
// recomputes every balance from scratch by replaying the new history, then
// lets the tracker compare the two histories. Caller holds the lock.
func (s *State) applyReorg() {
	old := s.canonical
	accepted := s.candidate.Clone()
	accepted.Name = honestChainName
	s.canonical = accepted
	s.candidate = nil

	s.wallets.ReplayBalances(s.canonical)

	s.tracker.RecordReorg(old, s.canonical)
	s.tracker.Recompute(s.canonical, nil)
	s.drainProofLog()

	utils.LogInfo("Chain reorganization: canonical height %d -> %d", old.Length(), s.canonical.Length())
}
