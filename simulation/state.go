package simulation

import (
	"fmt"
	"sync"

	"forksim_go/blockchain"
	"forksim_go/consensus"
	"forksim_go/proof"
	"forksim_go/utils"
	"forksim_go/wallet"
)

// Well-known identities and transactions of the fixed scenario.
const (
	VictimTxID     = "tx_honest_1"     // T1: the honest spend the attack reverses
	TheftTxID      = "tx_attack_alice" // T2 under Legacy/CBL: forged Alice -> Eve
	SelfSpendTxID  = "tx_attack_eve"   // T2 under stake modes: Eve double-spends her own funds
	VictimIdentity = "Alice"
	Attacker       = "Eve"

	// MajorityHashPower is the share the attacker needs before mining on the
	// candidate chain.
	MajorityHashPower = 51.0

	honestChainName = "HonestChain"
	attackChainName = "AttackChain"
	maxLogLines     = 200
)

// honestMiners rotate over canonical blocks when no miner is named.
var honestMiners = []string{"Miner1", "Miner2", "Miner3"}

/**
 * State is the whole simulation: the canonical chain, at most one candidate
 * chain, the wallet table, the active defense mode, the proof-event tracker,
 * the attacker's hash-power share and the human-readable log. Everything is
 * guarded by one mutex so a mine and a broadcast can never interleave
 * partially, and a reset is atomic for concurrent readers.
 */
type State struct {
	mutex     sync.RWMutex
	canonical *blockchain.Chain
	candidate *blockchain.Chain // nil until the attacker mines
	wallets   *wallet.Registry
	engine    *consensus.Engine
	mode      consensus.DefenseMode
	tracker   *proof.Tracker
	hashPower map[string]float64
	logs      []string
	proofSeen int // tracker log entries already mirrored into logs
}

// New builds the simulation in its fixed initial configuration and verifies
// it. A broken initial state is the one fatal condition: the simulation must
// refuse to start rather than run inconsistently.
func New() (*State, error) {
	s := &State{}
	s.resetLocked()
	if err := s.canonical.VerifyIntegrity(); err != nil {
		return nil, fmt.Errorf("initial state is corrupt: %w", err)
	}
	return s, nil
}

// Reset atomically returns the simulation to the fixed initial configuration:
// named wallets with fixed funding, a canonical chain of genesis plus the
// honest spend, no candidate chain, Legacy defense, all proof events cleared.
func (s *State) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.resetLocked()
	utils.LogInfo("Simulation reset to initial state")
}

func (s *State) resetLocked() {
	s.wallets = wallet.NewRegistry()
	s.wallets.Put(wallet.New("Alice", 100.0, 5000, wallet.KeyModeCrackable))
	s.wallets.Put(wallet.New("Bob", 50.0, 5000, wallet.KeyModeCrackable))
	s.wallets.Put(wallet.New("Eve", 10.0, 200, wallet.KeyModeCrackable))

	s.canonical = blockchain.NewChain(honestChainName)
	s.canonical.Mine("Miner1", []*blockchain.Transaction{
		blockchain.NewTransactionWithID(VictimTxID, "Alice", "Bob", 10.0, "alice_sig_1"),
	})
	s.candidate = nil

	s.engine = consensus.NewEngine("Alice", "Bob")
	s.mode = consensus.Legacy
	s.tracker = proof.NewTracker(VictimTxID)
	s.proofSeen = 0
	s.hashPower = map[string]float64{"Honest": 100.0, Attacker: 0.0}

	s.logs = nil
	s.appendLog("=== BLOCKCHAIN 51%% ATTACK SIMULATION ===")
	s.appendLog("Network: %s", s.mode)
	s.appendLog("Alice: 100 BTC, Stake: 5000")
	s.appendLog("Bob: 50 BTC, Stake: 5000")
	s.appendLog("Eve: 10 BTC, Stake: 200")

	s.wallets.ReplayBalances(s.canonical)
}

// DefenseMode returns the active defense mode.
func (s *State) DefenseMode() consensus.DefenseMode {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.mode
}

// SetDefenseMode switches the acceptance rule. Chain history is untouched.
// Switching to a stake-carrying mode re-keys every wallet to the secure key
// mode, mirroring the network's cryptography upgrade.
func (s *State) SetDefenseMode(mode consensus.DefenseMode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.mode = mode
	s.appendLog("[NETWORK] Defense mode set to %s", mode)
	if mode.UsesStake() {
		s.wallets.UpgradeAllSecure()
		s.appendLog("[NETWORK] All wallets upgraded to secure keys")
	}
}

// drainProofLog mirrors tracker transitions not yet seen into the
// human-readable log. Caller holds the lock.
func (s *State) drainProofLog() {
	entries := s.tracker.Log()
	for _, entry := range entries[s.proofSeen:] {
		s.appendLog("[PROOF] %s: %s", entry.Event, entry.Details)
	}
	s.proofSeen = len(entries)
}

func (s *State) appendLog(format string, args ...interface{}) {
	s.logs = append(s.logs, fmt.Sprintf(format, args...))
	if len(s.logs) > maxLogLines {
		s.logs = s.logs[len(s.logs)-maxLogLines:]
	}
}
