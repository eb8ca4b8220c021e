package simulation

import (
	"strings"
	"testing"

	"forksim_go/consensus"
	"forksim_go/proof"
)

func newState(t *testing.T) *State {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func mustBalance(t *testing.T, s *State, name string) float64 {
	t.Helper()
	balance, ok := s.Balance(name)
	if !ok {
		t.Fatalf("wallet %s not found", name)
	}
	return balance
}

func TestInitialState(t *testing.T) {
	s := newState(t)

	if got := s.CanonicalHeight(); got != 2 {
		t.Errorf("canonical height = %d, want 2 (genesis + honest spend)", got)
	}
	if got := s.CandidateHeight(); got != 0 {
		t.Errorf("candidate height = %d, want 0", got)
	}
	if got := s.DefenseMode(); got != consensus.Legacy {
		t.Errorf("mode = %s, want %s", got, consensus.Legacy)
	}
	// Balances after replaying the honest spend.
	if got := mustBalance(t, s, "Alice"); got != 90.0 {
		t.Errorf("Alice = %.1f, want 90.0", got)
	}
	if got := mustBalance(t, s, "Bob"); got != 60.0 {
		t.Errorf("Bob = %.1f, want 60.0", got)
	}
	if got := mustBalance(t, s, "Eve"); got != 10.0 {
		t.Errorf("Eve = %.1f, want 10.0", got)
	}
}

func TestMineCandidateRequiresHashPower(t *testing.T) {
	s := newState(t)
	if _, err := s.MineCandidateBlock(""); err == nil {
		t.Fatal("mining the attack chain without majority hash power must fail")
	}
}

func TestMineCandidateRequiresCompromisedKeyUnderLegacy(t *testing.T) {
	s := newState(t)
	s.AcquireHashPower()
	if _, err := s.MineCandidateBlock(""); err == nil {
		t.Fatal("forging the theft transaction needs the victim key compromised")
	}
}

func TestBroadcastWithoutCandidate(t *testing.T) {
	s := newState(t)
	result := s.Broadcast()
	if result.Accepted {
		t.Fatal("broadcast with no candidate chain must be rejected")
	}
	if result.Reason != consensus.ErrNoCandidateChain.Error() {
		t.Errorf("reason = %q", result.Reason)
	}
}

// Full Legacy attack: crack Alice's key, outmine the network, broadcast the
// longer chain. The theft sticks and the honest spend is reversed.
func TestLegacyAttackSucceeds(t *testing.T) {
	s := newState(t)

	if err := s.CompromiseKey("Alice"); err != nil {
		t.Fatalf("CompromiseKey: %v", err)
	}
	s.AcquireHashPower()

	for i := 0; i < 4; i++ {
		if _, err := s.MineCandidateBlock(""); err != nil {
			t.Fatalf("MineCandidateBlock: %v", err)
		}
	}
	if got := s.CandidateHeight(); got != 5 {
		t.Fatalf("candidate height = %d, want 5", got)
	}

	result := s.Broadcast()
	if !result.Accepted {
		t.Fatalf("broadcast rejected: %s", result.Reason)
	}

	if got := s.CanonicalHeight(); got != 5 {
		t.Errorf("canonical height after reorg = %d, want 5", got)
	}
	if got := s.CandidateHeight(); got != 0 {
		t.Errorf("candidate should be cleared after acceptance, height = %d", got)
	}
	if got := mustBalance(t, s, "Alice"); got != 0.0 {
		t.Errorf("Alice = %.1f, want 0.0 after the theft replays", got)
	}
	if got := mustBalance(t, s, "Eve"); got != 110.0 {
		t.Errorf("Eve = %.1f, want 110.0", got)
	}
	if got := mustBalance(t, s, "Bob"); got != 50.0 {
		t.Errorf("Bob = %.1f, want 50.0 once the honest spend is reversed", got)
	}

	flags := s.ProofFlags()
	if flags.SpendConfirmed {
		t.Error("spend was never buried deep enough to confirm")
	}
	if !flags.PrivateLead || !flags.ConflictingTxIncluded || !flags.ReorgOccurred || !flags.FinalReversal {
		t.Errorf("attack milestones incomplete: %+v", flags)
	}
}

// Under the consecutive-block limit the same four-block run is rejected, Eve
// gains nothing, and the canonical chain survives untouched.
func TestConsecutiveBlockLimitStopsAttack(t *testing.T) {
	s := newState(t)
	s.SetDefenseMode(consensus.ConsecutiveBlockLimit)

	if err := s.CompromiseKey("Alice"); err != nil {
		t.Fatalf("CompromiseKey: %v", err)
	}
	s.AcquireHashPower()
	for i := 0; i < 4; i++ {
		if _, err := s.MineCandidateBlock(""); err != nil {
			t.Fatalf("MineCandidateBlock: %v", err)
		}
	}

	result := s.Broadcast()
	if result.Accepted {
		t.Fatal("run of 4 blocks by one identity must be rejected")
	}
	if !strings.Contains(result.Reason, "Eve") || !strings.Contains(result.Reason, "4") {
		t.Errorf("reason should name the identity and run length: %q", result.Reason)
	}

	if got := s.CanonicalHeight(); got != 2 {
		t.Errorf("canonical height = %d, want 2 (unchanged)", got)
	}
	if got := s.CandidateHeight(); got != 0 {
		t.Errorf("rejected candidate must be discarded, height = %d", got)
	}
	if got := mustBalance(t, s, "Alice"); got != 90.0 {
		t.Errorf("Alice = %.1f, want 90.0 restored", got)
	}
	if got := mustBalance(t, s, "Eve"); got != 10.0 {
		t.Errorf("Eve = %.1f, want 10.0", got)
	}

	flags := s.ProofFlags()
	if flags.ReorgOccurred || flags.FinalReversal {
		t.Errorf("no reorg happened: %+v", flags)
	}
}

// Alternating Sybil identities keep every individual run inside the limit, so
// the consecutive-block defense alone does not stop the attack.
func TestSybilAlternationBypassesBlockLimit(t *testing.T) {
	s := newState(t)
	s.SetDefenseMode(consensus.ConsecutiveBlockLimit)

	if err := s.CompromiseKey("Alice"); err != nil {
		t.Fatalf("CompromiseKey: %v", err)
	}
	s.AcquireHashPower()
	if _, err := s.SplitIdentity("Eve", 2); err != nil {
		t.Fatalf("SplitIdentity: %v", err)
	}

	miners := []string{"Eve_A", "Eve_A", "Eve_B", "Eve_B"}
	for _, miner := range miners {
		if _, err := s.MineCandidateBlock(miner); err != nil {
			t.Fatalf("MineCandidateBlock(%s): %v", miner, err)
		}
	}

	result := s.Broadcast()
	if !result.Accepted {
		t.Fatalf("alternating runs of 2 should pass the limit: %s", result.Reason)
	}
	if got := s.CanonicalHeight(); got != 5 {
		t.Errorf("canonical height = %d, want 5 after reorg", got)
	}
}

// Stake weighting counts each Sybil identity's stake once, so splitting Eve's
// 200 stake cannot manufacture weight. The attack is rejected and the Sybils
// are slashed.
func TestStakeWeightedDefenseSlashesSybils(t *testing.T) {
	s := newState(t)
	s.SetDefenseMode(consensus.StakeWeighted)
	s.AcquireHashPower()

	if _, err := s.SplitIdentity("Eve", 2); err != nil {
		t.Fatalf("SplitIdentity: %v", err)
	}
	if got := s.StakeOf("Eve_A") + s.StakeOf("Eve_B"); got != 200 {
		t.Fatalf("split stake total = %d, want 200", got)
	}

	miners := []string{"Eve_A", "Eve_B", "Eve_A", "Eve_B"}
	for _, miner := range miners {
		if _, err := s.MineCandidateBlock(miner); err != nil {
			t.Fatalf("MineCandidateBlock(%s): %v", miner, err)
		}
	}

	result := s.Broadcast()
	if result.Accepted {
		t.Fatal("200 attacker stake against 10000 honest must be rejected")
	}
	if len(result.Slashed) != 2 {
		t.Fatalf("slashed = %v, want both Sybil identities", result.Slashed)
	}

	if got := s.StakeOf("Eve_A") + s.StakeOf("Eve_B"); got != 150 {
		t.Errorf("combined stake after slash = %d, want 150 (200 - 50 penalty)", got)
	}
	if got := s.CanonicalHeight(); got != 2 {
		t.Errorf("canonical height = %d, want 2 (unchanged)", got)
	}

	flags := s.ProofFlags()
	if flags.ReorgOccurred || flags.FinalReversal {
		t.Errorf("no reorg happened: %+v", flags)
	}
}

// Switching to a stake mode re-keys every wallet, so the Legacy forgery path
// is closed: Alice's key can no longer be cracked.
func TestStakeModeClosesKeyCracking(t *testing.T) {
	s := newState(t)
	s.SetDefenseMode(consensus.StakeWeighted)
	if err := s.CompromiseKey("Alice"); err == nil {
		t.Fatal("secure keys must refuse compromise")
	}
}

// Under a stake mode the attack chain's double spend is Eve respending her
// own funds, which needs no stolen key.
func TestStakeModeDoubleSpendIsSelfSpend(t *testing.T) {
	s := newState(t)
	s.SetDefenseMode(consensus.Hybrid)
	s.AcquireHashPower()

	block, err := s.MineCandidateBlock("")
	if err != nil {
		t.Fatalf("MineCandidateBlock: %v", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("first attack block should carry the double spend, got %d txs", len(block.Transactions))
	}
	tx := block.Transactions[0]
	if tx.ID != SelfSpendTxID || tx.From != Attacker || tx.To != Attacker {
		t.Errorf("unexpected double spend: %+v", tx)
	}
}

func TestHonestMinersRotate(t *testing.T) {
	s := newState(t)
	first := s.MineCanonicalBlock("")
	second := s.MineCanonicalBlock("")
	if first.Miner == second.Miner {
		t.Errorf("rotation should pick different miners, both %s", first.Miner)
	}
}

func TestSpendConfirmsAtDepth(t *testing.T) {
	s := newState(t)
	for i := 0; i < 5; i++ {
		s.MineCanonicalBlock("")
	}
	if s.ProofFlags().SpendConfirmed {
		t.Fatal("5 confirmations must not confirm the spend")
	}
	s.MineCanonicalBlock("")
	if !s.ProofFlags().SpendConfirmed {
		t.Fatal("6 confirmations should confirm the spend")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	s := newState(t)

	if err := s.CompromiseKey("Alice"); err != nil {
		t.Fatalf("CompromiseKey: %v", err)
	}
	s.AcquireHashPower()
	for i := 0; i < 4; i++ {
		if _, err := s.MineCandidateBlock(""); err != nil {
			t.Fatalf("MineCandidateBlock: %v", err)
		}
	}
	if result := s.Broadcast(); !result.Accepted {
		t.Fatalf("broadcast rejected: %s", result.Reason)
	}

	s.Reset()

	if got := s.CanonicalHeight(); got != 2 {
		t.Errorf("canonical height = %d, want 2", got)
	}
	if got := s.CandidateHeight(); got != 0 {
		t.Errorf("candidate height = %d, want 0", got)
	}
	if got := mustBalance(t, s, "Alice"); got != 90.0 {
		t.Errorf("Alice = %.1f, want 90.0", got)
	}
	if got := s.DefenseMode(); got != consensus.Legacy {
		t.Errorf("mode = %s, want %s", got, consensus.Legacy)
	}
	if flags := s.ProofFlags(); flags != (proof.Flags{}) {
		t.Errorf("proof flags not cleared: %+v", flags)
	}
}
