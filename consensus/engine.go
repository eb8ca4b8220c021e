package consensus

import (
	"fmt"

	"forksim_go/blockchain"
	"forksim_go/utils"
	"forksim_go/wallet"
)

// ForkDecision is the outcome of validating a candidate chain against the
// canonical chain. The engine itself never mutates wallet state: Penalties
// carries the stake deductions the caller must apply when the decision is a
// stake-weighted rejection.
type ForkDecision struct {
	Accepted  bool
	Reason    string
	Slashed   []string
	Penalties map[string]int
}

/**
 * Engine validates forks under the active defense mode. It is a pure rule
 * evaluator over the in-memory model: integrity check first, transaction
 * signatures second, then the mode-specific acceptance rule.
 *
 * Tie-break policy is fixed: a candidate must strictly exceed the canonical
 * chain (in length or in stake weight) to be accepted. Equality rejects.
 */
type Engine struct {
	// HonestBackers are the identities whose stake backs the canonical chain
	// in stake-weighted modes, on top of any stake held by the canonical
	// chain's own miners.
	HonestBackers []string
}

// NewEngine creates an engine with the given honest-backer identities.
func NewEngine(honestBackers ...string) *Engine {
	return &Engine{HonestBackers: honestBackers}
}

// ValidateFork runs the full acceptance pipeline for a candidate chain.
func (e *Engine) ValidateFork(candidate, canonical *blockchain.Chain, mode DefenseMode, wallets *wallet.Registry) ForkDecision {
	utils.LogDebug("Validating fork: candidate=%d blocks, canonical=%d blocks, mode=%s",
		candidate.Length(), canonical.Length(), mode)

	if err := candidate.VerifyIntegrity(); err != nil {
		return reject(err.Error())
	}
	if err := ValidateTransactions(candidate, wallets); err != nil {
		return reject(err.Error())
	}

	switch mode {
	case Legacy:
		return e.checkLength(candidate, canonical, "longest chain accepted")
	case ConsecutiveBlockLimit:
		if err := checkConsecutiveRun(candidate); err != nil {
			return reject(err.Error())
		}
		return e.checkLength(candidate, canonical, "longest chain accepted (consecutive block limit passed)")
	case StakeWeighted:
		return e.checkStakeWeight(candidate, canonical, wallets)
	case Hybrid:
		// Consecutive-block failures surface first.
		if err := checkConsecutiveRun(candidate); err != nil {
			return reject(err.Error())
		}
		return e.checkStakeWeight(candidate, canonical, wallets)
	}
	return reject(fmt.Sprintf("unsupported defense mode: %q", mode))
}

// checkLength applies the longest-chain rule: the candidate must be strictly
// longer than the canonical chain.
func (e *Engine) checkLength(candidate, canonical *blockchain.Chain, acceptReason string) ForkDecision {
	if candidate.Length() > canonical.Length() {
		return accept(acceptReason)
	}
	return reject(fmt.Sprintf("candidate chain too short: %d <= %d", candidate.Length(), canonical.Length()))
}

// checkConsecutiveRun scans the candidate's non-genesis blocks for a run of
// identical miner identity longer than the fixed limit. It reports the first
// offending identity with the full run length it reached.
func checkConsecutiveRun(candidate *blockchain.Chain) error {
	miners := candidate.Miners()
	run := 0
	last := ""
	for i, miner := range miners {
		if miner == last {
			run++
		} else {
			run = 1
			last = miner
		}
		if run > blockchain.MaxConsecutiveBlocks {
			// Extend to the end of the offending run before reporting.
			for j := i + 1; j < len(miners) && miners[j] == last; j++ {
				run++
			}
			return &ConsecutiveRunError{Identity: last, RunLength: run}
		}
	}
	return nil
}

// checkStakeWeight compares the stake behind the two chains. Attacker weight
// sums the current stake of the distinct miner identities in the candidate's
// non-genesis blocks; honest weight sums the configured honest backers plus
// any distinct canonical-chain miners with registered wallets. Acceptance
// requires the attacker weight to strictly exceed the honest weight. On
// rejection the fixed total penalty is split across the attacker identities.
func (e *Engine) checkStakeWeight(candidate, canonical *blockchain.Chain, wallets *wallet.Registry) ForkDecision {
	attackers := distinctMiners(candidate)
	attackerWeight := 0
	for _, identity := range attackers {
		attackerWeight += wallets.StakeOf(identity)
	}

	honestWeight := 0
	counted := make(map[string]bool)
	for _, backer := range e.HonestBackers {
		if !counted[backer] {
			counted[backer] = true
			honestWeight += wallets.StakeOf(backer)
		}
	}
	for _, miner := range distinctMiners(canonical) {
		if !counted[miner] {
			counted[miner] = true
			honestWeight += wallets.StakeOf(miner)
		}
	}

	if attackerWeight > honestWeight {
		return accept(fmt.Sprintf("candidate chain accepted by stake weight: attacker=%d > honest=%d",
			attackerWeight, honestWeight))
	}

	decision := reject((&StakeWeightError{AttackerWeight: attackerWeight, HonestWeight: honestWeight}).Error())
	decision.Slashed = attackers
	decision.Penalties = splitPenalty(attackers, blockchain.SlashPenaltyTotal)
	return decision
}

// splitPenalty divides the total penalty across the identities. Integer
// division, remainder assigned to the last identity so the shares sum to the
// exact total.
func splitPenalty(identities []string, total int) map[string]int {
	penalties := make(map[string]int, len(identities))
	if len(identities) == 0 {
		return penalties
	}
	share := total / len(identities)
	for _, identity := range identities {
		penalties[identity] = share
	}
	penalties[identities[len(identities)-1]] += total - share*len(identities)
	return penalties
}

// distinctMiners returns the candidate's non-genesis miner identities in
// first-appearance order.
func distinctMiners(chain *blockchain.Chain) []string {
	seen := make(map[string]bool)
	miners := make([]string, 0)
	for _, miner := range chain.Miners() {
		if !seen[miner] {
			seen[miner] = true
			miners = append(miners, miner)
		}
	}
	return miners
}

func accept(reason string) ForkDecision {
	return ForkDecision{Accepted: true, Reason: reason}
}

func reject(reason string) ForkDecision {
	return ForkDecision{Accepted: false, Reason: reason}
}
