package consensus

import "fmt"

// DefenseMode selects which fork acceptance rule the network enforces.
// Exactly one mode is active at a time; switching modes never rewrites chain
// history.
type DefenseMode string

const (
	// Legacy accepts the strictly longest chain with no miner-identity checks.
	Legacy DefenseMode = "LEGACY"
	// ConsecutiveBlockLimit rejects chains where one miner identity produces a
	// run longer than the fixed limit, then falls back to the Legacy rule.
	ConsecutiveBlockLimit DefenseMode = "CBL"
	// StakeWeighted compares the economic stake behind each chain.
	StakeWeighted DefenseMode = "STAKE_WEIGHTED"
	// Hybrid enforces both the consecutive-block limit and the stake
	// comparison.
	Hybrid DefenseMode = "HYBRID"
)

// ParseMode converts a wire string into a DefenseMode.
func ParseMode(s string) (DefenseMode, error) {
	switch DefenseMode(s) {
	case Legacy, ConsecutiveBlockLimit, StakeWeighted, Hybrid:
		return DefenseMode(s), nil
	}
	return "", fmt.Errorf("unsupported defense mode: %q", s)
}

// UsesStake reports whether the mode runs the stake-weight comparison.
func (m DefenseMode) UsesStake() bool {
	return m == StakeWeighted || m == Hybrid
}
