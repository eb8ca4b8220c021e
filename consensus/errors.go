package consensus

import (
	"errors"
	"fmt"

	"forksim_go/blockchain"
)

// ErrNoCandidateChain is returned when a broadcast is attempted before any
// candidate block has been mined.
var ErrNoCandidateChain = errors.New("no candidate chain to broadcast")

// ConsecutiveRunError reports a miner identity that exceeded the
// consecutive-block limit.
type ConsecutiveRunError struct {
	Identity  string
	RunLength int
}

func (e *ConsecutiveRunError) Error() string {
	return fmt.Sprintf("consecutive block limit exceeded: %s mined %d consecutive blocks (limit: %d)",
		e.Identity, e.RunLength, blockchain.MaxConsecutiveBlocks)
}

// StakeWeightError reports a candidate chain whose attacker stake did not
// strictly exceed the honest stake backing the canonical chain.
type StakeWeightError struct {
	AttackerWeight int
	HonestWeight   int
}

func (e *StakeWeightError) Error() string {
	return fmt.Sprintf("insufficient stake weight: attacker=%d, honest=%d", e.AttackerWeight, e.HonestWeight)
}

// SignatureError reports the first transaction whose signature failed
// validation.
type SignatureError struct {
	TxID   string
	Detail string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("transaction %s signature invalid: %s", e.TxID, e.Detail)
}

// UnknownWalletError reports a transaction sender with no registered wallet.
type UnknownWalletError struct {
	Identity string
}

func (e *UnknownWalletError) Error() string {
	return fmt.Sprintf("unknown wallet: %s", e.Identity)
}
