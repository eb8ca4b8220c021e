package proof

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"forksim_go/blockchain"
	"forksim_go/utils"
)

// Event names the five milestones that together evidence a complete
// double-spend attack.
type Event string

const (
	EventSpendConfirmed  Event = "INITIAL_SPEND_CONFIRMED"
	EventPrivateLead     Event = "PRIVATE_CHAIN_LEAD"
	EventConflictingTx   Event = "CONFLICTING_TX_INCLUDED"
	EventNetworkReorg    Event = "NETWORK_REORG"
	EventFinalReversal   Event = "FINAL_REVERSAL"
)

// Flags holds the five sticky booleans. A flag only ever transitions from
// false to true; the sole way back is a full tracker reset.
type Flags struct {
	SpendConfirmed        bool `json:"spendConfirmed"`
	PrivateLead           bool `json:"privateLead"`
	ConflictingTxIncluded bool `json:"conflictingTxIncluded"`
	ReorgOccurred         bool `json:"reorgOccurred"`
	FinalReversal         bool `json:"finalReversal"`
}

// LogEntry records one flag transition. The log is append-only and each
// transition appears exactly once.
type LogEntry struct {
	ID        string    `json:"id"`
	Event     Event     `json:"event"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

/**
 * Tracker is the one-way state machine over the five proof events. It is
 * recomputed after every chain mutation as a pure function of the current
 * chains; because the flags are sticky, recomputing twice with unchanged
 * inputs appends nothing.
 *
 * The tracker is not internally locked: it is owned by the simulation state
 * and mutated only under the simulation's lock.
 */
type Tracker struct {
	flags        Flags
	log          []LogEntry
	victimTxID   string
	conflictTxID string
}

// NewTracker creates a tracker watching the given victim transaction (T1).
// The conflicting transaction (T2) is registered later, when the attacker
// creates it.
func NewTracker(victimTxID string) *Tracker {
	return &Tracker{victimTxID: victimTxID}
}

// SetConflictTx registers the double-spend transaction id.
func (t *Tracker) SetConflictTx(txID string) {
	t.conflictTxID = txID
}

// ConflictTxID returns the registered double-spend transaction id, if any.
func (t *Tracker) ConflictTxID() string {
	return t.conflictTxID
}

// Flags returns the current flag values.
func (t *Tracker) Flags() Flags {
	return t.flags
}

// Log returns a copy of the transition log.
func (t *Tracker) Log() []LogEntry {
	entries := make([]LogEntry, len(t.log))
	copy(entries, t.log)
	return entries
}

// Recompute evaluates the chain-derived events (spend confirmation, private
// lead, conflicting-transaction inclusion) against the current chains.
// candidate may be nil when no attack chain exists.
func (t *Tracker) Recompute(canonical, candidate *blockchain.Chain) {
	// E1: the victim transaction is buried under enough blocks on the
	// canonical chain.
	if idx := canonical.TransactionBlockIndex(t.victimTxID); idx > 0 {
		confirmations := canonical.Length() - 1 - idx
		if confirmations >= blockchain.ConfirmationDepth {
			t.mark(EventSpendConfirmed, &t.flags.SpendConfirmed,
				fmt.Sprintf("victim transaction %s confirmed with %d confirmations", t.victimTxID, confirmations))
		}
	}

	if candidate == nil {
		return
	}

	// E2: the private chain leads the canonical chain by the fixed margin.
	if candidate.Length() >= canonical.Length()+blockchain.PrivateLeadMargin {
		t.mark(EventPrivateLead, &t.flags.PrivateLead,
			fmt.Sprintf("candidate height %d >= canonical %d + %d",
				candidate.Length(), canonical.Length(), blockchain.PrivateLeadMargin))
	}

	// E3: the double spend is in the candidate chain while the victim
	// transaction is excluded from it.
	if t.conflictTxID != "" &&
		candidate.ContainsTransaction(t.conflictTxID) &&
		!candidate.ContainsTransaction(t.victimTxID) {
		t.mark(EventConflictingTx, &t.flags.ConflictingTxIncluded,
			fmt.Sprintf("conflicting transaction %s included, victim %s excluded", t.conflictTxID, t.victimTxID))
	}
}

// RecordReorg registers an accepted chain switch: the reorg event itself, and
// the final reversal if the victim transaction was confirmed before the
// switch, is gone after it, and the double spend took its place.
func (t *Tracker) RecordReorg(oldCanonical, newCanonical *blockchain.Chain) {
	t.mark(EventNetworkReorg, &t.flags.ReorgOccurred,
		fmt.Sprintf("canonical chain replaced at height %d", newCanonical.Length()))

	victimReversed := oldCanonical.ContainsTransaction(t.victimTxID) &&
		!newCanonical.ContainsTransaction(t.victimTxID)
	conflictConfirmed := t.conflictTxID != "" && newCanonical.ContainsTransaction(t.conflictTxID)
	if victimReversed && conflictConfirmed {
		t.mark(EventFinalReversal, &t.flags.FinalReversal,
			fmt.Sprintf("victim transaction %s reversed, %s confirmed", t.victimTxID, t.conflictTxID))
	}
}

// Reset clears all flags and the transition log. This is the only path from
// true back to false, and it clears everything at once.
func (t *Tracker) Reset() {
	t.flags = Flags{}
	t.log = nil
	t.conflictTxID = ""
}

// mark flips a sticky flag and appends the transition exactly once.
func (t *Tracker) mark(event Event, flag *bool, details string) {
	if *flag {
		return
	}
	*flag = true
	t.log = append(t.log, LogEntry{
		ID:        uuid.NewString(),
		Event:     event,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
	utils.LogInfo("Proof event %s: %s", event, details)
}
