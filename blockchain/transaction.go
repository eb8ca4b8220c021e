package blockchain

import (
	"strings"

	"github.com/google/uuid"
)

// Transaction represents a transfer included in a block. Fields are fixed at
// creation; only IsValid changes, and only through chain validation.
type Transaction struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	Signature string  `json:"signature"`
	IsValid   bool    `json:"isValid"`
}

// NewTransaction creates a transaction with a generated id.
func NewTransaction(from, to string, amount float64, signature string) *Transaction {
	return &Transaction{
		ID:        "tx_" + uuid.NewString(),
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: signature,
	}
}

// NewTransactionWithID creates a transaction with a caller-chosen id. The
// well-known simulation transactions (the honest spend and the double spend)
// use fixed ids so they can be tracked across chains.
func NewTransactionWithID(id, from, to string, amount float64, signature string) *Transaction {
	return &Transaction{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Signature: signature,
	}
}

// Forged reports whether the signature carries the forged marker.
func (t *Transaction) Forged() bool {
	return strings.HasPrefix(t.Signature, ForgedSignaturePrefix)
}

// canonicalRecord returns the encoding of the transaction that feeds the block
// hash. IsValid is excluded: validation must not change a block's hash.
func (t *Transaction) canonicalRecord() string {
	return strings.Join([]string{t.ID, t.From, t.To, formatAmount(t.Amount), t.Signature}, "|")
}
