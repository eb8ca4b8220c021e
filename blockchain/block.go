package blockchain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

/**
 * Block represents a single block in a chain. A block is immutable once mined:
 * its hash is a digest of its canonical encoding (index, miner, transactions,
 * previous hash, timestamp) and any later mutation is detectable by
 * re-hashing.
 */
type Block struct {
	Index        int            `json:"index"`        // Position of the block in the chain
	Miner        string         `json:"miner"`        // Identity that produced the block
	Timestamp    string         `json:"timestamp"`    // Creation time (UTC, RFC3339)
	PrevHash     string         `json:"prevHash"`     // Hash of the previous block
	Hash         string         `json:"hash"`         // Digest of this block's canonical encoding
	Transactions []*Transaction `json:"transactions"` // Ordered transactions carried by the block
}

// CalculateHash generates a SHA-256 hash of the block's canonical encoding.
// Order matters for consistent hashing.
func (b *Block) CalculateHash() string {
	records := make([]string, 0, len(b.Transactions)+4)
	records = append(records, strconv.Itoa(b.Index))
	records = append(records, b.Miner)
	for _, tx := range b.Transactions {
		records = append(records, tx.canonicalRecord())
	}
	records = append(records, b.PrevHash)
	records = append(records, b.Timestamp)

	h := sha256.New()
	h.Write([]byte(strings.Join(records, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

// NewBlock builds a block at the given position, stamps it and computes its
// hash.
func NewBlock(index int, miner, prevHash string, transactions []*Transaction) *Block {
	b := &Block{
		Index:        index,
		Miner:        miner,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		PrevHash:     prevHash,
		Transactions: transactions,
	}
	b.Hash = b.CalculateHash()
	return b
}

// NewGenesisBlock builds the fixed genesis block. It is deterministic: every
// chain, in every run, starts from a byte-identical genesis.
func NewGenesisBlock() *Block {
	b := &Block{
		Index:        0,
		Miner:        GenesisMiner,
		Timestamp:    GenesisTimestamp,
		PrevHash:     GenesisPrevHash,
		Transactions: nil,
	}
	b.Hash = b.CalculateHash()
	return b
}

// ContainsTransaction reports whether the block carries a transaction with
// the given id.
func (b *Block) ContainsTransaction(txID string) bool {
	for _, tx := range b.Transactions {
		if tx.ID == txID {
			return true
		}
	}
	return false
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.8f", amount)
}
