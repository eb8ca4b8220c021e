package blockchain

import "fmt"

// HashChainBrokenError reports the first block at which a chain's integrity
// fails: a stored hash that no longer matches the block's fields, a broken
// previous-hash link, or a non-contiguous index.
type HashChainBrokenError struct {
	Index  int
	Detail string
}

func (e *HashChainBrokenError) Error() string {
	return fmt.Sprintf("hash chain broken at block %d: %s", e.Index, e.Detail)
}

/**
 * Chain is an ordered sequence of blocks rooted at the shared genesis. Two
 * chains exist in the simulation at any time: the canonical chain and at most
 * one candidate chain forked from the same genesis. Chain itself carries no
 * lock; the simulation state owns all chains under a single mutex.
 */
type Chain struct {
	Name   string
	Blocks []*Block
}

// NewChain creates a chain holding only the genesis block.
func NewChain(name string) *Chain {
	return &Chain{
		Name:   name,
		Blocks: []*Block{NewGenesisBlock()},
	}
}

// Fork creates a new chain sharing this chain's genesis block. Genesis is
// immutable, so sharing the pointer keeps the two roots byte-identical.
func (c *Chain) Fork(name string) *Chain {
	return &Chain{
		Name:   name,
		Blocks: []*Block{c.Blocks[0]},
	}
}

// Mine constructs the next block (index = current length, prevHash = hash of
// the last block), appends it and returns it. No transaction validation
// happens at mine time; that is deferred to fork validation.
func (c *Chain) Mine(miner string, transactions []*Transaction) *Block {
	last := c.Blocks[len(c.Blocks)-1]
	block := NewBlock(len(c.Blocks), miner, last.Hash, transactions)
	c.Blocks = append(c.Blocks, block)
	return block
}

// Length returns the block count including genesis.
func (c *Chain) Length() int {
	return len(c.Blocks)
}

// Last returns the most recent block.
func (c *Chain) Last() *Block {
	return c.Blocks[len(c.Blocks)-1]
}

// Clone returns a chain with a copied block slice. Blocks themselves are
// shared; they are not mutated after mining.
func (c *Chain) Clone() *Chain {
	blocks := make([]*Block, len(c.Blocks))
	copy(blocks, c.Blocks)
	return &Chain{Name: c.Name, Blocks: blocks}
}

// VerifyIntegrity recomputes every block's hash from its declared fields and
// checks previous-hash linkage and index contiguity end to end. It fails
// closed on the first mismatch, naming the offending index.
func (c *Chain) VerifyIntegrity() error {
	if len(c.Blocks) == 0 {
		return &HashChainBrokenError{Index: 0, Detail: "chain has no genesis block"}
	}
	genesis := c.Blocks[0]
	if genesis.Index != 0 {
		return &HashChainBrokenError{Index: 0, Detail: "genesis index is not 0"}
	}
	if genesis.PrevHash != GenesisPrevHash {
		return &HashChainBrokenError{Index: 0, Detail: "genesis prev hash sentinel mismatch"}
	}
	for i, block := range c.Blocks {
		if block.Index != i {
			return &HashChainBrokenError{
				Index:  i,
				Detail: fmt.Sprintf("index %d out of sequence", block.Index),
			}
		}
		if block.Hash != block.CalculateHash() {
			return &HashChainBrokenError{Index: i, Detail: "stored hash does not match block contents"}
		}
		if i > 0 && block.PrevHash != c.Blocks[i-1].Hash {
			return &HashChainBrokenError{Index: i, Detail: "prev hash does not match predecessor"}
		}
	}
	return nil
}

// ContainsTransaction reports whether any non-genesis block carries the
// transaction.
func (c *Chain) ContainsTransaction(txID string) bool {
	return c.TransactionBlockIndex(txID) > 0
}

// TransactionBlockIndex returns the index of the block carrying the
// transaction, or -1. Genesis is skipped; it never carries transactions.
func (c *Chain) TransactionBlockIndex(txID string) int {
	for _, block := range c.Blocks[1:] {
		if block.ContainsTransaction(txID) {
			return block.Index
		}
	}
	return -1
}

// Miners returns the miner identities of the non-genesis blocks in order.
func (c *Chain) Miners() []string {
	miners := make([]string, 0, len(c.Blocks)-1)
	for _, block := range c.Blocks[1:] {
		miners = append(miners, block.Miner)
	}
	return miners
}
