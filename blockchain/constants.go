package blockchain

const (
	// GenesisPrevHash is the previous-hash sentinel carried by the genesis block.
	GenesisPrevHash = "0000000000000000000000000000000000000000000000000000000000000000"
	// GenesisMiner is the identity recorded on the genesis block.
	GenesisMiner = "Genesis"
	// GenesisTimestamp is fixed so the genesis block hashes identically across
	// chains and across resets.
	GenesisTimestamp = "2024-01-01T00:00:00Z"

	// MaxConsecutiveBlocks is the run-length limit enforced by the
	// consecutive-block-limit defense.
	MaxConsecutiveBlocks = 2
	// ConfirmationDepth is the number of blocks required on top of a
	// transaction's block before it counts as confirmed.
	ConfirmationDepth = 6
	// PrivateLeadMargin is the height lead a private chain needs over the
	// canonical chain to count as a private-chain lead.
	PrivateLeadMargin = 2
	// SlashPenaltyTotal is the total stake penalty applied across all attacker
	// identities when a stake-weighted validation rejects their chain.
	SlashPenaltyTotal = 50
)

// ForgedSignaturePrefix marks a signature produced with a stolen key. The
// simulation does not model real cryptography; a signature is an opaque string
// and this prefix is the only thing validation inspects.
const ForgedSignaturePrefix = "stolen_"
