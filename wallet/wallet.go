package wallet

// KeyMode describes the strength of a wallet's simulated key pair. The
// simulation does not perform real cryptography: a crackable key can be
// compromised on demand, a secure key never can.
type KeyMode string

const (
	// KeyModeCrackable marks a weak key pair that can be compromised on demand.
	KeyModeCrackable KeyMode = "CRACKABLE"
	// KeyModeSecure marks a key pair that can never be compromised.
	KeyModeSecure KeyMode = "SECURE"
)

// Wallet represents a blockchain participant: an identity name with a spend
// balance, a declared stake, and the state of its simulated key pair. The
// original funding values are retained so balances can be recomputed from
// scratch after a reorganization.
type Wallet struct {
	Name            string  `json:"name"`
	Balance         float64 `json:"balance"`
	OriginalBalance float64 `json:"originalBalance"`
	Stake           int     `json:"stake"`
	OriginalStake   int     `json:"originalStake"`
	KeyMode         KeyMode `json:"keyMode"`
	Compromised     bool    `json:"compromised"`
}

// New creates a wallet with the given funding. The funding values double as
// the original values used by balance recomputation.
func New(name string, balance float64, stake int, mode KeyMode) *Wallet {
	return &Wallet{
		Name:            name,
		Balance:         balance,
		OriginalBalance: balance,
		Stake:           stake,
		OriginalStake:   stake,
		KeyMode:         mode,
	}
}

// clone returns a copy of the wallet for read-only snapshots.
func (w *Wallet) clone() *Wallet {
	c := *w
	return &c
}
