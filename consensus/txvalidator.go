package consensus

import (
	"forksim_go/blockchain"
	"forksim_go/wallet"
)

// ValidateTransactions checks the signature of every transaction in every
// non-genesis block against the sender's key state:
//
//   - a sender with a secure key can never have a forged-marker signature
//     accepted (secure keys cannot be stolen, by construction);
//   - a sender with a crackable key that has not been compromised likewise
//     rejects forged-marker signatures (nobody holds the key yet);
//   - once the sender's key is compromised, forged-marker signatures pass.
//
// On full success every transaction's IsValid flag is set and nil is
// returned. On the first failure a typed error identifies the transaction and
// no flags are mutated.
func ValidateTransactions(chain *blockchain.Chain, wallets *wallet.Registry) error {
	validated := make([]*blockchain.Transaction, 0)
	for _, block := range chain.Blocks[1:] {
		for _, tx := range block.Transactions {
			sender, ok := wallets.Get(tx.From)
			if !ok {
				return &UnknownWalletError{Identity: tx.From}
			}
			if tx.Forged() {
				if sender.KeyMode == wallet.KeyModeSecure {
					return &SignatureError{TxID: tx.ID, Detail: "secure key cannot be forged"}
				}
				if !sender.Compromised {
					return &SignatureError{TxID: tx.ID, Detail: "key not compromised but signature is forged"}
				}
			}
			validated = append(validated, tx)
		}
	}
	for _, tx := range validated {
		tx.IsValid = true
	}
	return nil
}
