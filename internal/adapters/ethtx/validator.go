// Package ethtx validates payloads as encoded Ethereum transactions.
package ethtx

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
)

// Validator implements ports.PayloadValidator by decoding the payload as a
// signed Ethereum transaction. Legacy RLP transactions and EIP-2718 typed
// envelopes are both accepted. Consensus-level validity (nonce, balance,
// chain rules) is not checked here; a payload passes when a downstream
// node could at least parse it.
type Validator struct{}

// New creates a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate decodes the payload as a transaction.
func (Validator) Validate(payload []byte) error {
	var tx types.Transaction
	if err := tx.UnmarshalBinary(payload); err != nil {
		return fmt.Errorf("decode transaction: %w", err)
	}
	return nil
}
