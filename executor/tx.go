package executor

import (
	"encoding/binary"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// Transaction is one atomic unit: an ordered list of instructions plus the
// signatures authorizing them. The serialized message covers every
// instruction byte, so a signature binds the signer to the whole unit.
type Transaction struct {
	Instructions []common.Instruction

	signatures map[common.Address][]byte
}

// NewTransaction builds an unsigned transaction from instructions.
func NewTransaction(ixs ...common.Instruction) *Transaction {
	return &Transaction{
		Instructions: ixs,
		signatures:   make(map[common.Address][]byte),
	}
}

// Sign adds the signer's signature over the transaction message. Signing
// the same transaction twice with one identity just replaces the signature.
func (tx *Transaction) Sign(s common.Signer) {
	if tx.signatures == nil {
		tx.signatures = make(map[common.Address][]byte)
	}
	tx.signatures[s.Address()] = s.Sign(tx.Message())
}

// Signature returns the signature recorded for addr, if any.
func (tx *Transaction) Signature(addr common.Address) ([]byte, bool) {
	sig, ok := tx.signatures[addr]
	return sig, ok
}

// Message serializes the transaction's instructions deterministically:
// per instruction the program address, the account list with flag bytes,
// and the length-prefixed payload.
func (tx *Transaction) Message() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(tx.Instructions)))
	for _, ix := range tx.Instructions {
		buf = append(buf, ix.Program[:]...)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(ix.Accounts)))
		for _, m := range ix.Accounts {
			buf = append(buf, m.Address[:]...)
			buf = append(buf, flagByte(m.Signer), flagByte(m.Writable))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ix.Data)))
		buf = append(buf, ix.Data...)
	}
	return buf
}

// RequiredSigners returns the deduplicated set of addresses marked as
// signers across all instruction account lists, in first-seen order.
func (tx *Transaction) RequiredSigners() []common.Address {
	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, ix := range tx.Instructions {
		for _, m := range ix.Accounts {
			if m.Signer && !seen[m.Address] {
				seen[m.Address] = true
				out = append(out, m.Address)
			}
		}
	}
	return out
}

func flagByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
