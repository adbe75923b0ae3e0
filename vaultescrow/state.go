package vaultescrow

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// Record discriminators, first 8 bytes of every account owned by the
// program: truncated SHA-256 of "account:" ++ record name.
var (
	vaultDiscriminator  = accountDiscriminator("Vault")
	escrowDiscriminator = accountDiscriminator("Escrow")
)

const (
	vaultRecordSize  = SelectorLen + 2*common.AddressLen + 1
	escrowRecordSize = SelectorLen + 4*common.AddressLen + 8 + 8 + 1 + 1
)

func accountDiscriminator(name string) [SelectorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [SelectorLen]byte
	copy(d[:], sum[:SelectorLen])
	return d
}

// Status is the agreement's forward-only lifecycle position.
type Status uint8

const (
	// StatusActive: created, tokens reserved, waiting for the buyer.
	StatusActive Status = 0
	// StatusReleased: paid out to the seller. Terminal.
	StatusReleased Status = 1
	// StatusRefunded: returned to the buyer after the deadline. Terminal.
	StatusRefunded Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusReleased:
		return "released"
	case StatusRefunded:
		return "refunded"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusReleased || s == StatusRefunded
}

// Vault is the custody record of one (mint, authority) pair. The vault
// itself never signs; the bump is the proof that lets the program authorize
// transfers on its behalf.
type Vault struct {
	Authority common.Address
	Mint      common.Address
	Bump      uint8
}

// Escrow is one agreement record. All fields except Status are immutable
// from creation; terminal records are kept as settlement audit data.
type Escrow struct {
	Vault        common.Address
	Buyer        common.Address
	Seller       common.Address
	Mint         common.Address
	AmountLocked uint64
	DeadlineUnix int64
	Status       Status
	Bump         uint8
}

// Encode serializes the vault record.
func (v *Vault) Encode() []byte {
	buf := make([]byte, 0, vaultRecordSize)
	buf = append(buf, vaultDiscriminator[:]...)
	buf = append(buf, v.Authority[:]...)
	buf = append(buf, v.Mint[:]...)
	buf = append(buf, v.Bump)
	return buf
}

// DecodeVault parses a vault record from raw account data.
func DecodeVault(data []byte) (*Vault, error) {
	if len(data) != vaultRecordSize || [SelectorLen]byte(data[:SelectorLen]) != vaultDiscriminator {
		return nil, fmt.Errorf("%w: not a vault record", common.ErrPrecondition)
	}
	var v Vault
	copy(v.Authority[:], data[8:40])
	copy(v.Mint[:], data[40:72])
	v.Bump = data[72]
	return &v, nil
}

// Encode serializes the escrow record.
func (e *Escrow) Encode() []byte {
	buf := make([]byte, 0, escrowRecordSize)
	buf = append(buf, escrowDiscriminator[:]...)
	buf = append(buf, e.Vault[:]...)
	buf = append(buf, e.Buyer[:]...)
	buf = append(buf, e.Seller[:]...)
	buf = append(buf, e.Mint[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, e.AmountLocked)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(e.DeadlineUnix))
	buf = append(buf, byte(e.Status), e.Bump)
	return buf
}

// DecodeEscrow parses an escrow record from raw account data.
func DecodeEscrow(data []byte) (*Escrow, error) {
	if len(data) != escrowRecordSize || [SelectorLen]byte(data[:SelectorLen]) != escrowDiscriminator {
		return nil, fmt.Errorf("%w: not an escrow record", common.ErrPrecondition)
	}
	var e Escrow
	copy(e.Vault[:], data[8:40])
	copy(e.Buyer[:], data[40:72])
	copy(e.Seller[:], data[72:104])
	copy(e.Mint[:], data[104:136])
	e.AmountLocked = binary.LittleEndian.Uint64(data[136:144])
	e.DeadlineUnix = int64(binary.LittleEndian.Uint64(data[144:152]))
	e.Status = Status(data[152])
	e.Bump = data[153]
	return &e, nil
}
