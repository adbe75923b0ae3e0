package token

import (
	"encoding/binary"
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// ProgramID is the well-known address of the asset ledger program.
var ProgramID = common.NamedAddress("asset-ledger")

// HoldingProgramID is the well-known address of the canonical
// holding-account program.
var HoldingProgramID = common.NamedAddress("holding-account")

// Record kind tags, first byte of every account owned by the asset ledger.
const (
	mintTag    = 0x01
	holdingTag = 0x02
)

const (
	mintSize    = 1 + 1 + common.AddressLen + common.AddressLen + 8
	holdingSize = 1 + common.AddressLen + common.AddressLen + 8
)

// Mint describes one token class. Decimals are fixed at creation; the two
// authorities may be reassigned or revoked by their current holders. A zero
// authority address means revoked.
type Mint struct {
	Decimals        uint8
	MintAuthority   common.Address
	FreezeAuthority common.Address
	Supply          uint64
}

// Holding is the balance record of one (mint, owner) pair. Owner may be a
// normal identity or a derived custody address.
type Holding struct {
	Mint   common.Address
	Owner  common.Address
	Amount uint64
}

func (m *Mint) encode() []byte {
	buf := make([]byte, 0, mintSize)
	buf = append(buf, mintTag, m.Decimals)
	buf = append(buf, m.MintAuthority[:]...)
	buf = append(buf, m.FreezeAuthority[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, m.Supply)
	return buf
}

// DecodeMint parses a mint record from raw account data.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != mintSize || data[0] != mintTag {
		return nil, fmt.Errorf("%w: not a mint record", common.ErrPrecondition)
	}
	var m Mint
	m.Decimals = data[1]
	copy(m.MintAuthority[:], data[2:34])
	copy(m.FreezeAuthority[:], data[34:66])
	m.Supply = binary.LittleEndian.Uint64(data[66:74])
	return &m, nil
}

func (h *Holding) encode() []byte {
	buf := make([]byte, 0, holdingSize)
	buf = append(buf, holdingTag)
	buf = append(buf, h.Mint[:]...)
	buf = append(buf, h.Owner[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Amount)
	return buf
}

// DecodeHolding parses a holding record from raw account data.
func DecodeHolding(data []byte) (*Holding, error) {
	if len(data) != holdingSize || data[0] != holdingTag {
		return nil, fmt.Errorf("%w: not a holding record", common.ErrPrecondition)
	}
	var h Holding
	copy(h.Mint[:], data[1:33])
	copy(h.Owner[:], data[33:65])
	h.Amount = binary.LittleEndian.Uint64(data[65:73])
	return &h, nil
}

// HoldingAddress derives the canonical holding account of owner for mint.
func HoldingAddress(owner, mint common.Address) (common.Address, uint8, error) {
	return common.DeriveAddress(HoldingProgramID, owner.Bytes(), ProgramID.Bytes(), mint.Bytes())
}
