package token

import (
	"encoding/binary"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// Asset ledger operation tags, first payload byte.
const (
	opInitMint     = 0x01
	opMintTo       = 0x02
	opTransfer     = 0x03
	opSetAuthority = 0x04
)

// opEnsureHolding is the single operation of the holding-account program.
const opEnsureHolding = 0x01

// Authority selectors for SetAuthority.
const (
	AuthorityMint   = 0x00
	AuthorityFreeze = 0x01
)

// InitMintInstruction creates a new token class. The mint account is a
// fresh keypair address and must co-sign; decimals are immutable from this
// point. A zero freezeAuthority means none.
func InitMintInstruction(authority, mint common.Address, decimals uint8, freezeAuthority common.Address) common.Instruction {
	data := make([]byte, 0, 2+common.AddressLen)
	data = append(data, opInitMint, decimals)
	data = append(data, freezeAuthority[:]...)
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(authority),
			common.MetaSigner(mint),
		},
		Data: data,
	}
}

// MintToInstruction issues amount new units of mint to the dest holding
// account. Only the current mint authority may invoke it.
func MintToInstruction(authority, mint, dest common.Address, amount uint64) common.Instruction {
	data := make([]byte, 0, 9)
	data = append(data, opMintTo)
	data = binary.LittleEndian.AppendUint64(data, amount)
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(authority),
			common.MetaWritable(mint),
			common.MetaWritable(dest),
		},
		Data: data,
	}
}

// TransferInstruction moves amount units between two holding accounts of
// the same mint. The authority must be the source account's owner.
func TransferInstruction(authority, source, dest common.Address, amount uint64) common.Instruction {
	data := make([]byte, 0, 9)
	data = append(data, opTransfer)
	data = binary.LittleEndian.AppendUint64(data, amount)
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			{Address: authority, Signer: true},
			common.MetaWritable(source),
			common.MetaWritable(dest),
		},
		Data: data,
	}
}

// SetAuthorityInstruction reassigns or revokes one of the mint's
// authorities. A zero newAuthority revokes it permanently.
func SetAuthorityInstruction(current, mint common.Address, which uint8, newAuthority common.Address) common.Instruction {
	data := make([]byte, 0, 2+common.AddressLen)
	data = append(data, opSetAuthority, which)
	data = append(data, newAuthority[:]...)
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			{Address: current, Signer: true},
			common.MetaWritable(mint),
		},
		Data: data,
	}
}

// EnsureHoldingInstruction creates the canonical holding account of
// (owner, mint) if it does not exist yet. Idempotent: re-running it against
// an existing holding account succeeds without changing anything. Returns
// the instruction together with the derived holding address.
func EnsureHoldingInstruction(owner, mint common.Address) (common.Instruction, common.Address, error) {
	holding, _, err := HoldingAddress(owner, mint)
	if err != nil {
		return common.Instruction{}, common.Address{}, err
	}
	ix := common.Instruction{
		Program: HoldingProgramID,
		Accounts: []common.AccountMeta{
			common.Meta(owner),
			common.Meta(mint),
			common.MetaWritable(holding),
			common.Meta(ProgramID),
		},
		Data: []byte{opEnsureHolding},
	}
	return ix, holding, nil
}
