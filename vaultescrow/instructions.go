package vaultescrow

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
	"github.com/custodia-net/vault-escrow-contract/token"
)

// SelectorLen is the length of the operation selector prefix.
const SelectorLen = 8

// Operation names. They feed the selector hash, so renaming one is a
// wire-incompatible change.
const (
	NameInitVault       = "init_vault"
	NameLockTokens      = "lock_tokens"
	NameInitEscrow      = "init_escrow"
	NameReleaseToSeller = "release_to_seller"
	NameRefundBuyer     = "refund_buyer"
)

// Selector computes the 8-byte dispatch prefix for an operation name: the
// truncated SHA-256 of "global:" ++ name.
func Selector(name string) [SelectorLen]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var sel [SelectorLen]byte
	copy(sel[:], sum[:SelectorLen])
	return sel
}

var (
	selInitVault       = Selector(NameInitVault)
	selLockTokens      = Selector(NameLockTokens)
	selInitEscrow      = Selector(NameInitEscrow)
	selReleaseToSeller = Selector(NameReleaseToSeller)
	selRefundBuyer     = Selector(NameRefundBuyer)
)

// OperationName recovers the operation a payload dispatches to.
func OperationName(data []byte) (string, error) {
	if len(data) < SelectorLen {
		return "", fmt.Errorf("%w: payload shorter than selector", common.ErrPrecondition)
	}
	var sel [SelectorLen]byte
	copy(sel[:], data)
	switch sel {
	case selInitVault:
		return NameInitVault, nil
	case selLockTokens:
		return NameLockTokens, nil
	case selInitEscrow:
		return NameInitEscrow, nil
	case selReleaseToSeller:
		return NameReleaseToSeller, nil
	case selRefundBuyer:
		return NameRefundBuyer, nil
	default:
		return "", fmt.Errorf("%w: unknown selector %x", common.ErrPrecondition, sel)
	}
}

// Operation is the closed set of vault-escrow operations. Each variant
// builds its own payload and positional account list.
type Operation interface {
	// Name is the operation's wire name.
	Name() string
	// Build encodes the operation into an executable instruction,
	// deriving every custody and agreement address it references.
	Build() (common.Instruction, error)
}

// InitVault creates the custody vault record of (Mint, Authority).
type InitVault struct {
	Authority common.Address
	Mint      common.Address
}

// LockTokens moves Amount from the user's holding account into the
// vault's. Not a state transition of the vault, only a value movement.
type LockTokens struct {
	User   common.Address
	Mint   common.Address
	Amount uint64
}

// InitEscrow creates an agreement binding Amount and DeadlineUnix to
// (vault, Buyer, Seller). No tokens move.
type InitEscrow struct {
	Buyer        common.Address
	Seller       common.Address
	Mint         common.Address
	Amount       uint64
	DeadlineUnix int64
}

// ReleaseToSeller pays the locked amount out to the seller. Buyer-signed;
// allowed until the deadline.
type ReleaseToSeller struct {
	Buyer  common.Address
	Seller common.Address
	Mint   common.Address
}

// RefundBuyer returns the locked amount to the buyer after the deadline
// has passed without a release.
type RefundBuyer struct {
	Buyer  common.Address
	Seller common.Address
	Mint   common.Address
}

// Name implements Operation.
func (InitVault) Name() string { return NameInitVault }

// Name implements Operation.
func (LockTokens) Name() string { return NameLockTokens }

// Name implements Operation.
func (InitEscrow) Name() string { return NameInitEscrow }

// Name implements Operation.
func (ReleaseToSeller) Name() string { return NameReleaseToSeller }

// Name implements Operation.
func (RefundBuyer) Name() string { return NameRefundBuyer }

// Build implements Operation.
func (op InitVault) Build() (common.Instruction, error) {
	vault, _, err := VaultAddress(op.Mint, op.Authority)
	if err != nil {
		return common.Instruction{}, err
	}
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(op.Authority),
			common.Meta(op.Mint),
			common.MetaWritable(vault),
			common.Meta(executor.SystemProgramID),
		},
		Data: selInitVault[:],
	}, nil
}

// Build implements Operation.
func (op LockTokens) Build() (common.Instruction, error) {
	vault, _, err := VaultAddress(op.Mint, op.User)
	if err != nil {
		return common.Instruction{}, err
	}
	vaultHolding, _, err := token.HoldingAddress(vault, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	userHolding, _, err := token.HoldingAddress(op.User, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	data := append([]byte{}, selLockTokens[:]...)
	data = binary.LittleEndian.AppendUint64(data, op.Amount)
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(op.User),
			common.Meta(op.Mint),
			common.Meta(vault),
			common.MetaWritable(vaultHolding),
			common.MetaWritable(userHolding),
			common.Meta(token.ProgramID),
			common.Meta(token.HoldingProgramID),
			common.Meta(executor.SystemProgramID),
		},
		Data: data,
	}, nil
}

// Build implements Operation.
func (op InitEscrow) Build() (common.Instruction, error) {
	vault, _, err := VaultAddress(op.Mint, op.Buyer)
	if err != nil {
		return common.Instruction{}, err
	}
	escrow, _, err := EscrowAddress(vault, op.Buyer, op.Seller)
	if err != nil {
		return common.Instruction{}, err
	}
	data := append([]byte{}, selInitEscrow[:]...)
	data = binary.LittleEndian.AppendUint64(data, op.Amount)
	data = binary.LittleEndian.AppendUint64(data, uint64(op.DeadlineUnix))
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(op.Buyer),
			common.Meta(op.Seller),
			common.Meta(op.Mint),
			common.Meta(vault),
			common.MetaWritable(escrow),
			common.Meta(executor.SystemProgramID),
		},
		Data: data,
	}, nil
}

// Build implements Operation.
func (op ReleaseToSeller) Build() (common.Instruction, error) {
	vault, _, err := VaultAddress(op.Mint, op.Buyer)
	if err != nil {
		return common.Instruction{}, err
	}
	escrow, _, err := EscrowAddress(vault, op.Buyer, op.Seller)
	if err != nil {
		return common.Instruction{}, err
	}
	vaultHolding, _, err := token.HoldingAddress(vault, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	sellerHolding, _, err := token.HoldingAddress(op.Seller, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(op.Buyer),
			common.MetaWritable(op.Seller),
			common.Meta(op.Mint),
			common.MetaWritable(escrow),
			common.Meta(vault),
			common.MetaWritable(vaultHolding),
			common.MetaWritable(sellerHolding),
			common.Meta(token.ProgramID),
			common.Meta(token.HoldingProgramID),
			common.Meta(executor.SystemProgramID),
		},
		Data: selReleaseToSeller[:],
	}, nil
}

// Build implements Operation.
func (op RefundBuyer) Build() (common.Instruction, error) {
	vault, _, err := VaultAddress(op.Mint, op.Buyer)
	if err != nil {
		return common.Instruction{}, err
	}
	escrow, _, err := EscrowAddress(vault, op.Buyer, op.Seller)
	if err != nil {
		return common.Instruction{}, err
	}
	vaultHolding, _, err := token.HoldingAddress(vault, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	buyerHolding, _, err := token.HoldingAddress(op.Buyer, op.Mint)
	if err != nil {
		return common.Instruction{}, err
	}
	return common.Instruction{
		Program: ProgramID,
		Accounts: []common.AccountMeta{
			common.MetaSigner(op.Buyer),
			common.Meta(op.Mint),
			common.MetaWritable(escrow),
			common.Meta(vault),
			common.MetaWritable(vaultHolding),
			common.MetaWritable(buyerHolding),
			common.Meta(token.ProgramID),
			common.Meta(token.HoldingProgramID),
			common.Meta(executor.SystemProgramID),
		},
		Data: selRefundBuyer[:],
	}, nil
}
