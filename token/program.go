package token

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
)

// LedgerProgram is the asset ledger state machine.
type LedgerProgram struct{}

// HoldingProgram allocates canonical holding accounts.
type HoldingProgram struct{}

// RegisterPrograms installs both token programs on the executor under
// their well-known addresses.
func RegisterPrograms(e *executor.Executor) {
	e.Register(ProgramID, LedgerProgram{})
	e.Register(HoldingProgramID, HoldingProgram{})
}

// Execute dispatches one asset ledger operation by its tag byte.
func (LedgerProgram) Execute(env *executor.Env, accounts []common.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty payload", common.ErrPrecondition)
	}
	switch data[0] {
	case opInitMint:
		return initMint(env, data[1:])
	case opMintTo:
		return mintTo(env, data[1:])
	case opTransfer:
		return transfer(env, data[1:])
	case opSetAuthority:
		return setAuthority(env, data[1:])
	default:
		return fmt.Errorf("%w: unknown asset ledger operation 0x%02x", common.ErrPrecondition, data[0])
	}
}

func initMint(env *executor.Env, args []byte) error {
	if len(args) != 1+common.AddressLen {
		return fmt.Errorf("%w: bad init-mint payload length %d", common.ErrPrecondition, len(args))
	}
	authority, err := env.Meta(0)
	if err != nil {
		return err
	}
	if !env.IsSigner(authority.Address) {
		return fmt.Errorf("%w: mint authority must sign", common.ErrUnauthorized)
	}
	freeze, err := common.AddressFromBytes(args[1:])
	if err != nil {
		return err
	}
	m := Mint{
		Decimals:        args[0],
		MintAuthority:   authority.Address,
		FreezeAuthority: freeze,
	}
	return env.CreateSigned(1, m.encode())
}

func mintTo(env *executor.Env, args []byte) error {
	if len(args) != 8 {
		return fmt.Errorf("%w: bad mint-to payload length %d", common.ErrPrecondition, len(args))
	}
	amount := binary.LittleEndian.Uint64(args)

	authority, err := env.Meta(0)
	if err != nil {
		return err
	}
	mintMeta, err := env.Meta(1)
	if err != nil {
		return err
	}
	mintData, err := env.Data(1)
	if err != nil {
		return err
	}
	mint, err := DecodeMint(mintData)
	if err != nil {
		return err
	}
	if mint.MintAuthority.IsZero() {
		return fmt.Errorf("%w: mint authority revoked for %s", common.ErrUnauthorized, mintMeta.Address)
	}
	if mint.MintAuthority != authority.Address || !env.IsSigner(authority.Address) {
		return fmt.Errorf("%w: wrong or unsigned mint authority", common.ErrUnauthorized)
	}

	destData, err := env.Data(2)
	if err != nil {
		return err
	}
	dest, err := DecodeHolding(destData)
	if err != nil {
		return err
	}
	if dest.Mint != mintMeta.Address {
		return fmt.Errorf("%w: holding account belongs to a different mint", common.ErrPrecondition)
	}
	if amount > math.MaxUint64-mint.Supply {
		return fmt.Errorf("%w: supply overflow", common.ErrPrecondition)
	}

	mint.Supply += amount
	dest.Amount += amount
	if err := env.SetData(1, mint.encode()); err != nil {
		return err
	}
	return env.SetData(2, dest.encode())
}

func transfer(env *executor.Env, args []byte) error {
	if len(args) != 8 {
		return fmt.Errorf("%w: bad transfer payload length %d", common.ErrPrecondition, len(args))
	}
	amount := binary.LittleEndian.Uint64(args)

	authority, err := env.Meta(0)
	if err != nil {
		return err
	}
	srcData, err := env.Data(1)
	if err != nil {
		return err
	}
	src, err := DecodeHolding(srcData)
	if err != nil {
		return err
	}
	dstData, err := env.Data(2)
	if err != nil {
		return err
	}
	dst, err := DecodeHolding(dstData)
	if err != nil {
		return err
	}

	if src.Owner != authority.Address {
		return fmt.Errorf("%w: authority %s does not own the source account", common.ErrUnauthorized, authority.Address)
	}
	if !env.IsSigner(authority.Address) {
		return fmt.Errorf("%w: source owner must sign", common.ErrUnauthorized)
	}
	if src.Mint != dst.Mint {
		return fmt.Errorf("%w: holding accounts belong to different mints", common.ErrPrecondition)
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: balance %d is below transfer amount %d", common.ErrPrecondition, src.Amount, amount)
	}

	// Self-transfers and zero amounts fall through as no-ops; both encode
	// the same state that is already stored.
	src.Amount -= amount
	dst.Amount += amount
	srcMeta, _ := env.Meta(1)
	dstMeta, _ := env.Meta(2)
	if srcMeta.Address == dstMeta.Address {
		return nil
	}
	if err := env.SetData(1, src.encode()); err != nil {
		return err
	}
	return env.SetData(2, dst.encode())
}

func setAuthority(env *executor.Env, args []byte) error {
	if len(args) != 1+common.AddressLen {
		return fmt.Errorf("%w: bad set-authority payload length %d", common.ErrPrecondition, len(args))
	}
	which := args[0]
	next, err := common.AddressFromBytes(args[1:])
	if err != nil {
		return err
	}

	current, err := env.Meta(0)
	if err != nil {
		return err
	}
	mintData, err := env.Data(1)
	if err != nil {
		return err
	}
	mint, err := DecodeMint(mintData)
	if err != nil {
		return err
	}

	var held common.Address
	switch which {
	case AuthorityMint:
		held = mint.MintAuthority
	case AuthorityFreeze:
		held = mint.FreezeAuthority
	default:
		return fmt.Errorf("%w: unknown authority selector 0x%02x", common.ErrPrecondition, which)
	}
	if held.IsZero() {
		return fmt.Errorf("%w: authority was revoked", common.ErrUnauthorized)
	}
	if held != current.Address || !env.IsSigner(current.Address) {
		return fmt.Errorf("%w: wrong or unsigned current authority", common.ErrUnauthorized)
	}

	switch which {
	case AuthorityMint:
		mint.MintAuthority = next
	case AuthorityFreeze:
		mint.FreezeAuthority = next
	}
	return env.SetData(1, mint.encode())
}

// Execute creates the canonical holding account if it is absent. An
// existing, well-formed holding account for the same pair is success.
func (HoldingProgram) Execute(env *executor.Env, accounts []common.AccountMeta, data []byte) error {
	if len(data) != 1 || data[0] != opEnsureHolding {
		return fmt.Errorf("%w: unknown holding-account operation", common.ErrPrecondition)
	}
	owner, err := env.Meta(0)
	if err != nil {
		return err
	}
	mint, err := env.Meta(1)
	if err != nil {
		return err
	}
	holding, err := env.Meta(2)
	if err != nil {
		return err
	}

	if dataOwner, raw, ok := env.Read(holding.Address); ok {
		if dataOwner != ProgramID {
			return fmt.Errorf("%w: %s exists but is not an asset ledger account", common.ErrPrecondition, holding.Address)
		}
		h, err := DecodeHolding(raw)
		if err != nil {
			return err
		}
		if h.Owner != owner.Address || h.Mint != mint.Address {
			return fmt.Errorf("%w: %s exists for a different (owner, mint) pair", common.ErrPrecondition, holding.Address)
		}
		return nil
	}

	if _, _, ok := env.Read(mint.Address); !ok {
		return fmt.Errorf("%w: mint %s does not exist", common.ErrPrecondition, mint.Address)
	}

	h := Holding{Mint: mint.Address, Owner: owner.Address}
	_, err = env.CreateWithOwner(2, ProgramID, h.encode(),
		owner.Address.Bytes(), ProgramID.Bytes(), mint.Address.Bytes())
	return err
}
