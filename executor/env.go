package executor

import (
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// Env is the view a program gets of the executor while one of its
// instructions runs. All mutations go through the env so they are journaled
// for rollback, restricted to the instruction's account list, and checked
// against the writability flags and account ownership.
type Env struct {
	exec      *Executor
	program   common.Address
	metas     []common.AccountMeta
	txSigners map[common.Address]bool
	// derived holds addresses whose derivation was proven by the invoking
	// program during a cross-program call; they count as signers here.
	derived map[common.Address]bool
	journal map[common.Address]*Account
}

// Program is the address the current program is registered under.
func (env *Env) Program() common.Address {
	return env.program
}

// Now is the executor's current Unix time.
func (env *Env) Now() int64 {
	return env.exec.now()
}

// Meta returns the account entry at position i of the instruction's list.
func (env *Env) Meta(i int) (common.AccountMeta, error) {
	if i < 0 || i >= len(env.metas) {
		return common.AccountMeta{}, fmt.Errorf("%w: account index %d out of range (%d accounts)",
			common.ErrPrecondition, i, len(env.metas))
	}
	return env.metas[i], nil
}

// IsSigner reports whether addr authorized this transaction, either by a
// verified transaction signature or by a derivation proof presented in a
// cross-program invocation.
func (env *Env) IsSigner(addr common.Address) bool {
	return env.txSigners[addr] || env.derived[addr]
}

// Exists reports whether an account is allocated at addr.
func (env *Env) Exists(addr common.Address) bool {
	_, ok := env.exec.accounts[addr]
	return ok
}

// Read returns the owner and data of the account at addr without any
// account-list restriction. Read-only.
func (env *Env) Read(addr common.Address) (common.Address, []byte, bool) {
	acc, ok := env.exec.accounts[addr]
	if !ok {
		return common.Address{}, nil, false
	}
	c := acc.clone()
	return c.Owner, c.Data, true
}

// Data returns the data of the account at position i. The account must
// exist.
func (env *Env) Data(i int) ([]byte, error) {
	m, err := env.Meta(i)
	if err != nil {
		return nil, err
	}
	acc, ok := env.exec.accounts[m.Address]
	if !ok {
		return nil, fmt.Errorf("%w: account %s does not exist", common.ErrPrecondition, m.Address)
	}
	return acc.clone().Data, nil
}

// SetData replaces the data of the account at position i. The entry must be
// flagged writable and the account must be owned by the executing program.
func (env *Env) SetData(i int, data []byte) error {
	m, err := env.Meta(i)
	if err != nil {
		return err
	}
	if !m.Writable {
		return fmt.Errorf("%w: account %s is not writable", common.ErrUnauthorized, m.Address)
	}
	acc, ok := env.exec.accounts[m.Address]
	if !ok {
		return fmt.Errorf("%w: account %s does not exist", common.ErrPrecondition, m.Address)
	}
	if acc.Owner != env.program {
		return fmt.Errorf("%w: account %s is owned by %s, not by the executing program",
			common.ErrUnauthorized, m.Address, acc.Owner)
	}
	env.exec.record(env.journal, m.Address)
	stored := make([]byte, len(data))
	copy(stored, data)
	acc = &Account{Owner: acc.Owner, Data: stored}
	env.exec.accounts[m.Address] = acc
	return nil
}

// Create allocates the account at position i, owned by the executing
// program. The address must be the canonical derived address of the given
// seeds under the executing program; this is what makes record accounts
// reproducible without any stored directory. Re-creating an existing
// account fails with the already-exists condition.
func (env *Env) Create(i int, data []byte, seeds ...[]byte) (uint8, error) {
	return env.CreateWithOwner(i, env.program, data, seeds...)
}

// CreateSigned allocates the account at position i at an arbitrary address
// that co-signed the transaction. This is how fresh keypair accounts (asset
// mints) come into existence: only the holder of the matching private key
// can claim the address.
func (env *Env) CreateSigned(i int, data []byte) error {
	m, err := env.Meta(i)
	if err != nil {
		return err
	}
	if !m.Writable {
		return fmt.Errorf("%w: account %s is not writable", common.ErrUnauthorized, m.Address)
	}
	if !env.IsSigner(m.Address) {
		return fmt.Errorf("%w: creating an account at %s requires its signature", common.ErrUnauthorized, m.Address)
	}
	if _, ok := env.exec.accounts[m.Address]; ok {
		return fmt.Errorf("%w: %s", common.ErrAlreadyExists, m.Address)
	}
	env.exec.record(env.journal, m.Address)
	stored := make([]byte, len(data))
	copy(stored, data)
	env.exec.accounts[m.Address] = &Account{Owner: env.program, Data: stored}
	return nil
}

// CreateWithOwner is Create with the data ownership handed to another
// program. The canonical holding-account program uses it: the address
// derives under the creating program while the stored balance belongs to
// the asset ledger.
func (env *Env) CreateWithOwner(i int, owner common.Address, data []byte, seeds ...[]byte) (uint8, error) {
	m, err := env.Meta(i)
	if err != nil {
		return 0, err
	}
	if !m.Writable {
		return 0, fmt.Errorf("%w: account %s is not writable", common.ErrUnauthorized, m.Address)
	}
	want, bump, err := common.DeriveAddress(env.program, seeds...)
	if err != nil {
		return 0, err
	}
	if want != m.Address {
		return 0, fmt.Errorf("%w: account %s is not the derived address for its seeds (want %s)",
			common.ErrPrecondition, m.Address, want)
	}
	if _, ok := env.exec.accounts[m.Address]; ok {
		return 0, fmt.Errorf("%w: %s", common.ErrAlreadyExists, m.Address)
	}
	env.exec.record(env.journal, m.Address)
	stored := make([]byte, len(data))
	copy(stored, data)
	env.exec.accounts[m.Address] = &Account{Owner: owner, Data: stored}
	return bump, nil
}

// Invoke executes an instruction of another program within the current
// transaction. Each entry of signerSeeds proves authority over one derived
// address of the calling program: the final seed is the bump byte, the rest
// are the identifying byte-strings. The proven addresses satisfy signer
// flags in the inner instruction's account list.
func (env *Env) Invoke(ix common.Instruction, signerSeeds ...[][]byte) error {
	p, ok := env.exec.programs[ix.Program]
	if !ok {
		return fmt.Errorf("%w: unknown program %s", common.ErrPrecondition, ix.Program)
	}

	derived := make(map[common.Address]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		if len(seeds) == 0 || len(seeds[len(seeds)-1]) != 1 {
			return fmt.Errorf("%w: signer seeds must end with a one-byte bump", common.ErrDerivation)
		}
		bump := seeds[len(seeds)-1][0]
		addr, err := common.DeriveAddressWithBump(env.program, bump, seeds[:len(seeds)-1]...)
		if err != nil {
			return err
		}
		derived[addr] = true
	}

	for _, m := range ix.Accounts {
		if m.Signer && !env.txSigners[m.Address] && !derived[m.Address] {
			return fmt.Errorf("%w: inner instruction requires signer %s", common.ErrUnauthorized, m.Address)
		}
	}

	inner := &Env{
		exec:      env.exec,
		program:   ix.Program,
		metas:     ix.Accounts,
		txSigners: env.txSigners,
		derived:   derived,
		journal:   env.journal,
	}
	return p.Execute(inner, ix.Accounts, ix.Data)
}
