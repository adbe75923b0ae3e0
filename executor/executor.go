package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// SystemProgramID is the well-known address of the account allocator
// referenced by instruction account lists.
var SystemProgramID = common.NamedAddress("system-allocator")

// Account is the on-ledger state of one address: the program that owns
// (and alone may mutate) it, and its opaque data.
type Account struct {
	Owner common.Address
	Data  []byte
}

func (a *Account) clone() *Account {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{Owner: a.Owner, Data: data}
}

// Program is a settlement-side state machine. Execute receives the
// positional account list and the raw payload of one instruction and either
// applies its transition through env or fails the whole transaction.
type Program interface {
	Execute(env *Env, accounts []common.AccountMeta, data []byte) error
}

// Executor holds the account store and the program registry. All
// submissions against one Executor are serialized, which gives each account
// address serializable access without any per-account locking.
type Executor struct {
	mu       sync.Mutex
	accounts map[common.Address]*Account
	programs map[common.Address]Program
	now      func() int64
}

// New creates an empty executor using wall-clock time for deadline checks.
func New() *Executor {
	return &Executor{
		accounts: make(map[common.Address]*Account),
		programs: make(map[common.Address]Program),
		now:      func() int64 { return time.Now().Unix() },
	}
}

// Register installs a program under its well-known address.
func (e *Executor) Register(addr common.Address, p Program) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs[addr] = p
}

// SetClock overrides the time source. Intended for tests.
func (e *Executor) SetClock(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Account returns a copy of the account stored at addr.
func (e *Executor) Account(addr common.Address) (Account, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	acc, ok := e.accounts[addr]
	if !ok {
		return Account{}, false
	}
	return *acc.clone(), true
}

// Submit verifies and applies the transaction as one atomic unit. On any
// failure every touched account is restored to its prior state and the
// error is returned with the failing instruction's context attached.
func (e *Executor) Submit(ctx context.Context, tx *Transaction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransient, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(tx.Instructions) == 0 {
		return fmt.Errorf("%w: empty transaction", common.ErrPrecondition)
	}

	msg := tx.Message()
	for _, signer := range tx.RequiredSigners() {
		sig, ok := tx.Signature(signer)
		if !ok {
			return fmt.Errorf("%w: missing signature for %s", common.ErrUnauthorized, signer)
		}
		if !common.VerifySignature(signer, msg, sig) {
			return fmt.Errorf("%w: bad signature for %s", common.ErrUnauthorized, signer)
		}
	}

	signers := make(map[common.Address]bool)
	for _, s := range tx.RequiredSigners() {
		signers[s] = true
	}

	journal := make(map[common.Address]*Account)
	for i, ix := range tx.Instructions {
		if err := e.execute(ix, signers, journal); err != nil {
			e.rollback(journal)
			return fmt.Errorf("instruction %d (program %s): %w", i, ix.Program, err)
		}
	}
	return nil
}

func (e *Executor) execute(ix common.Instruction, txSigners map[common.Address]bool, journal map[common.Address]*Account) error {
	p, ok := e.programs[ix.Program]
	if !ok {
		return fmt.Errorf("%w: unknown program %s", common.ErrPrecondition, ix.Program)
	}
	env := &Env{
		exec:      e,
		program:   ix.Program,
		metas:     ix.Accounts,
		txSigners: txSigners,
		derived:   nil,
		journal:   journal,
	}
	return p.Execute(env, ix.Accounts, ix.Data)
}

func (e *Executor) rollback(journal map[common.Address]*Account) {
	for addr, prior := range journal {
		if prior == nil {
			delete(e.accounts, addr)
		} else {
			e.accounts[addr] = prior
		}
	}
}

// record saves the prior state of addr once per transaction.
func (e *Executor) record(journal map[common.Address]*Account, addr common.Address) {
	if _, done := journal[addr]; done {
		return
	}
	journal[addr] = e.accounts[addr].clone()
}
