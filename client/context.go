// Package client drives the vault-escrow protocol from the buyer's side:
// it encodes operations, pre-checks their preconditions, submits them to a
// settlement session and interprets the results.
package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/custodia-net/vault-escrow-contract/common"
	"github.com/custodia-net/vault-escrow-contract/executor"
	"github.com/custodia-net/vault-escrow-contract/statestore"
)

// Session is the narrow view of the settlement executor the client needs:
// submit one atomic unit, read one account. A remote transport would
// implement the same pair.
type Session interface {
	Submit(ctx context.Context, tx *executor.Transaction) error
	Account(addr common.Address) (executor.Account, bool)
}

// Context carries everything one caller needs to drive the protocol: the
// signing identity, the settlement session, a logger and an optional
// derived-address cache. There is no ambient state; every operation method
// hangs off an explicit Context.
type Context struct {
	signer  common.Signer
	session Session
	log     *zap.Logger
	store   *statestore.Store
}

// Option configures a Context.
type Option func(*Context)

// WithLogger replaces the default no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// WithStore attaches a derived-address cache; completed setup runs are
// recorded in it.
func WithStore(store *statestore.Store) Option {
	return func(c *Context) { c.store = store }
}

// NewContext builds a caller context around a signer and a session.
func NewContext(signer common.Signer, session Session, opts ...Option) *Context {
	c := &Context{
		signer:  signer,
		session: session,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Signer returns the context's signing identity.
func (c *Context) Signer() common.Signer {
	return c.signer
}

// submit signs and submits a single-instruction transaction.
func (c *Context) submit(ctx context.Context, op string, ix common.Instruction) error {
	tx := executor.NewTransaction(ix)
	tx.Sign(c.signer)
	if err := c.session.Submit(ctx, tx); err != nil {
		return err
	}
	c.log.Info("operation applied", zap.String("op", op))
	return nil
}
