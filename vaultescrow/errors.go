package vaultescrow

import (
	"fmt"

	"github.com/custodia-net/vault-escrow-contract/common"
)

// Program-level violations. Each wraps one of the common error categories
// so callers can branch on either the specific condition or the category.
var (
	// ErrNotBuyer: the transition was signed by an identity other than the
	// agreement's buyer.
	ErrNotBuyer = fmt.Errorf("only the buyer can authorize this transition: %w", common.ErrUnauthorized)

	// ErrAlreadyFinalized: the agreement left the Active status; release
	// and refund both fail without moving funds.
	ErrAlreadyFinalized = fmt.Errorf("escrow already finalized: %w", common.ErrPrecondition)

	// ErrDeadlinePassed: release was attempted after the deadline.
	ErrDeadlinePassed = fmt.Errorf("escrow deadline has passed: %w", common.ErrPrecondition)

	// ErrTooEarly: refund was attempted before the deadline.
	ErrTooEarly = fmt.Errorf("escrow deadline has not passed yet: %w", common.ErrPrecondition)

	// ErrBadDeadline: the agreement deadline is not strictly in the future.
	ErrBadDeadline = fmt.Errorf("deadline must be in the future: %w", common.ErrPrecondition)

	// ErrInsufficientCustody: the agreement amount exceeds the vault's
	// holdings at creation time.
	ErrInsufficientCustody = fmt.Errorf("amount exceeds vault holdings: %w", common.ErrPrecondition)

	// ErrZeroAmount: an agreement must reserve a positive amount.
	ErrZeroAmount = fmt.Errorf("escrow amount must be positive: %w", common.ErrPrecondition)
)
