package vaultescrow

import "github.com/custodia-net/vault-escrow-contract/common"

// ProgramID is the well-known address of the vault-escrow program.
var ProgramID = common.NamedAddress("vault-escrow")

// Namespace tags of the two derivations.
var (
	vaultSeed  = []byte("vault")
	escrowSeed = []byte("escrow")
)

// VaultAddress derives the custody vault of (mint, authority). Exactly one
// vault exists per pair; no directory is kept anywhere.
func VaultAddress(mint, authority common.Address) (common.Address, uint8, error) {
	return common.DeriveAddress(ProgramID, vaultSeed, mint.Bytes(), authority.Bytes())
}

// EscrowAddress derives the agreement record of (vault, buyer, seller).
func EscrowAddress(vault, buyer, seller common.Address) (common.Address, uint8, error) {
	return common.DeriveAddress(ProgramID, escrowSeed, vault.Bytes(), buyer.Bytes(), seller.Bytes())
}
