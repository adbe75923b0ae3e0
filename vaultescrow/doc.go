/*
Package vaultescrow implements the vault-escrow protocol: deterministic
custody and agreement addresses, the binary instruction codec, and the
state machines enforced by the settlement executor.

A buyer locks fungible tokens into a custody vault derived from
("vault", mint, authority) and creates escrow agreements derived from
("escrow", vault, buyer, seller). Release and refund are authorized by the
buyer alone; the vault signs token transfers through its derivation proof,
never with a private key.

Wire format: every payload starts with an 8-byte selector, the truncated
SHA-256 of "global:" plus the operation name, followed by the arguments in
fixed-width little-endian encoding. The account list of each operation is
positional and its order is part of the protocol contract.
*/
package vaultescrow
