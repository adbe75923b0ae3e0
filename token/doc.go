/*
Package token implements the fungible asset ledger the escrow protocol
settles against: mint descriptors with reassignable authorities, canonical
per-(mint, owner) holding accounts, and balance transfers.

The escrow core treats this ledger as an external collaborator. It is
implemented here as two executor programs so that the protocol's settlement
paths can run end to end in process:

  - the asset ledger program owns mint and holding account data and applies
    mint-to, transfer and set-authority operations;
  - the holding-account program allocates the canonical holding account of
    an (owner, mint) pair at its derived address, idempotently.

Holding accounts are never created ad hoc: for a given owner and mint there
is exactly one canonical address, derived from (owner, asset ledger
program, mint) under the holding-account program.
*/
package token
