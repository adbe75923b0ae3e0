/*
Package executor implements the settlement side of the protocol: an
in-process runtime that accepts encoded transactions, validates co-signers
and account ownership, and applies every account mutation of a transaction
atomically.

Each transaction is an all-or-nothing unit. The executor journals the prior
state of every account touched during execution and restores it in full if
any instruction fails, so partial writes are never observable. Submissions
are serialized per executor instance; concurrent callers may race benignly
on idempotent setup steps and receive the already-exists condition.

Programs are registered under well-known addresses and dispatched by the
target address of each instruction. A program may invoke another program
(token transfers signed by a custody address are done this way), proving
authority over a derived address by presenting its derivation seeds.
*/
package executor
