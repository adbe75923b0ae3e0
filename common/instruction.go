package common

// AccountMeta is one entry of an instruction's ordered account list. The
// position of each entry is part of the wire contract: the receiving program
// reads accounts by index, so reordering entries is a wire-incompatible
// change.
type AccountMeta struct {
	Address Address
	// Signer marks accounts that must co-sign the carrying transaction.
	Signer bool
	// Writable marks accounts the executing program may mutate.
	Writable bool
}

// Meta builds a read-only, non-signing account entry.
func Meta(addr Address) AccountMeta {
	return AccountMeta{Address: addr}
}

// MetaWritable builds a writable account entry.
func MetaWritable(addr Address) AccountMeta {
	return AccountMeta{Address: addr, Writable: true}
}

// MetaSigner builds a writable co-signing account entry.
func MetaSigner(addr Address) AccountMeta {
	return AccountMeta{Address: addr, Signer: true, Writable: true}
}

// Instruction is one encoded operation request: the target program, the
// ordered account list, and the opaque payload (selector followed by
// fixed-width little-endian arguments).
type Instruction struct {
	Program  Address
	Accounts []AccountMeta
	Data     []byte
}
