package common

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Signer is the capability to authorize operations on behalf of one
// identity. Wallet and key management proper live outside this module; the
// protocol only needs an address and a signature.
type Signer interface {
	Address() Address
	Sign(message []byte) []byte
}

// Keypair is an in-memory ed25519 identity, sufficient for tests and for
// callers that manage raw keys themselves.
type Keypair struct {
	pub  Address
	priv ed25519.PrivateKey
}

// GenerateKeypair creates a fresh random identity.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	var addr Address
	copy(addr[:], pub)
	return &Keypair{pub: addr, priv: priv}, nil
}

// KeypairFromSeed restores an identity from a 32-byte ed25519 seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keypair seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var addr Address
	copy(addr[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{pub: addr, priv: priv}, nil
}

// Address returns the public identity.
func (k *Keypair) Address() Address {
	return k.pub
}

// Sign signs the message with the identity's private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// VerifySignature checks an ed25519 signature made by addr over message.
// Derived addresses are off-curve and can never verify.
func VerifySignature(addr Address, message, sig []byte) bool {
	if len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(addr[:]), message, sig)
}
