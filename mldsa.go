// Package mldsa implements the ML-DSA (Module-Lattice Digital Signature
// Algorithm) post-quantum signature scheme specified in FIPS 204.
//
// Two parameter sets are provided:
//   - ML-DSA-65: NIST security level 3
//   - ML-DSA-87: NIST security level 5
//
// Keys are generated from a 32-byte seed and signatures support an optional
// context string of up to 255 bytes for domain separation. Signing is
// randomized by default ("hedged" in FIPS 204 terms); passing a nil random
// source selects the deterministic variant, which uses an all-zero
// randomizer.
//
// Basic usage:
//
//	key, err := mldsa.GenerateKey65(rand.Reader)
//	if err != nil {
//	    // handle error
//	}
//	sig, err := key.SignWithContext(rand.Reader, message, nil)
//	if err != nil {
//	    // handle error
//	}
//	valid := key.PublicKey().Verify(sig, message, nil)
package mldsa

import "crypto"

// Global ML-DSA constants from FIPS 204.
const (
	// n is the number of coefficients in a ring element.
	n = 256

	// q is the modulus: q = 2^23 - 2^13 + 1 = 8380417
	q = 8380417

	// d is the number of bits dropped from t by Power2Round.
	d = 13

	// SeedSize is the size of the key generation seed in bytes.
	SeedSize = 32

	// RandomizerSize is the size of the per-signature randomizer in bytes.
	RandomizerSize = 32
)

// Derived constants.
const (
	qMinus1Div2 = (q - 1) / 2

	// gamma2 = (q-1)/32, shared by ML-DSA-65 and ML-DSA-87.
	gamma2QMinus1Div32 = (q - 1) / 32

	// gamma1 = 2^19, shared by ML-DSA-65 and ML-DSA-87.
	gamma1Pow19 = 1 << 19
)

// Security level specific constants.
const (
	// eta bounds the secret vector coefficients.
	eta2 = 2 // ML-DSA-87
	eta4 = 4 // ML-DSA-65

	// tau is the Hamming weight of the challenge polynomial.
	tau49 = 49 // ML-DSA-65
	tau60 = 60 // ML-DSA-87

	// omega caps the total number of 1 bits in the hint.
	omega55 = 55 // ML-DSA-65
	omega75 = 75 // ML-DSA-87

	// lambda is the collision strength of c-tilde, in bits.
	lambda192 = 192 // ML-DSA-65
	lambda256 = 256 // ML-DSA-87
)

// ML-DSA-65 parameters.
const (
	k65 = 6
	l65 = 5

	beta65 = eta4 * tau49

	PublicKeySize65  = 32 + k65*n*10/8
	PrivateKeySize65 = 32 + 32 + 64 + (k65+l65)*n*4/8 + k65*n*13/8
	SignatureSize65  = lambda192/4 + l65*n*20/8 + omega55 + k65
)

// ML-DSA-87 parameters.
const (
	k87 = 8
	l87 = 7

	beta87 = eta2 * tau60

	PublicKeySize87  = 32 + k87*n*10/8
	PrivateKeySize87 = 32 + 32 + 64 + (k87+l87)*n*3/8 + k87*n*13/8
	SignatureSize87  = lambda256/4 + l87*n*20/8 + omega75 + k87
)

// Encoding size constants (bytes per ring element).
const (
	encodingSize3  = n * 3 / 8  // eta=2 packed
	encodingSize4  = n * 4 / 8  // eta=4 packed or 4-bit w1
	encodingSize10 = n * 10 / 8 // t1 packed
	encodingSize13 = n * 13 / 8 // t0 packed
	encodingSize20 = n * 20 / 8 // z for gamma1=2^19
)

// maxSignKappa caps the rejection-sampling loop. kappa is a 16-bit counter
// incremented by L each attempt, so signing must stop once it would wrap.
// In practice a signature is found within a handful of tries.
const maxSignKappa = 1 << 16

// SignerOpts implements crypto.SignerOpts for ML-DSA signing operations.
type SignerOpts struct {
	// Context is an optional domain-separation string (max 255 bytes).
	Context []byte

	// Deterministic selects the deterministic signing variant, which
	// replaces the 32-byte randomizer with zeros.
	Deterministic bool
}

// HashFunc returns 0: ML-DSA signs messages directly, not digests.
func (opts *SignerOpts) HashFunc() crypto.Hash {
	return 0
}

// Compile-time interface assertions.
var (
	_ crypto.Signer = (*PrivateKey65)(nil)
	_ crypto.Signer = (*PrivateKey87)(nil)
)
