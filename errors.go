package mldsa

import "errors"

// Errors returned by key parsing, signing and the DER/PEM codecs.
// Verification reports failure through its boolean result instead; a
// structurally invalid signature and a signature that simply does not
// verify are indistinguishable at the public API.
var (
	// ErrInvalidSeed is returned when a key generation seed does not have
	// exactly SeedSize bytes.
	ErrInvalidSeed = errors.New("mldsa: invalid seed length")

	// ErrInvalidKeySize is returned when an encoded key has the wrong length.
	ErrInvalidKeySize = errors.New("mldsa: invalid key length")

	// ErrInvalidEncoding is returned when an encoded secret vector contains
	// a coefficient outside [-eta, eta].
	ErrInvalidEncoding = errors.New("mldsa: invalid coefficient encoding")

	// ErrContextTooLong is returned when a context string exceeds 255 bytes.
	ErrContextTooLong = errors.New("mldsa: context longer than 255 bytes")

	// ErrPreHashed is returned when signing is requested with a hash
	// function; ML-DSA signs messages, not digests.
	ErrPreHashed = errors.New("mldsa: cannot sign pre-hashed messages")

	// ErrSigningFailure is returned if the rejection-sampling loop exceeds
	// its iteration bound. The probability of this is negligible.
	ErrSigningFailure = errors.New("mldsa: rejection sampling exceeded iteration bound")
)
