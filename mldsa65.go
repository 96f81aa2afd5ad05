package mldsa

import (
	"crypto"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/sha3"
)

// PrivateKey65 is an ML-DSA-65 private key.
type PrivateKey65 struct {
	rho [32]byte         // public matrix seed
	key [32]byte         // signing seed K
	tr  [64]byte         // SHAKE256 hash of the encoded public key
	s1  [l65]ringElement // secret vector, coefficients in [-4, 4]
	s2  [k65]ringElement // secret vector, coefficients in [-4, 4]
	t0  [k65]ringElement // low-order bits of t
}

// PublicKey65 is an ML-DSA-65 public key.
type PublicKey65 struct {
	rho [32]byte         // public matrix seed
	t1  [k65]ringElement // high-order bits of t, coefficients below 2^10
	tr  [64]byte         // SHAKE256 hash of the encoded public key
}

// Key65 is an ML-DSA-65 key pair that remembers its generation seed.
type Key65 struct {
	PrivateKey65
	seed [SeedSize]byte
	t1   [k65]ringElement
}

// GenerateKey65 generates an ML-DSA-65 key pair from rand.
func GenerateKey65(rand io.Reader) (*Key65, error) {
	var seed [SeedSize]byte
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, err
	}
	return NewKey65(seed[:])
}

// NewKey65 derives an ML-DSA-65 key pair from a 32-byte seed.
func NewKey65(seed []byte) (*Key65, error) {
	if len(seed) != SeedSize {
		return nil, ErrInvalidSeed
	}
	key := &Key65{}
	copy(key.seed[:], seed)
	key.generate()
	return key, nil
}

// keyGenValues65 is the working set for key generation, allocated as one
// heap block per call.
type keyGenValues65 struct {
	a     [k65 * l65]nttElement
	s1NTT [l65]nttElement
	prod  [k65]nttElement
	t     [k65]ringElement
}

// generate derives every key component from the seed.
// FIPS 204 Algorithm 6 (ML-DSA.KeyGen_internal).
func (key *Key65) generate() {
	// Expand the seed into (rho, sigma, K); the parameters K and L are
	// appended as domain separation.
	h := sha3.NewShake256()
	h.Write(key.seed[:])
	h.Write([]byte{k65, l65})
	var expanded [32 + 64 + 32]byte
	h.Read(expanded[:])

	copy(key.rho[:], expanded[:32])
	sigma := expanded[32:96]
	copy(key.key[:], expanded[96:])

	v := new(keyGenValues65)
	expandA(v.a[:], key.rho[:], k65, l65)
	expandS(key.s1[:], key.s2[:], sigma, eta4)

	// t = NTT^-1(A * NTT(s1)) + s2, then split by Power2Round.
	for i := range key.s1 {
		v.s1NTT[i] = ntt(key.s1[i])
	}
	matrixMul(v.prod[:], v.a[:], v.s1NTT[:])
	for i := 0; i < k65; i++ {
		v.t[i] = polyAdd(inverseNTT(v.prod[i]), key.s2[i])
		key.t1[i], key.t0[i] = polyPower2Round(v.t[i])
	}

	h.Reset()
	h.Write(key.publicKeyBytes())
	h.Read(key.tr[:])
}

// publicKeyBytes encodes (rho, t1). FIPS 204 Algorithm 22 (pkEncode).
func (key *Key65) publicKeyBytes() []byte {
	b := make([]byte, 0, PublicKeySize65)
	b = append(b, key.rho[:]...)
	for i := range key.t1 {
		b = append(b, packUint10(key.t1[i])...)
	}
	return b
}

// PublicKey returns the public half of the key pair.
func (key *Key65) PublicKey() *PublicKey65 {
	return &PublicKey65{
		rho: key.rho,
		t1:  key.t1,
		tr:  key.tr,
	}
}

// Bytes returns the 32-byte generation seed.
func (key *Key65) Bytes() []byte {
	b := make([]byte, SeedSize)
	copy(b, key.seed[:])
	return b
}

// PrivateKeyBytes returns the full encoded private key.
func (key *Key65) PrivateKeyBytes() []byte {
	return key.PrivateKey65.Bytes()
}

// Bytes encodes the private key. FIPS 204 Algorithm 24 (skEncode).
func (sk *PrivateKey65) Bytes() []byte {
	b := make([]byte, 0, PrivateKeySize65)
	b = append(b, sk.rho[:]...)
	b = append(b, sk.key[:]...)
	b = append(b, sk.tr[:]...)
	for i := range sk.s1 {
		b = append(b, packEta4(sk.s1[i])...)
	}
	for i := range sk.s2 {
		b = append(b, packEta4(sk.s2[i])...)
	}
	for i := range sk.t0 {
		b = append(b, packT0(sk.t0[i])...)
	}
	return b
}

// Bytes encodes the public key. FIPS 204 Algorithm 22 (pkEncode).
func (pk *PublicKey65) Bytes() []byte {
	b := make([]byte, 0, PublicKeySize65)
	b = append(b, pk.rho[:]...)
	for i := range pk.t1 {
		b = append(b, packUint10(pk.t1[i])...)
	}
	return b
}

// Equal reports whether pk and other represent the same public key.
func (pk *PublicKey65) Equal(other crypto.PublicKey) bool {
	o, ok := other.(*PublicKey65)
	if !ok {
		return false
	}
	return pk.rho == o.rho && pk.t1 == o.t1
}

// NewPublicKey65 parses an encoded public key and caches its hash.
// FIPS 204 Algorithm 23 (pkDecode).
func NewPublicKey65(b []byte) (*PublicKey65, error) {
	if len(b) != PublicKeySize65 {
		return nil, ErrInvalidKeySize
	}

	pk := &PublicKey65{}
	copy(pk.rho[:], b[:32])
	offset := 32
	for i := range pk.t1 {
		pk.t1[i] = unpackUint10(b[offset : offset+encodingSize10])
		offset += encodingSize10
	}

	h := sha3.NewShake256()
	h.Write(b)
	h.Read(pk.tr[:])

	return pk, nil
}

// NewPrivateKey65 parses an encoded private key.
// FIPS 204 Algorithm 25 (skDecode).
func NewPrivateKey65(b []byte) (*PrivateKey65, error) {
	if len(b) != PrivateKeySize65 {
		return nil, ErrInvalidKeySize
	}

	sk := &PrivateKey65{}
	copy(sk.rho[:], b[:32])
	copy(sk.key[:], b[32:64])
	copy(sk.tr[:], b[64:128])

	offset := 128
	var err error
	for i := range sk.s1 {
		sk.s1[i], err = unpackEta4(b[offset : offset+encodingSize4])
		if err != nil {
			return nil, err
		}
		offset += encodingSize4
	}
	for i := range sk.s2 {
		sk.s2[i], err = unpackEta4(b[offset : offset+encodingSize4])
		if err != nil {
			return nil, err
		}
		offset += encodingSize4
	}
	for i := range sk.t0 {
		sk.t0[i] = unpackT0(b[offset : offset+encodingSize13])
		offset += encodingSize13
	}

	return sk, nil
}

// Public recomputes the public key from the private key; the result is
// bit-identical to the key produced at generation time.
// This implements the crypto.Signer interface.
func (sk *PrivateKey65) Public() crypto.PublicKey {
	pk := &PublicKey65{
		rho: sk.rho,
		tr:  sk.tr,
	}

	v := new(keyGenValues65)
	expandA(v.a[:], sk.rho[:], k65, l65)
	for i := range sk.s1 {
		v.s1NTT[i] = ntt(sk.s1[i])
	}
	matrixMul(v.prod[:], v.a[:], v.s1NTT[:])
	for i := 0; i < k65; i++ {
		v.t[i] = polyAdd(inverseNTT(v.prod[i]), sk.s2[i])
		pk.t1[i], _ = polyPower2Round(v.t[i])
	}
	return pk
}

// Sign signs digest with the private key. For ML-DSA the digest is the
// message itself. This implements the crypto.Signer interface.
func (sk *PrivateKey65) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return sk.SignMessage(rand, digest, opts)
}

// SignMessage signs msg with the private key. If opts is *SignerOpts its
// Context and Deterministic fields apply; a non-zero hash function is
// rejected since ML-DSA signs messages directly.
func (sk *PrivateKey65) SignMessage(rand io.Reader, msg []byte, opts crypto.SignerOpts) ([]byte, error) {
	if opts != nil && opts.HashFunc() != 0 {
		return nil, ErrPreHashed
	}
	var context []byte
	if o, ok := opts.(*SignerOpts); ok && o != nil {
		context = o.Context
		if o.Deterministic {
			rand = nil
		}
	}
	return sk.SignWithContext(rand, msg, context)
}

// SignWithContext signs a message bound to an optional context string of at
// most 255 bytes. A nil rand selects the deterministic variant (all-zero
// randomizer). FIPS 204 Algorithm 2 (ML-DSA.Sign).
func (sk *PrivateKey65) SignWithContext(rand io.Reader, message, context []byte) ([]byte, error) {
	if len(context) > 255 {
		return nil, ErrContextTooLong
	}

	var rnd [RandomizerSize]byte
	if rand != nil {
		if _, err := io.ReadFull(rand, rnd[:]); err != nil {
			return nil, err
		}
	}

	// M' = 0 || len(ctx) || ctx || msg; the leading 0 tags the "pure"
	// (non-pre-hashed) mode.
	mPrime := make([]byte, 2+len(context)+len(message))
	mPrime[1] = byte(len(context))
	copy(mPrime[2:], context)
	copy(mPrime[2+len(context):], message)

	return sk.signInternal(&rnd, mPrime)
}

// signValues65 is the working set for one signing operation, allocated as
// one heap block per call.
type signValues65 struct {
	a     [k65 * l65]nttElement
	s1NTT [l65]nttElement
	s2NTT [k65]nttElement
	t0NTT [k65]nttElement
	y     [l65]ringElement
	yNTT  [l65]nttElement
	prod  [k65]nttElement
	w     [k65]ringElement
	w1    [k65]ringElement
	cs1   [l65]ringElement
	cs2   [k65]ringElement
	ct0   [k65]ringElement
	z     [l65]ringElement
	r0    [k65]ringElement
	h     [k65]ringElement
}

// signInternal runs the rejection-sampling loop.
// FIPS 204 Algorithm 7 (ML-DSA.Sign_internal).
func (sk *PrivateKey65) signInternal(rnd *[RandomizerSize]byte, mPrime []byte) ([]byte, error) {
	// mu = H(tr || M')
	h := sha3.NewShake256()
	h.Write(sk.tr[:])
	h.Write(mPrime)
	var mu [64]byte
	h.Read(mu[:])

	// rho' = H(K || rnd || mu)
	h.Reset()
	h.Write(sk.key[:])
	h.Write(rnd[:])
	h.Write(mu[:])
	var rhoPrime [64]byte
	h.Read(rhoPrime[:])

	v := new(signValues65)
	expandA(v.a[:], sk.rho[:], k65, l65)
	for i := range sk.s1 {
		v.s1NTT[i] = ntt(sk.s1[i])
	}
	for i := range sk.s2 {
		v.s2NTT[i] = ntt(sk.s2[i])
		v.t0NTT[i] = ntt(sk.t0[i])
	}

	// kappa is a 16-bit nonce counter, advanced by L per attempt.
	for kappa := 0; kappa+l65 <= maxSignKappa; kappa += l65 {
		expandMask(v.y[:], rhoPrime[:], uint16(kappa))

		// w = NTT^-1(A * NTT(y)), w1 = HighBits(w)
		for i := range v.y {
			v.yNTT[i] = ntt(v.y[i])
		}
		matrixMul(v.prod[:], v.a[:], v.yNTT[:])
		for i := 0; i < k65; i++ {
			v.w[i] = inverseNTT(v.prod[i])
			v.w1[i] = polyHighBits(v.w[i])
		}

		// c~ = H(mu || w1Encode(w1))
		h.Reset()
		h.Write(mu[:])
		for i := range v.w1 {
			h.Write(packUint4(v.w1[i]))
		}
		var cTilde [lambda192 / 4]byte
		h.Read(cTilde[:])

		cNTT := ntt(sampleInBall(cTilde[:], tau49))

		// z = y + c*s1, r0 = LowBits(w - c*s2)
		for i := range v.cs1 {
			v.cs1[i] = inverseNTT(nttMul(cNTT, v.s1NTT[i]))
			v.z[i] = polyAdd(v.y[i], v.cs1[i])
		}
		for i := range v.cs2 {
			v.cs2[i] = inverseNTT(nttMul(cNTT, v.s2NTT[i]))
			v.r0[i] = polyLowBits(polySub(v.w[i], v.cs2[i]))
		}

		// The fact of a rejection, and which of the two bound groups
		// tripped, may leak; nothing finer does.
		zMax := vectorMaxAbs(v.z[:])
		r0Max := vectorMaxAbsSigned(v.r0[:])
		if zMax >= gamma1Pow19-beta65 || r0Max >= gamma2QMinus1Div32-beta65 {
			continue
		}

		// h = MakeHint(-c*t0, c*s2, w)
		for i := range v.ct0 {
			v.ct0[i] = inverseNTT(nttMul(cNTT, v.t0NTT[i]))
			v.h[i] = polyMakeHint(v.ct0[i], v.cs2[i], v.w[i])
		}
		if vectorMaxAbs(v.ct0[:]) >= gamma2QMinus1Div32 || vectorCountOnes(v.h[:]) > omega55 {
			continue
		}

		// FIPS 204 Algorithm 26 (sigEncode).
		sig := make([]byte, 0, SignatureSize65)
		sig = append(sig, cTilde[:]...)
		for i := range v.z {
			sig = append(sig, packGamma1(v.z[i])...)
		}
		sig = append(sig, packHint(v.h[:], omega55)...)
		return sig, nil
	}

	return nil, ErrSigningFailure
}

// Verify reports whether sig is a valid signature of message under pk with
// the given context.
func (pk *PublicKey65) Verify(sig, message, context []byte) bool {
	if len(sig) != SignatureSize65 || len(context) > 255 {
		return false
	}

	mPrime := make([]byte, 2+len(context)+len(message))
	mPrime[1] = byte(len(context))
	copy(mPrime[2:], context)
	copy(mPrime[2+len(context):], message)

	return pk.verifyInternal(sig, mPrime)
}

// verifyValues65 is the working set for one verification, allocated as one
// heap block per call.
type verifyValues65 struct {
	a    [k65 * l65]nttElement
	zNTT [l65]nttElement
	prod [k65]nttElement
	z    [l65]ringElement
	h    [k65]ringElement
	w1   [k65]ringElement
}

// verifyInternal reconstructs w1 from the hint and recomputes the
// commitment hash. FIPS 204 Algorithm 8 (ML-DSA.Verify_internal).
func (pk *PublicKey65) verifyInternal(sig, mPrime []byte) bool {
	v := new(verifyValues65)

	// FIPS 204 Algorithm 27 (sigDecode).
	cTilde := sig[:lambda192/4]
	offset := lambda192 / 4
	for i := range v.z {
		v.z[i] = unpackGamma1(sig[offset : offset+encodingSize20])
		offset += encodingSize20
	}
	if !unpackHint(sig[offset:], v.h[:], omega55) {
		return false
	}
	if vectorMaxAbs(v.z[:]) >= gamma1Pow19-beta65 {
		return false
	}

	// mu = H(tr || M')
	h := sha3.NewShake256()
	h.Write(pk.tr[:])
	h.Write(mPrime)
	var mu [64]byte
	h.Read(mu[:])

	cNTT := ntt(sampleInBall(cTilde, tau49))
	expandA(v.a[:], pk.rho[:], k65, l65)

	// w1' = UseHint(h, NTT^-1(A*NTT(z) - c * NTT(t1 * 2^d)))
	for i := range v.z {
		v.zNTT[i] = ntt(v.z[i])
	}
	matrixMul(v.prod[:], v.a[:], v.zNTT[:])

	h.Reset()
	h.Write(mu[:])
	for i := 0; i < k65; i++ {
		ct1 := nttMul(cNTT, ntt(polyScalePower2Round(pk.t1[i])))
		v.w1[i] = polyUseHint(v.h[i], inverseNTT(polySub(v.prod[i], ct1)))
		h.Write(packUint4(v.w1[i]))
	}

	var check [lambda192 / 4]byte
	h.Read(check[:])
	return subtle.ConstantTimeCompare(cTilde, check[:]) == 1
}

// Sign signs digest with the key pair's private key.
// This implements the crypto.Signer interface.
func (key *Key65) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return key.PrivateKey65.Sign(rand, digest, opts)
}

// SignMessage signs msg with the key pair's private key.
func (key *Key65) SignMessage(rand io.Reader, msg []byte, opts crypto.SignerOpts) ([]byte, error) {
	return key.PrivateKey65.SignMessage(rand, msg, opts)
}

// SignWithContext signs a message with an optional context string using the
// key pair's private key.
func (key *Key65) SignWithContext(rand io.Reader, message, context []byte) ([]byte, error) {
	return key.PrivateKey65.SignWithContext(rand, message, context)
}
