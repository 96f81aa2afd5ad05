package mldsa

import (
	"crypto"
	"crypto/subtle"
	"io"

	"golang.org/x/crypto/sha3"
)

// PrivateKey87 is an ML-DSA-87 private key.
type PrivateKey87 struct {
	rho [32]byte         // public matrix seed
	key [32]byte         // signing seed K
	tr  [64]byte         // SHAKE256 hash of the encoded public key
	s1  [l87]ringElement // secret vector, coefficients in [-2, 2]
	s2  [k87]ringElement // secret vector, coefficients in [-2, 2]
	t0  [k87]ringElement // low-order bits of t
}

// PublicKey87 is an ML-DSA-87 public key.
type PublicKey87 struct {
	rho [32]byte
	t1  [k87]ringElement
	tr  [64]byte
}

// Key87 is an ML-DSA-87 key pair that remembers its generation seed.
type Key87 struct {
	PrivateKey87
	seed [SeedSize]byte
	t1   [k87]ringElement
}

// GenerateKey87 generates an ML-DSA-87 key pair from rand.
func GenerateKey87(rand io.Reader) (*Key87, error) {
	var seed [SeedSize]byte
	if _, err := io.ReadFull(rand, seed[:]); err != nil {
		return nil, err
	}
	return NewKey87(seed[:])
}

// NewKey87 derives an ML-DSA-87 key pair from a 32-byte seed.
func NewKey87(seed []byte) (*Key87, error) {
	if len(seed) != SeedSize {
		return nil, ErrInvalidSeed
	}
	key := &Key87{}
	copy(key.seed[:], seed)
	key.generate()
	return key, nil
}

type keyGenValues87 struct {
	a     [k87 * l87]nttElement
	s1NTT [l87]nttElement
	prod  [k87]nttElement
	t     [k87]ringElement
}

// generate derives every key component from the seed.
// FIPS 204 Algorithm 6 (ML-DSA.KeyGen_internal).
func (key *Key87) generate() {
	h := sha3.NewShake256()
	h.Write(key.seed[:])
	h.Write([]byte{k87, l87})
	var expanded [32 + 64 + 32]byte
	h.Read(expanded[:])

	copy(key.rho[:], expanded[:32])
	sigma := expanded[32:96]
	copy(key.key[:], expanded[96:])

	v := new(keyGenValues87)
	expandA(v.a[:], key.rho[:], k87, l87)
	expandS(key.s1[:], key.s2[:], sigma, eta2)

	for i := range key.s1 {
		v.s1NTT[i] = ntt(key.s1[i])
	}
	matrixMul(v.prod[:], v.a[:], v.s1NTT[:])
	for i := 0; i < k87; i++ {
		v.t[i] = polyAdd(inverseNTT(v.prod[i]), key.s2[i])
		key.t1[i], key.t0[i] = polyPower2Round(v.t[i])
	}

	h.Reset()
	h.Write(key.publicKeyBytes())
	h.Read(key.tr[:])
}

// publicKeyBytes encodes (rho, t1). FIPS 204 Algorithm 22 (pkEncode).
func (key *Key87) publicKeyBytes() []byte {
	b := make([]byte, 0, PublicKeySize87)
	b = append(b, key.rho[:]...)
	for i := range key.t1 {
		b = append(b, packUint10(key.t1[i])...)
	}
	return b
}

// PublicKey returns the public half of the key pair.
func (key *Key87) PublicKey() *PublicKey87 {
	return &PublicKey87{
		rho: key.rho,
		t1:  key.t1,
		tr:  key.tr,
	}
}

// Bytes returns the 32-byte generation seed.
func (key *Key87) Bytes() []byte {
	b := make([]byte, SeedSize)
	copy(b, key.seed[:])
	return b
}

// PrivateKeyBytes returns the full encoded private key.
func (key *Key87) PrivateKeyBytes() []byte {
	return key.PrivateKey87.Bytes()
}

// Bytes encodes the private key. FIPS 204 Algorithm 24 (skEncode).
func (sk *PrivateKey87) Bytes() []byte {
	b := make([]byte, 0, PrivateKeySize87)
	b = append(b, sk.rho[:]...)
	b = append(b, sk.key[:]...)
	b = append(b, sk.tr[:]...)
	for i := range sk.s1 {
		b = append(b, packEta2(sk.s1[i])...)
	}
	for i := range sk.s2 {
		b = append(b, packEta2(sk.s2[i])...)
	}
	for i := range sk.t0 {
		b = append(b, packT0(sk.t0[i])...)
	}
	return b
}

// Bytes encodes the public key. FIPS 204 Algorithm 22 (pkEncode).
func (pk *PublicKey87) Bytes() []byte {
	b := make([]byte, 0, PublicKeySize87)
	b = append(b, pk.rho[:]...)
	for i := range pk.t1 {
		b = append(b, packUint10(pk.t1[i])...)
	}
	return b
}

// Equal reports whether pk and other represent the same public key.
func (pk *PublicKey87) Equal(other crypto.PublicKey) bool {
	o, ok := other.(*PublicKey87)
	if !ok {
		return false
	}
	return pk.rho == o.rho && pk.t1 == o.t1
}

// NewPublicKey87 parses an encoded public key and caches its hash.
// FIPS 204 Algorithm 23 (pkDecode).
func NewPublicKey87(b []byte) (*PublicKey87, error) {
	if len(b) != PublicKeySize87 {
		return nil, ErrInvalidKeySize
	}

	pk := &PublicKey87{}
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

// NewPrivateKey87 parses an encoded private key.
// FIPS 204 Algorithm 25 (skDecode).
func NewPrivateKey87(b []byte) (*PrivateKey87, error) {
	if len(b) != PrivateKeySize87 {
		return nil, ErrInvalidKeySize
	}

	sk := &PrivateKey87{}
	copy(sk.rho[:], b[:32])
	copy(sk.key[:], b[32:64])
	copy(sk.tr[:], b[64:128])

	offset := 128
	var err error
	for i := range sk.s1 {
		sk.s1[i], err = unpackEta2(b[offset : offset+encodingSize3])
		if err != nil {
			return nil, err
		}
		offset += encodingSize3
	}
	for i := range sk.s2 {
		sk.s2[i], err = unpackEta2(b[offset : offset+encodingSize3])
		if err != nil {
			return nil, err
		}
		offset += encodingSize3
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
func (sk *PrivateKey87) Public() crypto.PublicKey {
	pk := &PublicKey87{
		rho: sk.rho,
		tr:  sk.tr,
	}

	v := new(keyGenValues87)
	expandA(v.a[:], sk.rho[:], k87, l87)
	for i := range sk.s1 {
		v.s1NTT[i] = ntt(sk.s1[i])
	}
	matrixMul(v.prod[:], v.a[:], v.s1NTT[:])
	for i := 0; i < k87; i++ {
		v.t[i] = polyAdd(inverseNTT(v.prod[i]), sk.s2[i])
		pk.t1[i], _ = polyPower2Round(v.t[i])
	}
	return pk
}

// Sign signs digest with the private key. For ML-DSA the digest is the
// message itself. This implements the crypto.Signer interface.
func (sk *PrivateKey87) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return sk.SignMessage(rand, digest, opts)
}

// SignMessage signs msg with the private key. If opts is *SignerOpts its
// Context and Deterministic fields apply.
func (sk *PrivateKey87) SignMessage(rand io.Reader, msg []byte, opts crypto.SignerOpts) ([]byte, error) {
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
// most 255 bytes. A nil rand selects the deterministic variant.
// FIPS 204 Algorithm 2 (ML-DSA.Sign).
func (sk *PrivateKey87) SignWithContext(rand io.Reader, message, context []byte) ([]byte, error) {
	if len(context) > 255 {
		return nil, ErrContextTooLong
	}

	var rnd [RandomizerSize]byte
	if rand != nil {
		if _, err := io.ReadFull(rand, rnd[:]); err != nil {
			return nil, err
		}
	}

	mPrime := make([]byte, 2+len(context)+len(message))
	mPrime[1] = byte(len(context))
	copy(mPrime[2:], context)
	copy(mPrime[2+len(context):], message)

	return sk.signInternal(&rnd, mPrime)
}

type signValues87 struct {
	a     [k87 * l87]nttElement
	s1NTT [l87]nttElement
	s2NTT [k87]nttElement
	t0NTT [k87]nttElement
	y     [l87]ringElement
	yNTT  [l87]nttElement
	prod  [k87]nttElement
	w     [k87]ringElement
	w1    [k87]ringElement
	cs1   [l87]ringElement
	cs2   [k87]ringElement
	ct0   [k87]ringElement
	z     [l87]ringElement
	r0    [k87]ringElement
	h     [k87]ringElement
}

// signInternal runs the rejection-sampling loop.
// FIPS 204 Algorithm 7 (ML-DSA.Sign_internal).
func (sk *PrivateKey87) signInternal(rnd *[RandomizerSize]byte, mPrime []byte) ([]byte, error) {
	h := sha3.NewShake256()
	h.Write(sk.tr[:])
	h.Write(mPrime)
	var mu [64]byte
	h.Read(mu[:])

	h.Reset()
	h.Write(sk.key[:])
	h.Write(rnd[:])
	h.Write(mu[:])
	var rhoPrime [64]byte
	h.Read(rhoPrime[:])

	v := new(signValues87)
	expandA(v.a[:], sk.rho[:], k87, l87)
	for i := range sk.s1 {
		v.s1NTT[i] = ntt(sk.s1[i])
	}
	for i := range sk.s2 {
		v.s2NTT[i] = ntt(sk.s2[i])
		v.t0NTT[i] = ntt(sk.t0[i])
	}

	for kappa := 0; kappa+l87 <= maxSignKappa; kappa += l87 {
		expandMask(v.y[:], rhoPrime[:], uint16(kappa))

		for i := range v.y {
			v.yNTT[i] = ntt(v.y[i])
		}
		matrixMul(v.prod[:], v.a[:], v.yNTT[:])
		for i := 0; i < k87; i++ {
			v.w[i] = inverseNTT(v.prod[i])
			v.w1[i] = polyHighBits(v.w[i])
		}

		h.Reset()
		h.Write(mu[:])
		for i := range v.w1 {
			h.Write(packUint4(v.w1[i]))
		}
		var cTilde [lambda256 / 4]byte
		h.Read(cTilde[:])

		cNTT := ntt(sampleInBall(cTilde[:], tau60))

		for i := range v.cs1 {
			v.cs1[i] = inverseNTT(nttMul(cNTT, v.s1NTT[i]))
			v.z[i] = polyAdd(v.y[i], v.cs1[i])
		}
		for i := range v.cs2 {
			v.cs2[i] = inverseNTT(nttMul(cNTT, v.s2NTT[i]))
			v.r0[i] = polyLowBits(polySub(v.w[i], v.cs2[i]))
		}

		zMax := vectorMaxAbs(v.z[:])
		r0Max := vectorMaxAbsSigned(v.r0[:])
		if zMax >= gamma1Pow19-beta87 || r0Max >= gamma2QMinus1Div32-beta87 {
			continue
		}

		for i := range v.ct0 {
			v.ct0[i] = inverseNTT(nttMul(cNTT, v.t0NTT[i]))
			v.h[i] = polyMakeHint(v.ct0[i], v.cs2[i], v.w[i])
		}
		if vectorMaxAbs(v.ct0[:]) >= gamma2QMinus1Div32 || vectorCountOnes(v.h[:]) > omega75 {
			continue
		}

		sig := make([]byte, 0, SignatureSize87)
		sig = append(sig, cTilde[:]...)
		for i := range v.z {
			sig = append(sig, packGamma1(v.z[i])...)
		}
		sig = append(sig, packHint(v.h[:], omega75)...)
		return sig, nil
	}

	return nil, ErrSigningFailure
}

// Verify reports whether sig is a valid signature of message under pk with
// the given context.
func (pk *PublicKey87) Verify(sig, message, context []byte) bool {
	if len(sig) != SignatureSize87 || len(context) > 255 {
		return false
	}

	mPrime := make([]byte, 2+len(context)+len(message))
	mPrime[1] = byte(len(context))
	copy(mPrime[2:], context)
	copy(mPrime[2+len(context):], message)

	return pk.verifyInternal(sig, mPrime)
}

type verifyValues87 struct {
	a    [k87 * l87]nttElement
	zNTT [l87]nttElement
	prod [k87]nttElement
	z    [l87]ringElement
	h    [k87]ringElement
	w1   [k87]ringElement
}

// verifyInternal reconstructs w1 from the hint and recomputes the
// commitment hash. FIPS 204 Algorithm 8 (ML-DSA.Verify_internal).
func (pk *PublicKey87) verifyInternal(sig, mPrime []byte) bool {
	v := new(verifyValues87)

	cTilde := sig[:lambda256/4]
	offset := lambda256 / 4
	for i := range v.z {
		v.z[i] = unpackGamma1(sig[offset : offset+encodingSize20])
		offset += encodingSize20
	}
	if !unpackHint(sig[offset:], v.h[:], omega75) {
		return false
	}
	if vectorMaxAbs(v.z[:]) >= gamma1Pow19-beta87 {
		return false
	}

	h := sha3.NewShake256()
	h.Write(pk.tr[:])
	h.Write(mPrime)
	var mu [64]byte
	h.Read(mu[:])

	cNTT := ntt(sampleInBall(cTilde, tau60))
	expandA(v.a[:], pk.rho[:], k87, l87)

	for i := range v.z {
		v.zNTT[i] = ntt(v.z[i])
	}
	matrixMul(v.prod[:], v.a[:], v.zNTT[:])

	h.Reset()
	h.Write(mu[:])
	for i := 0; i < k87; i++ {
		ct1 := nttMul(cNTT, ntt(polyScalePower2Round(pk.t1[i])))
		v.w1[i] = polyUseHint(v.h[i], inverseNTT(polySub(v.prod[i], ct1)))
		h.Write(packUint4(v.w1[i]))
	}

	var check [lambda256 / 4]byte
	h.Read(check[:])
	return subtle.ConstantTimeCompare(cTilde, check[:]) == 1
}

// Sign signs digest with the key pair's private key.
// This implements the crypto.Signer interface.
func (key *Key87) Sign(rand io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	return key.PrivateKey87.Sign(rand, digest, opts)
}

// SignMessage signs msg with the key pair's private key.
func (key *Key87) SignMessage(rand io.Reader, msg []byte, opts crypto.SignerOpts) ([]byte, error) {
	return key.PrivateKey87.SignMessage(rand, msg, opts)
}

// SignWithContext signs a message with an optional context string using the
// key pair's private key.
func (key *Key87) SignWithContext(rand io.Reader, message, context []byte) ([]byte, error) {
	return key.PrivateKey87.SignWithContext(rand, message, context)
}
