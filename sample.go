package mldsa

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// shake128Rate and shake256Rate are the sponge block sizes; the samplers
// squeeze whole blocks so rejection scanning lines up with the stream.
const (
	shake128Rate = 168
	shake256Rate = 136
)

// sampleNTTPoly rejection-samples a uniform polynomial directly in the NTT
// domain from SHAKE128(rho || j || i). Variable time over public data.
// FIPS 204 Algorithm 30 (RejNTTPoly).
func sampleNTTPoly(rho []byte, j, i byte) nttElement {
	h := sha3.NewShake128()
	h.Write(rho)
	h.Write([]byte{j, i})

	var buf [shake128Rate]byte
	var a nttElement
	done := 0
	for done < n {
		h.Read(buf[:])
		for o := 0; o < len(buf) && done < n; o += 3 {
			// FIPS 204 Algorithm 14 (CoeffFromThreeBytes): 23-bit
			// little-endian candidate, accepted when below q.
			v := uint32(buf[o]) | uint32(buf[o+1])<<8 | uint32(buf[o+2]&0x7f)<<16
			if v < q {
				a[done] = fieldElement(v)
				done++
			}
		}
	}
	return a
}

// sampleBoundedPoly rejection-samples a polynomial with coefficients in
// [-eta, eta] from SHAKE256(seed || nonce). Which stream bytes get rejected
// may leak; individual SHAKE bytes are independent of the seed from an
// attacker's view, so only the accepted values are secret.
// FIPS 204 Algorithm 31 (RejBoundedPoly).
func sampleBoundedPoly(seed []byte, eta int, nonce uint16) ringElement {
	h := sha3.NewShake256()
	h.Write(seed)
	h.Write([]byte{byte(nonce), byte(nonce >> 8)})

	var buf [shake256Rate]byte
	var a ringElement
	done := 0
	for done < n {
		h.Read(buf[:])
		for o := 0; o < len(buf) && done < n; o++ {
			// FIPS 204 Algorithm 15 (CoeffFromHalfByte) on both nibbles.
			lo := buf[o] & 0x0f
			hi := buf[o] >> 4
			if eta == eta4 {
				if lo <= 8 {
					a[done] = fieldSub(4, fieldElement(lo))
					done++
				}
				if done < n && hi <= 8 {
					a[done] = fieldSub(4, fieldElement(hi))
					done++
				}
			} else { // eta == eta2
				if lo < 15 {
					a[done] = fieldSub(2, fieldElement(lo%5))
					done++
				}
				if done < n && hi < 15 {
					a[done] = fieldSub(2, fieldElement(hi%5))
					done++
				}
			}
		}
	}
	return a
}

// sampleInBall derives the tau-sparse challenge polynomial with
// coefficients in {-1, 0, 1} from the commitment hash via a Fisher-Yates
// shuffle over the Keccak stream. Variable time: c-tilde is public.
// FIPS 204 Algorithm 29 (SampleInBall).
func sampleInBall(seed []byte, tau int) ringElement {
	h := sha3.NewShake256()
	h.Write(seed)

	var buf [shake256Rate]byte
	h.Read(buf[:])

	// The first 8 squeezed bytes are a little-endian sign bitstream.
	signs := binary.LittleEndian.Uint64(buf[:8])
	offset := 8

	var c ringElement
	for i := n - tau; i < n; i++ {
		var j int
		for {
			if offset == len(buf) {
				h.Read(buf[:])
				offset = 0
			}
			j = int(buf[offset])
			offset++
			if j <= i {
				break
			}
		}
		c[i] = c[j]
		// 1 - 2*(signs & 1), stored mod q.
		c[j] = fieldSub(1, fieldElement(2*(signs&1)))
		signs >>= 1
	}
	return c
}

// sampleMask expands one y polynomial with coefficients in
// (-gamma1, gamma1] from a one-shot SHAKE256 of seed || kappa.
// FIPS 204 Algorithm 34 (ExpandMask), a single step.
func sampleMask(seed []byte) ringElement {
	var buf [encodingSize20]byte
	sha3.ShakeSum256(buf[:], seed)
	return unpackGamma1(buf[:])
}

// expandA fills the row-major K x L matrix m with uniform NTT-domain
// polynomials derived from rho. FIPS 204 Algorithm 32.
func expandA(m []nttElement, rho []byte, k, l int) {
	for i := 0; i < k; i++ {
		for j := 0; j < l; j++ {
			m[i*l+j] = sampleNTTPoly(rho, byte(j), byte(i))
		}
	}
}

// expandS fills the secret vectors s1 and s2 with eta-bounded polynomials
// derived from sigma. FIPS 204 Algorithm 33.
func expandS(s1, s2 []ringElement, sigma []byte, eta int) {
	for i := range s1 {
		s1[i] = sampleBoundedPoly(sigma, eta, uint16(i))
	}
	for i := range s2 {
		s2[i] = sampleBoundedPoly(sigma, eta, uint16(len(s1)+i))
	}
}

// expandMask fills y with L mask polynomials for one signing attempt,
// consuming nonces kappa .. kappa+L-1. FIPS 204 Algorithm 34.
func expandMask(y []ringElement, rhoPrime []byte, kappa uint16) {
	var seed [64 + 2]byte
	copy(seed[:], rhoPrime)
	for i := range y {
		index := kappa + uint16(i)
		seed[64] = byte(index)
		seed[65] = byte(index >> 8)
		y[i] = sampleMask(seed[:])
	}
}
