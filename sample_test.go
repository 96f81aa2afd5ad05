package mldsa

import (
	"bytes"
	"testing"
)

func TestSampleNTTPoly(t *testing.T) {
	rho := bytes.Repeat([]byte{0xA5}, 32)
	a := sampleNTTPoly(rho, 0, 0)
	for i, c := range a {
		if uint32(c) >= q {
			t.Fatalf("coefficient %d = %d out of range", i, c)
		}
	}

	// Deterministic for the same seed and indices.
	if sampleNTTPoly(rho, 0, 0) != a {
		t.Error("sampleNTTPoly is not deterministic")
	}

	// Distinct matrix positions yield distinct polynomials.
	if sampleNTTPoly(rho, 1, 0) == a || sampleNTTPoly(rho, 0, 1) == a {
		t.Error("distinct matrix indices produced identical polynomials")
	}
}

func TestSampleBoundedPoly(t *testing.T) {
	seed := bytes.Repeat([]byte{0x3C}, 64)

	for _, eta := range []int{eta2, eta4} {
		a := sampleBoundedPoly(seed, eta, 0)
		bound := uint32(eta)
		for i, c := range a {
			if absModPrime(c) > bound {
				t.Fatalf("eta=%d: coefficient %d = %d out of range", eta, i, c)
			}
		}
		if sampleBoundedPoly(seed, eta, 0) != a {
			t.Errorf("eta=%d: sampleBoundedPoly is not deterministic", eta)
		}
		if sampleBoundedPoly(seed, eta, 1) == a {
			t.Errorf("eta=%d: distinct nonces produced identical polynomials", eta)
		}
	}
}

func TestSampleInBall(t *testing.T) {
	for _, tau := range []int{tau49, tau60} {
		seed := bytes.Repeat([]byte{0x5A}, 48)
		c := sampleInBall(seed, tau)

		nonzero := 0
		for i, v := range c {
			switch v {
			case 0:
			case 1, q - 1:
				nonzero++
			default:
				t.Fatalf("tau=%d: coefficient %d = %d not in {-1, 0, 1}", tau, i, v)
			}
		}
		if nonzero != tau {
			t.Errorf("tau=%d: got %d nonzero coefficients", tau, nonzero)
		}

		if sampleInBall(seed, tau) != c {
			t.Errorf("tau=%d: sampleInBall is not deterministic", tau)
		}
	}
}

func TestSampleMask(t *testing.T) {
	seed := make([]byte, 66)
	for i := range seed {
		seed[i] = byte(i)
	}
	f := sampleMask(seed)
	for i, c := range f {
		if abs := absModPrime(c); abs > gamma1Pow19 {
			t.Fatalf("coefficient %d = %d exceeds gamma1", i, abs)
		}
		// The negative bound is open.
		if uint32(c) > qMinus1Div2 && q-uint32(c) >= gamma1Pow19 {
			t.Fatalf("coefficient %d = -%d below the open bound", i, q-uint32(c))
		}
	}
	if sampleMask(seed) != f {
		t.Error("sampleMask is not deterministic")
	}

	seed[64]++
	if sampleMask(seed) == f {
		t.Error("distinct nonces produced identical masks")
	}
}

func TestExpandSDisjointNonces(t *testing.T) {
	sigma := bytes.Repeat([]byte{0x11}, 64)
	var s1 [l65]ringElement
	var s2 [k65]ringElement
	expandS(s1[:], s2[:], sigma, eta4)

	// s2's nonces start after s1's, so the first s2 polynomial must match
	// a direct sample at nonce L.
	if s2[0] != sampleBoundedPoly(sigma, eta4, l65) {
		t.Error("expandS nonce layout wrong")
	}
	if s1[0] != sampleBoundedPoly(sigma, eta4, 0) {
		t.Error("expandS nonce layout wrong for s1")
	}
}
