package mldsa

import (
	"math/rand"
	"testing"
)

func randomRingElement(rng *rand.Rand) ringElement {
	var f ringElement
	for i := range f {
		f[i] = fieldElement(rng.Intn(q))
	}
	return f
}

// deMontgomery strips the R factor that inverseNTT bakes in for the
// pointwise-multiply path.
func deMontgomery(f ringElement) ringElement {
	for i := range f {
		f[i] = montgomeryReduce(uint64(f[i]))
	}
	return f
}

func TestNTTRoundtrip(t *testing.T) {
	// The inverse transform is normalized by 256^(-1)*R^2 in Montgomery
	// form, so a bare roundtrip returns f scaled by R; the scale cancels
	// against the R^(-1) of the pointwise product in real use.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		f := randomRingElement(rng)
		if got := deMontgomery(inverseNTT(ntt(f))); got != f {
			t.Fatalf("inverseNTT(ntt(f)) != f (iteration %d)", i)
		}
	}

	var zero ringElement
	if deMontgomery(inverseNTT(ntt(zero))) != zero {
		t.Error("NTT roundtrip of zero polynomial failed")
	}

	var max ringElement
	for i := range max {
		max[i] = q - 1
	}
	if deMontgomery(inverseNTT(ntt(max))) != max {
		t.Error("NTT roundtrip of all-(q-1) polynomial failed")
	}
}

// TestNTTMulMatchesSchoolbook cross-checks the pointwise NTT product
// against direct negacyclic convolution.
func TestNTTMulMatchesSchoolbook(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for iter := 0; iter < 4; iter++ {
		a := randomRingElement(rng)
		b := randomRingElement(rng)

		var want ringElement
		for i := 0; i < n; i++ {
			if a[i] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				prod := uint64(a[i]) % q * (uint64(b[j]) % q) % q
				idx := i + j
				if idx < n {
					want[idx] = fieldElement((uint64(want[idx]) + prod) % q)
				} else {
					// X^256 = -1
					idx -= n
					want[idx] = fieldElement((uint64(want[idx]) + q - prod) % q)
				}
			}
		}

		got := inverseNTT(nttMul(ntt(a), ntt(b)))
		if got != want {
			t.Fatalf("NTT product disagrees with schoolbook convolution (iteration %d)", iter)
		}
	}
}

func TestFieldHelpers(t *testing.T) {
	if reduceOnce(q) != 0 || reduceOnce(q-1) != q-1 || reduceOnce(2*q-1) != q-1 {
		t.Error("reduceOnce boundary values wrong")
	}
	if fieldAdd(q-1, 1) != 0 {
		t.Error("fieldAdd wraparound wrong")
	}
	if fieldSub(0, 1) != q-1 {
		t.Error("fieldSub wraparound wrong")
	}
	if absModPrime(q-5) != 5 || absModPrime(5) != 5 || absModPrime(qMinus1Div2) != qMinus1Div2 {
		t.Error("absModPrime wrong")
	}
	if absSigned(^uint32(0)) != 1 || absSigned(5) != 5 {
		t.Error("absSigned wrong")
	}
	if maximum(3, 7) != 7 || maximum(7, 3) != 7 || maximum(4, 4) != 4 {
		t.Error("maximum wrong")
	}

	// Montgomery reduction inverts the R factor: mont(a * R^2 mod q) = a*R,
	// and mont(a*R * 1) = a.
	rng := rand.New(rand.NewSource(3))
	const montR2 = 2365951 // 2^64 mod q
	for i := 0; i < 1000; i++ {
		a := uint64(rng.Intn(q))
		aMont := montgomeryReduce(a * montR2)
		back := montgomeryReduce(uint64(aMont))
		if uint64(back) != a {
			t.Fatalf("Montgomery roundtrip failed for %d", a)
		}
	}
}
