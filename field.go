package mldsa

// fieldElement is an integer modulo q, always in reduced form [0, q).
// Negative values v with |v| <= B are stored as q + v.
type fieldElement uint32

// ringElement is a polynomial with n coefficients in Z_q.
type ringElement [n]fieldElement

// nttElement is the NTT representation of a polynomial. Its coefficients
// are the evaluations at the 512th roots of unity, in bit-reversed order.
type nttElement [n]fieldElement

// Montgomery form constants, R = 2^32.
const (
	// qNegInv = -q^(-1) mod 2^32
	qNegInv = 4236238847
	// invNMont = 256^(-1) * R^2 mod q. A Montgomery multiply by it scales
	// by 256^(-1) * R, which normalizes the inverse NTT output of a
	// pointwise Montgomery product.
	invNMont = 41978
)

// All helpers below are constant time with respect to their inputs; the
// only branches are on loop counters.

// reduceOnce reduces a value in [0, 2q) to [0, q).
func reduceOnce(a uint32) fieldElement {
	x := a - q
	// x underflowed iff a < q; the borrow fills the high bit.
	x += (x >> 31) * q
	return fieldElement(x)
}

// fieldAdd returns (a + b) mod q.
func fieldAdd(a, b fieldElement) fieldElement {
	return reduceOnce(uint32(a) + uint32(b))
}

// fieldSub returns (a - b) mod q.
func fieldSub(a, b fieldElement) fieldElement {
	return reduceOnce(q + uint32(a) - uint32(b))
}

// montgomeryReduce returns a * R^(-1) mod q for 0 <= a <= q * 2^32.
func montgomeryReduce(a uint64) fieldElement {
	t := uint32(a) * qNegInv
	// The low 32 bits of a + t*q are zero by construction.
	return reduceOnce(uint32((a + uint64(t)*q) >> 32))
}

// fieldMulMont returns a * b * R^(-1) mod q. With the twiddle factors and
// scaling constants stored in Montgomery form, this is the only multiply
// the NTT engine needs.
func fieldMulMont(a, b fieldElement) fieldElement {
	return montgomeryReduce(uint64(a) * uint64(b))
}

// absModPrime returns the absolute value of x interpreted as a centered
// representative: x for x <= (q-1)/2, else q - x.
func absModPrime(x fieldElement) uint32 {
	v := uint32(x)
	mask := uint32(int32(qMinus1Div2-v) >> 31)
	return v ^ (mask & (v ^ (q - v)))
}

// absSigned returns |x| with x interpreted as a two's-complement int32.
func absSigned(x uint32) uint32 {
	mask := uint32(int32(x) >> 31)
	return (x ^ mask) - mask
}

// maximum returns the larger of x and y.
func maximum(x, y uint32) uint32 {
	mask := uint32(int32(x-y) >> 31)
	return x ^ (mask & (x ^ y))
}

// polyAdd adds two polynomials coefficient-wise.
func polyAdd[T ~[n]fieldElement](a, b T) (c T) {
	for i := range c {
		c[i] = fieldAdd(a[i], b[i])
	}
	return c
}

// polySub subtracts two polynomials coefficient-wise.
func polySub[T ~[n]fieldElement](a, b T) (c T) {
	for i := range c {
		c[i] = fieldSub(a[i], b[i])
	}
	return c
}

// polyMaxAbs folds the infinity norm of f into max, reading coefficients as
// centered mod-q representatives.
func polyMaxAbs[T ~[n]fieldElement](max uint32, f *T) uint32 {
	for i := range *f {
		max = maximum(max, absModPrime((*f)[i]))
	}
	return max
}

// polyMaxAbsSigned folds the infinity norm of f into max, reading
// coefficients as two's-complement integers.
func polyMaxAbsSigned[T ~[n]fieldElement](max uint32, f *T) uint32 {
	for i := range *f {
		max = maximum(max, absSigned(uint32((*f)[i])))
	}
	return max
}

// vectorMaxAbs returns the infinity norm of a vector of polynomials in
// centered mod-q representation.
func vectorMaxAbs[T ~[n]fieldElement](v []T) uint32 {
	var max uint32
	for i := range v {
		max = polyMaxAbs(max, &v[i])
	}
	return max
}

// vectorMaxAbsSigned returns the infinity norm of a vector of polynomials
// holding two's-complement values.
func vectorMaxAbsSigned[T ~[n]fieldElement](v []T) uint32 {
	var max uint32
	for i := range v {
		max = polyMaxAbsSigned(max, &v[i])
	}
	return max
}

// vectorCountOnes counts nonzero coefficients across a hint vector, which
// contains only zeros and ones.
func vectorCountOnes[T ~[n]fieldElement](v []T) int {
	count := 0
	for i := range v {
		for j := range v[i] {
			count += int(v[i][j])
		}
	}
	return count
}
