package mldsa

import (
	"bytes"
	"math/rand"
	"testing"
)

// signedElement returns a coefficient in [-bound, bound] stored mod q.
func signedElement(rng *rand.Rand, bound int) fieldElement {
	v := rng.Intn(2*bound+1) - bound
	if v < 0 {
		return fieldElement(q + v)
	}
	return fieldElement(v)
}

func TestPackUint10Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 50; iter++ {
		var f ringElement
		for i := range f {
			f[i] = fieldElement(rng.Intn(1 << 10))
		}
		b := packUint10(f)
		if len(b) != encodingSize10 {
			t.Fatalf("packUint10 length %d", len(b))
		}
		if unpackUint10(b) != f {
			t.Fatal("packUint10 roundtrip failed")
		}
		if !bytes.Equal(packUint10(unpackUint10(b)), b) {
			t.Fatal("unpackUint10 re-encode mismatch")
		}
	}
}

func TestPackEta4Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for iter := 0; iter < 50; iter++ {
		var f ringElement
		for i := range f {
			f[i] = signedElement(rng, 4)
		}
		b := packEta4(f)
		if len(b) != encodingSize4 {
			t.Fatalf("packEta4 length %d", len(b))
		}
		got, err := unpackEta4(b)
		if err != nil {
			t.Fatalf("unpackEta4 failed: %v", err)
		}
		if got != f {
			t.Fatal("packEta4 roundtrip failed")
		}
	}
}

func TestUnpackEta4RejectsBadNibbles(t *testing.T) {
	// Nibble values 9..15 are invalid in every position.
	for nibble := byte(9); nibble <= 15; nibble++ {
		b := make([]byte, encodingSize4)
		b[17] = nibble // low nibble of coefficient 34
		if _, err := unpackEta4(b); err == nil {
			t.Errorf("unpackEta4 accepted nibble %#x", nibble)
		}
		b = make([]byte, encodingSize4)
		b[17] = nibble << 4
		if _, err := unpackEta4(b); err == nil {
			t.Errorf("unpackEta4 accepted high nibble %#x", nibble)
		}
	}
	// All-valid buffer still decodes.
	b := bytes.Repeat([]byte{0x88}, encodingSize4)
	if _, err := unpackEta4(b); err != nil {
		t.Errorf("unpackEta4 rejected valid buffer: %v", err)
	}
}

func TestPackEta2Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for iter := 0; iter < 50; iter++ {
		var f ringElement
		for i := range f {
			f[i] = signedElement(rng, 2)
		}
		b := packEta2(f)
		if len(b) != encodingSize3 {
			t.Fatalf("packEta2 length %d", len(b))
		}
		got, err := unpackEta2(b)
		if err != nil {
			t.Fatalf("unpackEta2 failed: %v", err)
		}
		if got != f {
			t.Fatal("packEta2 roundtrip failed")
		}
	}
}

func TestUnpackEta2RejectsBadGroups(t *testing.T) {
	for group := byte(5); group <= 7; group++ {
		b := make([]byte, encodingSize3)
		b[0] = group // first 3-bit group
		if _, err := unpackEta2(b); err == nil {
			t.Errorf("unpackEta2 accepted group %d", group)
		}
	}
	b := make([]byte, encodingSize3)
	b[0] = 4
	if _, err := unpackEta2(b); err != nil {
		t.Errorf("unpackEta2 rejected valid group: %v", err)
	}
}

func TestPackT0Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for iter := 0; iter < 50; iter++ {
		var f ringElement
		for i := range f {
			// t0 range is (-2^12, 2^12].
			v := rng.Intn(1<<13) - (1<<12 - 1)
			if v < 0 {
				f[i] = fieldElement(q + v)
			} else {
				f[i] = fieldElement(v)
			}
		}
		b := packT0(f)
		if len(b) != encodingSize13 {
			t.Fatalf("packT0 length %d", len(b))
		}
		if unpackT0(b) != f {
			t.Fatal("packT0 roundtrip failed")
		}
	}
}

func TestPackGamma1Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for iter := 0; iter < 50; iter++ {
		var f ringElement
		for i := range f {
			// z range is (-2^19, 2^19].
			v := rng.Intn(1<<20) - (1<<19 - 1)
			if v < 0 {
				f[i] = fieldElement(q + v)
			} else {
				f[i] = fieldElement(v)
			}
		}
		b := packGamma1(f)
		if len(b) != encodingSize20 {
			t.Fatalf("packGamma1 length %d", len(b))
		}
		if unpackGamma1(b) != f {
			t.Fatal("packGamma1 roundtrip failed")
		}
		if !bytes.Equal(packGamma1(unpackGamma1(b)), b) {
			t.Fatal("unpackGamma1 re-encode mismatch")
		}
	}
}

// hintVector builds a K-row hint vector with the given 1-bit positions.
func hintVector(positions [][]int) [][n]fieldElement {
	h := make([][n]fieldElement, len(positions))
	for i, row := range positions {
		for _, p := range row {
			h[i][p] = 1
		}
	}
	return h
}

func TestHintRoundtripCodec(t *testing.T) {
	cases := [][][]int{
		{{}, {}, {}, {}, {}, {}},                          // no hints at all
		{{0}, {}, {255}, {}, {1, 2, 3}, {}},               // sparse rows
		{{0, 1, 2, 3, 4, 5, 6, 7}, {}, {}, {}, {}, {128}}, // dense first row
	}
	for ci, positions := range cases {
		h := hintVector(positions)
		b := packHint(h, omega55)
		if len(b) != omega55+k65 {
			t.Fatalf("case %d: packHint length %d", ci, len(b))
		}
		got := make([][n]fieldElement, k65)
		if !unpackHint(b, got, omega55) {
			t.Fatalf("case %d: unpackHint rejected valid encoding", ci)
		}
		for i := range h {
			if got[i] != h[i] {
				t.Fatalf("case %d: hint row %d mismatch", ci, i)
			}
		}
		if !bytes.Equal(packHint(got, omega55), b) {
			t.Fatalf("case %d: hint re-encode mismatch", ci)
		}
	}
}

func TestUnpackHintRejectsMalformed(t *testing.T) {
	valid := packHint(hintVector([][]int{{3, 7}, {1}, {}, {}, {}, {250}}), omega55)

	// Decreasing cumulative count.
	b := bytes.Clone(valid)
	b[omega55+1] = 0 // below row 0's count
	if unpackHint(b, make([][n]fieldElement, k65), omega55) {
		t.Error("unpackHint accepted decreasing cumulative count")
	}

	// Count above omega.
	b = bytes.Clone(valid)
	b[omega55] = omega55 + 1
	if unpackHint(b, make([][n]fieldElement, k65), omega55) {
		t.Error("unpackHint accepted count above omega")
	}

	// Indices not strictly increasing within a row.
	b = bytes.Clone(valid)
	b[1] = b[0] // second index of row 0 duplicates the first
	if unpackHint(b, make([][n]fieldElement, k65), omega55) {
		t.Error("unpackHint accepted non-increasing indices")
	}

	// Nonzero padding after the last index.
	b = bytes.Clone(valid)
	b[omega55-1] = 17
	if unpackHint(b, make([][n]fieldElement, k65), omega55) {
		t.Error("unpackHint accepted nonzero padding")
	}
}
