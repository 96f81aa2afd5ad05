package mldsa

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestPublicKeyDERRoundtrip65(t *testing.T) {
	key, err := GenerateKey65(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	pk := key.PublicKey()

	der, err := pk.MarshalPublicKeyDER()
	if err != nil {
		t.Fatalf("MarshalPublicKeyDER failed: %v", err)
	}
	pk2, err := ParsePublicKey65DER(der)
	if err != nil {
		t.Fatalf("ParsePublicKey65DER failed: %v", err)
	}
	if !pk2.Equal(pk) {
		t.Error("DER roundtrip changed the public key")
	}

	// The same DER must not parse under the ML-DSA-87 OID.
	if _, err := ParsePublicKey87DER(der); err == nil {
		t.Error("ParsePublicKey87DER accepted an ML-DSA-65 key")
	}

	// Trailing garbage is rejected.
	if _, err := ParsePublicKey65DER(append(bytes.Clone(der), 0)); err == nil {
		t.Error("ParsePublicKey65DER accepted trailing bytes")
	}
}

func TestPrivateKeyDERRoundtrip65(t *testing.T) {
	key, err := NewKey65(make([]byte, SeedSize))
	if err != nil {
		t.Fatal(err)
	}

	der, err := key.MarshalPrivateKeyDER()
	if err != nil {
		t.Fatalf("MarshalPrivateKeyDER failed: %v", err)
	}
	key2, err := ParsePrivateKey65DER(der)
	if err != nil {
		t.Fatalf("ParsePrivateKey65DER failed: %v", err)
	}
	if !bytes.Equal(key.PrivateKeyBytes(), key2.PrivateKeyBytes()) {
		t.Error("DER roundtrip changed the private key")
	}
	if !bytes.Equal(key.Bytes(), key2.Bytes()) {
		t.Error("DER roundtrip changed the seed")
	}

	// A mismatched expanded key must be rejected: corrupt a byte inside
	// the expanded-key OCTET STRING (the DER tail).
	bad := bytes.Clone(der)
	bad[len(bad)-1] ^= 0xFF
	if _, err := ParsePrivateKey65DER(bad); err == nil {
		t.Error("ParsePrivateKey65DER accepted mismatched expanded key")
	}
}

func TestKeyPEMRoundtrip65(t *testing.T) {
	key, err := GenerateKey65(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	privPEM, err := key.MarshalPrivateKeyPEM()
	if err != nil {
		t.Fatal(err)
	}
	key2, err := ParsePrivateKey65PEM(privPEM)
	if err != nil {
		t.Fatalf("ParsePrivateKey65PEM failed: %v", err)
	}
	if !bytes.Equal(key.PrivateKeyBytes(), key2.PrivateKeyBytes()) {
		t.Error("PEM roundtrip changed the private key")
	}

	pubPEM, err := key.PublicKey().MarshalPublicKeyPEM()
	if err != nil {
		t.Fatal(err)
	}
	pk, err := ParsePublicKey65PEM(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicKey65PEM failed: %v", err)
	}
	if !pk.Equal(key.PublicKey()) {
		t.Error("PEM roundtrip changed the public key")
	}

	// A signature made with the parsed private key verifies under the
	// parsed public key.
	msg := []byte("pem transported")
	sig, err := key2.SignWithContext(rand.Reader, msg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !pk.Verify(sig, msg, nil) {
		t.Error("signature across PEM roundtrip does not verify")
	}

	// A private PEM does not parse as a public key.
	if _, err := ParsePublicKey65PEM(privPEM); err == nil {
		t.Error("ParsePublicKey65PEM accepted a private key block")
	}
}

func TestKeyDERRoundtrip87(t *testing.T) {
	key, err := NewKey87(make([]byte, SeedSize))
	if err != nil {
		t.Fatal(err)
	}

	der, err := key.MarshalPrivateKeyDER()
	if err != nil {
		t.Fatal(err)
	}
	key2, err := ParsePrivateKey87DER(der)
	if err != nil {
		t.Fatalf("ParsePrivateKey87DER failed: %v", err)
	}
	if !bytes.Equal(key.PrivateKeyBytes(), key2.PrivateKeyBytes()) {
		t.Error("DER roundtrip changed the private key")
	}

	pubDER, err := key.PublicKey().MarshalPublicKeyDER()
	if err != nil {
		t.Fatal(err)
	}
	pk, err := ParsePublicKey87DER(pubDER)
	if err != nil {
		t.Fatalf("ParsePublicKey87DER failed: %v", err)
	}
	if !pk.Equal(key.PublicKey()) {
		t.Error("DER roundtrip changed the public key")
	}
}
