package mldsa

import (
	"bytes"
	"encoding/asn1"
	"encoding/pem"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Object identifiers from the NIST computer security objects register,
// as used by draft-ietf-lamps-dilithium-certificates.
var (
	// OID65 identifies ML-DSA-65: 2.16.840.1.101.3.4.3.18
	OID65 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 18}

	// OID87 identifies ML-DSA-87: 2.16.840.1.101.3.4.3.19
	OID87 = asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 3, 19}
)

// PEM block types for the encodings below.
const (
	pemTypePrivateKey = "PRIVATE KEY"
	pemTypePublicKey  = "PUBLIC KEY"
)

// marshalSPKI builds a SubjectPublicKeyInfo for the given algorithm OID and
// raw public key bytes.
func marshalSPKI(oid asn1.ObjectIdentifier, pub []byte) ([]byte, error) {
	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid)
		})
		b.AddASN1BitString(pub)
	})
	return b.Bytes()
}

// parseSPKI extracts the raw public key from a SubjectPublicKeyInfo,
// checking the algorithm OID.
func parseSPKI(oid asn1.ObjectIdentifier, der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var spki, alg cryptobyte.String
	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() ||
		!spki.ReadASN1(&alg, cbasn1.SEQUENCE) {
		return nil, errors.New("mldsa: invalid public key structure")
	}
	var gotOID asn1.ObjectIdentifier
	if !alg.ReadASN1ObjectIdentifier(&gotOID) || !alg.Empty() {
		return nil, errors.New("mldsa: invalid algorithm identifier")
	}
	if !gotOID.Equal(oid) {
		return nil, errors.New("mldsa: unexpected algorithm identifier")
	}
	var pub asn1.BitString
	if !spki.ReadASN1BitString(&pub) || !spki.Empty() {
		return nil, errors.New("mldsa: invalid public key structure")
	}
	if pub.BitLength%8 != 0 {
		return nil, errors.New("mldsa: public key is not byte aligned")
	}
	return pub.Bytes, nil
}

// marshalPKCS8 builds a PKCS#8 PrivateKeyInfo. The key material is a
// SEQUENCE of two OCTET STRINGs holding the 32-byte seed and the expanded
// private key, per draft-ietf-lamps-dilithium-certificates.
func marshalPKCS8(oid asn1.ObjectIdentifier, seed, expanded []byte) ([]byte, error) {
	var inner cryptobyte.Builder
	inner.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1OctetString(seed)
		b.AddASN1OctetString(expanded)
	})
	keyBytes, err := inner.Bytes()
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Int64(0) // version
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oid)
		})
		b.AddASN1OctetString(keyBytes)
	})
	return b.Bytes()
}

// parsePKCS8 extracts (seed, expanded) from a PKCS#8 PrivateKeyInfo,
// checking the version and algorithm OID.
func parsePKCS8(oid asn1.ObjectIdentifier, der []byte) (seed, expanded []byte, err error) {
	input := cryptobyte.String(der)
	var pki, alg cryptobyte.String
	var version int64
	if !input.ReadASN1(&pki, cbasn1.SEQUENCE) || !input.Empty() ||
		!pki.ReadASN1Integer(&version) ||
		!pki.ReadASN1(&alg, cbasn1.SEQUENCE) {
		return nil, nil, errors.New("mldsa: invalid private key structure")
	}
	if version != 0 {
		return nil, nil, errors.New("mldsa: unsupported private key version")
	}
	var gotOID asn1.ObjectIdentifier
	if !alg.ReadASN1ObjectIdentifier(&gotOID) || !alg.Empty() {
		return nil, nil, errors.New("mldsa: invalid algorithm identifier")
	}
	if !gotOID.Equal(oid) {
		return nil, nil, errors.New("mldsa: unexpected algorithm identifier")
	}
	var keyBytes cryptobyte.String
	if !pki.ReadASN1(&keyBytes, cbasn1.OCTET_STRING) {
		return nil, nil, errors.New("mldsa: invalid private key structure")
	}

	var inner, seedStr, expandedStr cryptobyte.String
	if !keyBytes.ReadASN1(&inner, cbasn1.SEQUENCE) || !keyBytes.Empty() ||
		!inner.ReadASN1(&seedStr, cbasn1.OCTET_STRING) ||
		!inner.ReadASN1(&expandedStr, cbasn1.OCTET_STRING) || !inner.Empty() {
		return nil, nil, errors.New("mldsa: invalid private key material")
	}
	if len(seedStr) != SeedSize {
		return nil, nil, errors.New("mldsa: private key seed must be 32 bytes")
	}
	return seedStr, expandedStr, nil
}

// MarshalPublicKeyDER encodes the public key as a DER SubjectPublicKeyInfo.
func (pk *PublicKey65) MarshalPublicKeyDER() ([]byte, error) {
	return marshalSPKI(OID65, pk.Bytes())
}

// MarshalPublicKeyDER encodes the public key as a DER SubjectPublicKeyInfo.
func (pk *PublicKey87) MarshalPublicKeyDER() ([]byte, error) {
	return marshalSPKI(OID87, pk.Bytes())
}

// ParsePublicKey65DER parses a DER SubjectPublicKeyInfo into a public key.
func ParsePublicKey65DER(der []byte) (*PublicKey65, error) {
	raw, err := parseSPKI(OID65, der)
	if err != nil {
		return nil, err
	}
	return NewPublicKey65(raw)
}

// ParsePublicKey87DER parses a DER SubjectPublicKeyInfo into a public key.
func ParsePublicKey87DER(der []byte) (*PublicKey87, error) {
	raw, err := parseSPKI(OID87, der)
	if err != nil {
		return nil, err
	}
	return NewPublicKey87(raw)
}

// MarshalPrivateKeyDER encodes the key pair as a PKCS#8 PrivateKeyInfo
// carrying both the seed and the expanded private key.
func (key *Key65) MarshalPrivateKeyDER() ([]byte, error) {
	return marshalPKCS8(OID65, key.seed[:], key.PrivateKeyBytes())
}

// MarshalPrivateKeyDER encodes the key pair as a PKCS#8 PrivateKeyInfo
// carrying both the seed and the expanded private key.
func (key *Key87) MarshalPrivateKeyDER() ([]byte, error) {
	return marshalPKCS8(OID87, key.seed[:], key.PrivateKeyBytes())
}

// ParsePrivateKey65DER parses a PKCS#8 PrivateKeyInfo. The key is
// regenerated from the embedded seed and checked against the embedded
// expanded form.
func ParsePrivateKey65DER(der []byte) (*Key65, error) {
	seed, expanded, err := parsePKCS8(OID65, der)
	if err != nil {
		return nil, err
	}
	key, err := NewKey65(seed)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(key.PrivateKeyBytes(), expanded) {
		return nil, errors.New("mldsa: expanded key does not match seed")
	}
	return key, nil
}

// ParsePrivateKey87DER parses a PKCS#8 PrivateKeyInfo. The key is
// regenerated from the embedded seed and checked against the embedded
// expanded form.
func ParsePrivateKey87DER(der []byte) (*Key87, error) {
	seed, expanded, err := parsePKCS8(OID87, der)
	if err != nil {
		return nil, err
	}
	key, err := NewKey87(seed)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(key.PrivateKeyBytes(), expanded) {
		return nil, errors.New("mldsa: expanded key does not match seed")
	}
	return key, nil
}

// MarshalPublicKeyPEM wraps the DER public key in a PEM block.
func (pk *PublicKey65) MarshalPublicKeyPEM() ([]byte, error) {
	der, err := pk.MarshalPublicKeyDER()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// MarshalPublicKeyPEM wraps the DER public key in a PEM block.
func (pk *PublicKey87) MarshalPublicKeyPEM() ([]byte, error) {
	der, err := pk.MarshalPublicKeyDER()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublicKey, Bytes: der}), nil
}

// MarshalPrivateKeyPEM wraps the PKCS#8 key in a PEM block.
func (key *Key65) MarshalPrivateKeyPEM() ([]byte, error) {
	der, err := key.MarshalPrivateKeyDER()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// MarshalPrivateKeyPEM wraps the PKCS#8 key in a PEM block.
func (key *Key87) MarshalPrivateKeyPEM() ([]byte, error) {
	der, err := key.MarshalPrivateKeyDER()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// decodePEM extracts a single PEM block of the expected type.
func decodePEM(data []byte, blockType string) ([]byte, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("mldsa: no PEM block found")
	}
	if block.Type != blockType {
		return nil, errors.New("mldsa: unexpected PEM block type " + block.Type)
	}
	return block.Bytes, nil
}

// ParsePublicKey65PEM parses a PEM-encoded public key.
func ParsePublicKey65PEM(data []byte) (*PublicKey65, error) {
	der, err := decodePEM(data, pemTypePublicKey)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey65DER(der)
}

// ParsePublicKey87PEM parses a PEM-encoded public key.
func ParsePublicKey87PEM(data []byte) (*PublicKey87, error) {
	der, err := decodePEM(data, pemTypePublicKey)
	if err != nil {
		return nil, err
	}
	return ParsePublicKey87DER(der)
}

// ParsePrivateKey65PEM parses a PEM-encoded PKCS#8 private key.
func ParsePrivateKey65PEM(data []byte) (*Key65, error) {
	der, err := decodePEM(data, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey65DER(der)
}

// ParsePrivateKey87PEM parses a PEM-encoded PKCS#8 private key.
func ParsePrivateKey87PEM(data []byte) (*Key87, error) {
	der, err := decodePEM(data, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey87DER(der)
}
