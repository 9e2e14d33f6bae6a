package auth

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
)

// KeyProvider holds the process-wide RSA key material. Exactly one private
// key signs new tokens; any number of retired public keys remain available
// for verification so that rotating the signing key does not invalidate
// live tokens. The provider is read-only after construction — rotation is
// an operational action (drop in a new key file, restart), never something
// request handling mutates.
type KeyProvider struct {
	kid     string
	private *rsa.PrivateKey
	public  map[string]*rsa.PublicKey
}

// LoadKeys reads the active signing key from privateKeyFile (PEM, PKCS#1 or
// PKCS#8) and, when publicKeyDir is non-empty, every *.pem public key in
// that directory as an additional verification key. Key ids are derived
// from the public key bytes so every process computes the same id for the
// same key.
func LoadKeys(privateKeyFile, publicKeyDir string) (*KeyProvider, error) {
	raw, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	priv, err := parsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", privateKeyFile, err)
	}

	kid, err := keyID(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	kp := &KeyProvider{
		kid:     kid,
		private: priv,
		public:  map[string]*rsa.PublicKey{kid: &priv.PublicKey},
	}

	if publicKeyDir != "" {
		entries, err := filepath.Glob(filepath.Join(publicKeyDir, "*.pem"))
		if err != nil {
			return nil, err
		}
		for _, path := range entries {
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read public key: %w", err)
			}
			pub, err := parsePublicKey(raw)
			if err != nil {
				return nil, fmt.Errorf("parse public key %s: %w", path, err)
			}
			id, err := keyID(pub)
			if err != nil {
				return nil, err
			}
			kp.public[id] = pub
		}
	}
	return kp, nil
}

// NewKeyProvider wraps an in-memory private key. Used by tests and by any
// embedder that manages key files itself.
func NewKeyProvider(priv *rsa.PrivateKey) (*KeyProvider, error) {
	kid, err := keyID(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyProvider{
		kid:     kid,
		private: priv,
		public:  map[string]*rsa.PublicKey{kid: &priv.PublicKey},
	}, nil
}

// AddVerificationKey registers a retired public key. Only valid during
// startup wiring, before the provider is shared across goroutines.
func (k *KeyProvider) AddVerificationKey(pub *rsa.PublicKey) error {
	id, err := keyID(pub)
	if err != nil {
		return err
	}
	k.public[id] = pub
	return nil
}

// SigningKey returns the active key id and private key.
func (k *KeyProvider) SigningKey() (string, *rsa.PrivateKey) {
	return k.kid, k.private
}

// VerificationKey returns the public key for the given key id, or false
// when no such key is known.
func (k *KeyProvider) VerificationKey(kid string) (*rsa.PublicKey, bool) {
	pub, ok := k.public[kid]
	return pub, ok
}

// JSONWebKey is the published form of a single RSA verification key
// (RFC 7517). Only the public parameters appear here.
type JSONWebKey struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JSONWebKeySet is the body served from the well-known key-set endpoint.
type JSONWebKeySet struct {
	Keys []JSONWebKey `json:"keys"`
}

// JWKS returns every verification key in key-set form so other verifier
// processes can validate tokens signed here without sharing key files.
func (k *KeyProvider) JWKS() JSONWebKeySet {
	set := JSONWebKeySet{Keys: make([]JSONWebKey, 0, len(k.public))}
	for kid, pub := range k.public {
		set.Keys = append(set.Keys, JSONWebKey{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return set
}

// keyID derives a stable identifier from the SHA-256 of the DER-encoded
// public key, truncated to 16 hex characters.
func keyID(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])[:16], nil
}

func parsePrivateKey(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key")
	}
	return priv, nil
}

func parsePublicKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	if strings.Contains(block.Type, "RSA PUBLIC KEY") {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return pub, nil
}
