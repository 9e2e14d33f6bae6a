package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		t.Fatal(err)
	}
}

func TestLoadKeys(t *testing.T) {
	dir := t.TempDir()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	privPath := filepath.Join(dir, "signing.pem")
	writePEM(t, privPath, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(priv))

	// A retired key kept only for verification.
	retired, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pubDir := filepath.Join(dir, "retired")
	if err := os.Mkdir(pubDir, 0o755); err != nil {
		t.Fatal(err)
	}
	retiredDER, err := x509.MarshalPKIXPublicKey(&retired.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	writePEM(t, filepath.Join(pubDir, "old.pem"), "PUBLIC KEY", retiredDER)

	kp, err := LoadKeys(privPath, pubDir)
	if err != nil {
		t.Fatalf("LoadKeys() error = %v", err)
	}

	kid, signing := kp.SigningKey()
	if kid == "" || signing == nil {
		t.Fatal("missing signing key")
	}
	if !signing.Equal(priv) {
		t.Error("signing key does not match the loaded file")
	}
	if _, ok := kp.VerificationKey(kid); !ok {
		t.Error("active key not present in verification set")
	}

	retiredKid, err := keyID(&retired.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := kp.VerificationKey(retiredKid); !ok {
		t.Error("retired key not present in verification set")
	}
	if _, ok := kp.VerificationKey("unknown"); ok {
		t.Error("unknown kid resolved to a key")
	}
}

func TestLoadKeysMissingFile(t *testing.T) {
	if _, err := LoadKeys(filepath.Join(t.TempDir(), "absent.pem"), ""); err == nil {
		t.Fatal("LoadKeys() error = nil, want error")
	}
}

func TestKeyIDStable(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	a, err := keyID(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := keyID(&priv.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("keyID not deterministic: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("keyID length = %d, want 16", len(a))
	}
}

func TestJWKS(t *testing.T) {
	kp := testKeys(t)
	set := kp.JWKS()
	if len(set.Keys) != 1 {
		t.Fatalf("keys = %d, want 1", len(set.Keys))
	}
	k := set.Keys[0]
	kid, _ := kp.SigningKey()
	if k.Kid != kid {
		t.Errorf("kid = %q, want %q", k.Kid, kid)
	}
	if k.Kty != "RSA" || k.Use != "sig" || k.Alg != "RS256" {
		t.Errorf("unexpected key parameters: %+v", k)
	}
	if k.N == "" || k.E == "" {
		t.Error("missing modulus or exponent")
	}
	// AQAB is the base64url form of the common exponent 65537.
	if k.E != "AQAB" {
		t.Errorf("e = %q, want AQAB", k.E)
	}
}
