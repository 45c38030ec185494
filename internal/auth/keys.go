// AngelaMos | 2026
// keys.go

package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const (
	privateKeyMode = 0o600
	publicKeyMode  = 0o644
)

func newKeyID() string {
	return uuid.New().String()[:8]
}

// loadSigningKey reads an ES256 private key in PEM form and stamps it with
// a fresh key id. The id changes on every start, so clients should always
// resolve it through the JWKS endpoint.
func loadSigningKey(path string) (jwk.Key, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	key, err := jwk.ParseKey(raw, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	if err := stamp(key, jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, err
	}
	if err := stamp(key, jwk.KeyIDKey, newKeyID()); err != nil {
		return nil, err
	}
	return key, nil
}

func stamp(key jwk.Key, name string, value any) error {
	if err := key.Set(name, value); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

// publicSet derives the verification key and the JWKS document that
// publishes it.
func publicSet(private jwk.Key) (jwk.Key, jwk.Set, error) {
	public, err := private.PublicKey()
	if err != nil {
		return nil, nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := stamp(public, jwk.KeyUsageKey, "sig"); err != nil {
		return nil, nil, err
	}

	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		return nil, nil, fmt.Errorf("add key to set: %w", err)
	}
	return public, set, nil
}

// GenerateKeyPair writes a new P-256 key pair as PEM files.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}
	if err := stamp(private, jwk.KeyIDKey, newKeyID()); err != nil {
		return err
	}
	if err := stamp(private, jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return err
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(privateKeyPath, private, privateKeyMode); err != nil {
		return err
	}
	return writePEM(publicKeyPath, public, publicKeyMode)
}

func writePEM(path string, key jwk.Key, mode os.FileMode) error {
	encoded, err := jwk.Pem(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, encoded, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func (m *JWTManager) GetPublicKey() jwk.Key {
	return m.publicKey
}

func (m *JWTManager) GetKeyID() string {
	kid, _ := m.privateKey.KeyID()
	return kid
}
