package credential

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// KeyPair represents a public/private key pair for signing tokens
type KeyPair struct {
	KeyID      string
	PrivateKey crypto.PrivateKey
	PublicKey  crypto.PublicKey
}

// GenerateRSAKeyPair generates a new RSA key pair for RS256 signing
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}

	return &KeyPair{
		KeyID:      keyID,
		PrivateKey: privateKey,
		PublicKey:  &privateKey.PublicKey,
	}, nil
}

// Sign mints an RS256 token carrying the key id header. Used to issue local development tokens.
func (kp *KeyPair) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kp.KeyID

	signedToken, err := token.SignedString(kp.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

// ExportPublicKeyPEM exports the public key as PEM
func (kp *KeyPair) ExportPublicKeyPEM() (string, error) {
	pubKeyBytes, err := x509.MarshalPKIXPublicKey(kp.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}

	pubKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubKeyBytes,
	})

	return string(pubKeyPEM), nil
}

// ParsePublicKeysPEM reads every PUBLIC KEY and CERTIFICATE block in pemData.
func ParsePublicKeysPEM(pemData string) ([]crypto.PublicKey, error) {
	var keys []crypto.PublicKey
	rest := []byte(pemData)
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		switch block.Type {
		case "PUBLIC KEY":
			key, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse public key: %w", err)
			}
			keys = append(keys, key)
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse certificate: %w", err)
			}
			keys = append(keys, cert.PublicKey)
		}
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("no public keys found in PEM data")
	}
	return keys, nil
}

// NewStaticKeySet trusts exactly the keys in pemData.
func NewStaticKeySet(pemData string) (oidc.KeySet, error) {
	keys, err := ParsePublicKeysPEM(pemData)
	if err != nil {
		return nil, fmt.Errorf("[credential NewStaticKeySet] %w", err)
	}
	return &oidc.StaticKeySet{PublicKeys: keys}, nil
}

// NewRemoteKeySet trusts the issuer's published JWKS. When jwksURL is empty it is
// taken from the issuer's discovery document.
func NewRemoteKeySet(ctx context.Context, issuer, jwksURL string) (oidc.KeySet, error) {
	if jwksURL == "" {
		// Multi-tenant authorities publish a templated issuer in their discovery document
		provider, err := oidc.NewProvider(oidc.InsecureIssuerURLContext(ctx, issuer), issuer)
		if err != nil {
			return nil, fmt.Errorf("[credential NewRemoteKeySet] failed to create OIDC provider: %w", err)
		}

		var discovery struct {
			JWKSURL string `json:"jwks_uri"`
		}
		if err := provider.Claims(&discovery); err != nil {
			return nil, fmt.Errorf("[credential NewRemoteKeySet] failed to read discovery document: %w", err)
		}
		jwksURL = discovery.JWKSURL
	}

	if jwksURL == "" {
		return nil, fmt.Errorf("[credential NewRemoteKeySet] issuer %s publishes no jwks_uri", issuer)
	}

	return oidc.NewRemoteKeySet(ctx, jwksURL), nil
}
