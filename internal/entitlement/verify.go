package entitlement

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verification errors. Callers only ever need to know a record failed; the
// reconciler logs the cause and drops the record silently.
var (
	ErrUnverified   = errors.New("entitlement record failed verification")
	ErrMissingClaim = errors.New("entitlement record missing required claim")
)

// JWSVerifier verifies entitlement records as ES256-signed JWS tokens
// against the pinned platform public key. This is a trust boundary: an
// unverifiable record is excluded even when its product id is known.
type JWSVerifier struct {
	key *ecdsa.PublicKey
}

// NewJWSVerifier pins the platform's ECDSA public key.
func NewJWSVerifier(key *ecdsa.PublicKey) *JWSVerifier {
	return &JWSVerifier{key: key}
}

// DefaultTrustKeyPEM is the production storefront signing key. A deployment
// can point storefront.trust_key_file at a different PEM, e.g. against a
// staging storefront.
const DefaultTrustKeyPEM = `-----BEGIN PUBLIC KEY-----
MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAEDPMTpn7ebaok4IoEALJBF3Pi8OuM
yBOzHaVnq2aNT5l84QA815bCDg6qGnTOQHAYS0jpek1I0MwKSyx/G+rk1g==
-----END PUBLIC KEY-----
`

// ParseTrustKey loads an ECDSA public key from PEM.
func ParseTrustKey(pemBytes []byte) (*ecdsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("trust key: no PEM block")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("trust key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("trust key: not an ECDSA public key")
	}
	return key, nil
}

// Verify checks the record's signature and expiry and extracts its claims.
func (v *JWSVerifier) Verify(rec SignedRecord) (Record, error) {
	token, err := jwt.Parse(string(rec), func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnverified, err)
	}
	if !token.Valid {
		return Record{}, ErrUnverified
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Record{}, ErrUnverified
	}
	productID, ok := claims["product_id"].(string)
	if !ok || productID == "" {
		return Record{}, fmt.Errorf("%w: product_id", ErrMissingClaim)
	}
	transactionID, _ := claims["transaction_id"].(string)

	return Record{ProductID: productID, TransactionID: transactionID}, nil
}
