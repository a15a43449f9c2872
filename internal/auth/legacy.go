package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const legacyIssuer = "podcastr-api"

// LegacyClaims represents HMAC-signed tokens issued by this service
type LegacyClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// HMACVerifier validates legacy tokens signed with a shared secret
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Validate(tokenString string) (*Identity, error) {
	claims, err := ValidateLegacyToken(tokenString, v.secret)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return &Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// ValidateLegacyToken validates a token using HMAC signing
func ValidateLegacyToken(tokenString string, secret []byte) (*LegacyClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LegacyClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*LegacyClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// IssueLegacyToken signs a token for userID. Used by tests and local tooling.
func IssueLegacyToken(secret, userID, email string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNotConfigured
	}

	now := time.Now()
	claims := LegacyClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    legacyIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
