package utils

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 72 * time.Hour

var ErrUnsupportedToken = errors.New("unsupported token algorithm")

// Claims is carried by locally issued HS256 tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserID reads the numeric subject.
func (c *Claims) UserID() uint {
	id, _ := strconv.ParseUint(c.Subject, 10, 64)
	return uint(id)
}

// ClerkClaims is the subset of a Clerk session token we rely on. Email is
// only present when the Clerk JWT template adds it.
type ClerkClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

func GenerateJWT(secret string, userID uint, email, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseClerkKey loads the PEM public key shown in the Clerk dashboard.
func ParseClerkKey(pem string) (*rsa.PublicKey, error) {
	if pem == "" {
		return nil, nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("parse clerk key: %w", err)
	}
	return key, nil
}

func ParseClerkToken(key *rsa.PublicKey, tokenString string) (*ClerkClaims, error) {
	if key == nil {
		return nil, ErrUnsupportedToken
	}
	claims := &ClerkClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithLeeway(5*time.Second))
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("clerk token has no subject")
	}
	return claims, nil
}

// TokenAlgorithm reads the alg header without verifying the signature.
func TokenAlgorithm(tokenString string) (string, error) {
	t, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return "", err
	}
	return t.Method.Alg(), nil
}
