// Package auth issues and validates the HS256 access tokens that identify
// feed and search requesters.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry is how long issued tokens stay valid. It also bounds
// the secret rotation window: once it elapses after a rotation, no token
// signed with the previous secret can still be live.
const AccessTokenExpiry = 15 * time.Minute

// DefaultLeeway absorbs small clock skew between issuer and validator.
const DefaultLeeway = 30 * time.Second

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptyUserID  = errors.New("userID cannot be empty")
)

// Claims carries the token payload. The user ID travels in the registered
// Subject claim; no custom claims are needed.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTService signs tokens with the current secret and validates against
// the current secret first, then the previous one when a rotation is in
// progress.
type JWTService struct {
	secrets [][]byte // current first, previous second when rotating
	leeway  time.Duration
}

// NewJWTService creates a single-key service.
func NewJWTService(secret string) *JWTService {
	return NewJWTServiceWithRotation(secret, "")
}

// NewJWTServiceWithRotation creates a service that accepts tokens signed
// with either secret while signing only with the current one. Pass an empty
// previousSecret when no rotation is in progress.
func NewJWTServiceWithRotation(currentSecret, previousSecret string) *JWTService {
	s := &JWTService{
		secrets: [][]byte{[]byte(currentSecret)},
		leeway:  DefaultLeeway,
	}
	if previousSecret != "" {
		s.secrets = append(s.secrets, []byte(previousSecret))
	}
	return s
}

// GenerateToken issues an access token for the given user.
func (s *JWTService) GenerateToken(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptyUserID
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secrets[0])
}

// ValidateToken verifies the signature and registered claims, trying each
// configured secret in order. Only HS256 signatures are accepted; an
// alg header naming anything else fails regardless of the signature.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	expired := false
	for _, secret := range s.secrets {
		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrInvalidToken
			}
			return secret, nil
		}, jwt.WithLeeway(s.leeway))

		if err == nil && token.Valid {
			if claims, ok := token.Claims.(*Claims); ok {
				return claims, nil
			}
			return nil, ErrInvalidToken
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			expired = true
		}
	}

	if expired {
		return nil, ErrExpiredToken
	}
	return nil, ErrInvalidToken
}
