package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way a bearer token can be unusable: bad
// signature, expired, malformed. Callers get no more detail than that.
var ErrInvalidToken = errors.New("invalid token")

// TokenService issues and validates the HS256 access tokens used by the API.
type TokenService struct {
	secret []byte
	expire time.Duration
}

// Claims carries the authenticated user id.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// NewTokenService builds a TokenService with the given signing secret and
// access-token lifetime in hours.
func NewTokenService(secret string, expireHours int) *TokenService {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &TokenService{
		secret: []byte(secret),
		expire: time.Duration(expireHours) * time.Hour,
	}
}

// Generate signs a fresh access token for the user.
func (t *TokenService) Generate(userID string) (string, time.Time, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expire)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   "access",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Validate parses and verifies a token string and returns its claims.
func (t *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
