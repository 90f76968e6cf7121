package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identifies the account a token was issued to.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
}

// Tokens issues and verifies HS256 access tokens.
type Tokens struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokens(secret string, expiry time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (t *Tokens) Expiry() time.Duration { return t.expiry }

// Issue signs a token for the account.
func (t *Tokens) Issue(accountID uuid.UUID, username string) (string, error) {
	now := t.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
		AccountID: accountID.String(),
		Username:  username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token, accepting only HS256.
func (t *Tokens) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, err := uuid.Parse(claims.AccountID); err != nil {
		return nil, fmt.Errorf("invalid account id in token: %w", err)
	}
	return claims, nil
}
