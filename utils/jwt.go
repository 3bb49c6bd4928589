package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what a verified token says about its bearer.
type Claims struct {
	UserID int64
	Email  string
	Guest  bool
}

// Tokens signs and verifies HS256 identity tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) Generate(email string, userId int64, guest bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email":  email,
		"userId": userId,
		"guest":  guest,
		"exp":    time.Now().Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

// Verify checks signature, algorithm and expiry and returns the claims.
func (t *Tokens) Verify(token string) (Claims, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return Claims{}, errors.New("could not parse token")
	}
	if !parsedToken.Valid {
		return Claims{}, errors.New("invalid token")
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid token claims")
	}
	uid, ok := mc["userId"].(float64)
	if !ok || uid <= 0 {
		return Claims{}, errors.New("invalid token claims")
	}
	email, _ := mc["email"].(string)
	guest, _ := mc["guest"].(bool)
	return Claims{UserID: int64(uid), Email: email, Guest: guest}, nil
}
