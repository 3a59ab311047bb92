package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret []byte

	ErrJWTDisabled  = errors.New("jwt: no secret configured")
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// InitJWT sets the signing secret. An empty secret leaves tokens disabled
// and every player anonymous.
func InitJWT(secret string) bool {
	jwtSecret = []byte(secret)
	return JWTEnabled()
}

func JWTEnabled() bool {
	return len(jwtSecret) > 0
}

func GenerateJWT(userID int64, ttl time.Duration) (string, error) {
	if !JWTEnabled() {
		return "", ErrJWTDisabled
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"nbf":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates tokenString and returns its user_id claim.
func ParseJWT(tokenString string) (int64, error) {
	if !JWTEnabled() {
		return 0, ErrJWTDisabled
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("jwt: user_id not found")
	}

	return int64(userID), nil
}
