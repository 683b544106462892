package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"order-verify-service/config"
)

var errInvalidToken = errors.New("invalid token")

// ParseToken validates a session token and returns the user ID carried in
// the user_id claim.
func ParseToken(tokenString string) (int64, error) {
	cfg := config.LoadConfig()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errInvalidToken
	}
	return int64(userID), nil
}
