package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	internal_errors "github.com/facilform-dev/facilform/internal/errors"
	"github.com/facilform-dev/facilform/internal/logger"
)

// TokenService signs and verifies the anonymous session id carried in the
// form cookie.
type TokenService interface {
	NewToken(sid string) (string, error)
	DecodeToken(tokenStr string) (string, error)
}

type Token struct {
	secretKey string
	ttl       time.Duration
}

func NewTokenService(secretKey string, ttl time.Duration) TokenService {
	return &Token{secretKey, ttl}
}

func (t *Token) NewToken(sid string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"exp": time.Now().Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(t.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign session token", "err", err)
		return "", fmt.Errorf("can't create session token")
	}
	return tokenString, nil
}

func (t *Token) DecodeToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		// Verify signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{
				Message:    fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]),
				StatusCode: http.StatusUnauthorized,
			}
		}
		return []byte(t.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid session token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid session claims", StatusCode: http.StatusUnauthorized}
	}
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid session claims", StatusCode: http.StatusUnauthorized}
	}
	return sid, nil
}
