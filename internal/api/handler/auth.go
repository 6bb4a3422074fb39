package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// Auth failure messages are part of the client contract and match the
// rest of the service's Korean-facing errors.
var (
	errTokenMissing = errors.New("인증 토큰이 필요합니다")
	errTokenInvalid = errors.New("유효하지 않은 토큰입니다")
)

// bearerToken extracts the access token from the Authorization header or,
// for browser WebSocket clients that cannot set headers, from the "token"
// query parameter.
func bearerToken(c *gin.Context) (string, error) {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return "", errTokenInvalid
		}
		return strings.TrimPrefix(auth, "Bearer "), nil
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errTokenMissing
}

// verifyToken validates an HS256 access token issued by the auth service
// and returns the user id from its subject claim.
func (h *Handler) verifyToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, errTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errTokenInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errTokenInvalid
	}
	return int64(sub), nil
}
