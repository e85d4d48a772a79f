package utils

import (
	"fmt"
	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/models"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateTokens generates both access and refresh tokens for an account.
func GenerateTokens(account *models.Account, cfg *config.Config) (accessToken string, refreshToken string, err error) {
	accessToken, err = signToken(account, cfg.JWTSecret, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err = signToken(account, cfg.JWTRefreshSecret, time.Duration(cfg.JWTRefreshExpirationHours)*time.Hour)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func signToken(account *models.Account, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: account.UserID,
		Role:   account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   account.UserID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token.
func ValidateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
