package util

import (
	"errors"
	"time"

	"github.com/Dutta2005/TrustCircle/config"
	"github.com/dgrijalva/jwt-go"
)

// GenerateToken 签发携带用户ID的令牌，有效期由配置决定（默认7天）
func GenerateToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Duration(config.AppConfig.JWTExpireHours) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 校验令牌并返回用户ID
func ValidateToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(string)
		if !ok {
			return "", errors.New("无效的用户ID")
		}
		return userID, nil
	}

	return "", errors.New("无效的令牌")
}

// RefreshToken 用仍然有效的旧令牌换发新令牌
func RefreshToken(tokenString string) (string, error) {
	userID, err := ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return GenerateToken(userID)
}
