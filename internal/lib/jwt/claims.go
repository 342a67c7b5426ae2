package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims пользовательские поля токена.
type CustomClaims struct {
	UserUID         string `json:"uid"`
	Username        string `json:"username"`
	Role            string `json:"role"`
	ImpersonatorUID string `json:"imp,omitempty"`
	jwt.RegisteredClaims
}

// Subject возвращает данные владельца токена.
func (c *CustomClaims) Subject() Subject {
	return Subject{
		UserUID:         c.UserUID,
		Username:        c.Username,
		Role:            c.Role,
		ImpersonatorUID: c.ImpersonatorUID,
	}
}

// GenerateToken подписывает токен для subject со сроком жизни tokenTTL.
func (j *MakerImpl) GenerateToken(subject Subject) (string, error) {
	const op = "jwt.GenerateToken"

	now := time.Now()
	claims := CustomClaims{
		UserUID:         subject.UserUID,
		Username:        subject.Username,
		Role:            subject.Role,
		ImpersonatorUID: subject.ImpersonatorUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.UserUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.UserUID == "" {
		return nil, fmt.Errorf("%s: token has no subject", op)
	}
	return claims, nil
}
