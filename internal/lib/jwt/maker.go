// Package jwt выпускает и проверяет токены доступа платформы.
//
// Токен несёт идентификатор пользователя, его имя и роль. При входе
// администратора под учётной записью ученика в токен дополнительно
// записывается UID администратора.
package jwt

import (
	"time"
)

// Maker описывает генерацию и разбор токенов.
type Maker interface {
	GenerateToken(subject Subject) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// Subject данные, которые попадают в токен.
type Subject struct {
	UserUID         string
	Username        string
	Role            string
	ImpersonatorUID string
}

// MakerImpl подписывает токены секретным ключом HS256.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl с ключом подписи и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
