package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — данные refresh-токена.
//
// В БД хранится только SHA-256 хэш секрета; исходную строку клиент
// получает один раз при выпуске. Токен не ротируется при использовании
// и остаётся валидным до ExpiresAt; просроченный токен удаляется
// лениво — в момент обнаружения при обновлении.
type RefreshToken struct {
	TokenHash string
	AccountID uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}
