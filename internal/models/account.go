package models

import (
	"time"

	"github.com/google/uuid"
)

// Address — адрес владельца счёта (опциональная часть анкеты).
type Address struct {
	City        string
	AddressType string
}

// Account — банковский счёт.
//
// Баланс хранится в минорных единицах (центах) и никогда не опускается
// ниже нуля: мутации выполняются условным UPDATE в хранилище,
// дополнительно подстрахованным CHECK-ограничением в БД.
type Account struct {
	ID           uuid.UUID
	HolderName   string
	Balance      int64
	PasswordHash string
	Address      Address
	CreatedAt    time.Time
}
