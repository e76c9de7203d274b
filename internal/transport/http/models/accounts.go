// Входные/выходные модели под REST, зеркалят доменные модели.
package models

// AddressPayload — адрес владельца в запросах/ответах.
type AddressPayload struct {
	City        string `json:"city"`
	AddressType string `json:"address_type"`
}

type RegisterRequest struct {
	HolderName string         `json:"holder_name"`
	Password   string         `json:"password"`
	Balance    int64          `json:"balance"`
	Address    AddressPayload `json:"address"`
}

type LoginRequest struct {
	HolderName string `json:"holder_name"`
	Password   string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccountID       string `json:"account_id"`
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix UTC
}

// AmountRequest — тело deposit/withdraw. Сумма в минорных единицах.
type AmountRequest struct {
	Amount int64 `json:"amount"`
}

// AccountResponse — публичное представление счёта (без хэша пароля).
type AccountResponse struct {
	ID         string         `json:"id"`
	HolderName string         `json:"holder_name"`
	Balance    int64          `json:"balance"`
	Address    AddressPayload `json:"address"`
	CreatedAt  int64          `json:"created_at"` // Unix UTC
}

type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}
