package models

import (
	"github.com/google/uuid"
	domain "github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/service"
)

func (m AddressPayload) ToDomain() domain.Address {
	return domain.Address{
		City:        m.City,
		AddressType: m.AddressType,
	}
}

func (m RegisterRequest) ToParams() service.RegisterParams {
	return service.RegisterParams{
		HolderName: m.HolderName,
		Password:   m.Password,
		Balance:    m.Balance,
		Address:    m.Address.ToDomain(),
	}
}

func AccountFromDomain(a *domain.Account) AccountResponse {
	if a == nil {
		return AccountResponse{}
	}

	return AccountResponse{
		ID:         a.ID.String(),
		HolderName: a.HolderName,
		Balance:    a.Balance,
		Address: AddressPayload{
			City:        a.Address.City,
			AddressType: a.Address.AddressType,
		},
		CreatedAt: a.CreatedAt.Unix(),
	}
}

func AccountListFromDomain(accounts []domain.Account) AccountListResponse {
	out := AccountListResponse{
		Accounts: make([]AccountResponse, 0, len(accounts)),
	}
	for i := range accounts {
		out.Accounts = append(out.Accounts, AccountFromDomain(&accounts[i]))
	}

	return out
}

func TokenPairFromDomain(tp *domain.TokenPair, accountID uuid.UUID) TokenResponse {
	if tp == nil {
		return TokenResponse{}
	}

	return TokenResponse{
		AccountID:       accountID.String(),
		AccessToken:     tp.AccessToken,
		RefreshToken:    tp.RefreshToken,
		AccessExpiresAt: tp.AccessExpiresAt.Unix(),
	}
}
