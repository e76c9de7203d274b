package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/storage"
)

// Значения по умолчанию и потолок постраничной выборки.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// AccountByID возвращает счёт по ID.
func (s *Service) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "service.account.AccountByID"

	account, err := s.storage.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// ListAccounts возвращает страницу счетов с опциональной сортировкой.
// Отрицательный offset сводится к нулю, неположительный limit — к значению
// по умолчанию; limit сверх потолка обрезается.
func (s *Service) ListAccounts(ctx context.Context, offset, limit int64, sort string) ([]models.Account, error) {
	const op = "service.account.ListAccounts"

	field, err := parseSortField(sort)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	accounts, err := s.storage.ListAccounts(ctx, storage.ListParams{
		Offset: offset,
		Limit:  limit,
		Sort:   field,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, nil
}

// DeleteAccount удаляет счёт по ID.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "service.account.DeleteAccount"

	if err := s.storage.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Deposit зачисляет amount на счёт и возвращает обновлённый снимок.
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount int64) (*models.Account, error) {
	const op = "service.account.Deposit"

	if amount <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	account, err := s.changeBalance(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// Withdraw списывает amount со счёта и возвращает обновлённый снимок.
// Если средств меньше amount — ErrInsufficientFunds, баланс не меняется.
func (s *Service) Withdraw(ctx context.Context, id uuid.UUID, amount int64) (*models.Account, error) {
	const op = "service.account.Withdraw"

	if amount <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	account, err := s.changeBalance(ctx, id, -amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// SecureDeposit — Deposit с проверкой, что вызывающий владеет счётом.
// callerName — имя из уже проверенного access-токена; сам токен в этот
// слой не попадает.
func (s *Service) SecureDeposit(ctx context.Context, id uuid.UUID, amount int64, callerName string) (*models.Account, error) {
	const op = "service.account.SecureDeposit"

	if amount <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	if err := s.checkOwnership(ctx, id, callerName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.changeBalance(ctx, id, amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// SecureWithdraw — Withdraw с проверкой, что вызывающий владеет счётом.
func (s *Service) SecureWithdraw(ctx context.Context, id uuid.UUID, amount int64, callerName string) (*models.Account, error) {
	const op = "service.account.SecureWithdraw"

	if amount <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAmount)
	}

	if err := s.checkOwnership(ctx, id, callerName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.changeBalance(ctx, id, -amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// changeBalance — общая часть мутаций: маппинг ошибок хранилища в доменные.
func (s *Service) changeBalance(ctx context.Context, id uuid.UUID, delta int64) (*models.Account, error) {
	account, err := s.storage.ChangeBalance(ctx, id, delta)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, storage.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		default:
			return nil, err
		}
	}

	return account, nil
}

// checkOwnership проверяет, что счёт существует и принадлежит callerName.
func (s *Service) checkOwnership(ctx context.Context, id uuid.UUID, callerName string) error {
	account, err := s.storage.AccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrAccountNotFound
		}

		return err
	}

	if account.HolderName != callerName {
		return ErrAccessDenied
	}

	return nil
}

// parseSortField валидирует пользовательское поле сортировки.
func parseSortField(raw string) (storage.SortField, error) {
	switch raw {
	case "":
		return storage.SortDefault, nil
	case "name", "holder_name":
		return storage.SortByName, nil
	case "balance":
		return storage.SortByBalance, nil
	case "created_at":
		return storage.SortByCreated, nil
	default:
		return storage.SortDefault, ErrInvalidSortField
	}
}
