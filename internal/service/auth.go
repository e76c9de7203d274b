package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// Стоимость bcrypt и минимальный стартовый баланс (в минорных единицах).
const (
	bcryptCost        = 12
	minHolderNameLen  = 3
	maxHolderNameLen  = 50
	minInitialBalance = 100
)

// RegisterParams — параметры регистрации счёта.
type RegisterParams struct {
	HolderName string
	Password   string
	Balance    int64
	Address    models.Address
}

// RegisterAccount регистрирует новый счёт.
func (s *Service) RegisterAccount(ctx context.Context, params RegisterParams) (*models.Account, error) {
	const op = "service.auth.RegisterAccount"

	name, err := validateHolderName(params.HolderName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidName)
	}

	if len(params.Password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if params.Balance < minInitialBalance {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidBalance)
	}

	_, err = s.storage.AccountByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account := &models.Account{
		ID:           uuid.New(),
		HolderName:   name,
		Balance:      params.Balance,
		PasswordHash: hashedPassword,
		Address:      params.Address,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.storage.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrNameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// Login выполняет вход по имени владельца и паролю: на успех выдаёт
// access-токен и персистентный refresh-токен.
func (s *Service) Login(ctx context.Context, holderName, password string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.Login"

	name := strings.TrimSpace(holderName)
	if name == "" || len(password) == 0 {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	account, err := s.storage.AccountByName(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(account.PasswordHash, password) {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issueTokenPair(ctx, account)
}

// RefreshToken выпускает новый access-токен по действующему refresh-токену.
// Refresh-токен не ротируется: в ответ возвращается та же строка, и она
// остаётся валидной до исходного срока истечения.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.RefreshToken"

	token, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.storage.AccountByID(ctx, token.AccountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, uuid.Nil, fmt.Errorf("%s: %w", op, ErrAccountNotFound)
		}

		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	accessToken, err := s.generateAccessToken(ctx, account.ID, account.HolderName, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, account.ID, nil
}

// ValidateToken проверяет access-токен и возвращает данные владельца.
func (s *Service) ValidateToken(ctx context.Context, accessToken string) (uuid.UUID, string, error) {
	const op = "service.auth.ValidateToken"

	uid, name, err := s.validateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return uid, name, nil
}

// hashPassword хэширует пароль с помощью bcrypt (cost 12).
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateHolderName проверяет имя владельца и обрезает пробелы снаружи.
// Политика: длина от 3 до 50 рун.
func validateHolderName(raw string) (string, error) {
	const op = "service.auth.validateHolderName"

	name := strings.TrimSpace(raw)
	n := len([]rune(name))
	if n < minHolderNameLen || n > maxHolderNameLen {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidName)
	}

	return name, nil
}

// issueTokenPair выпускает пару access+refresh токенов.
func (s *Service) issueTokenPair(ctx context.Context, account *models.Account) (*models.TokenPair, uuid.UUID, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, account.ID, account.HolderName, now)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateRefreshToken(ctx, account.ID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    plain,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, account.ID, nil
}
