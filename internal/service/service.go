// service содержит бизнес-логику banking-сервиса:
// регистрацию счетов, аутентификацию по имени владельца и паролю,
// выпуск/проверку токенов, операции над балансом и работу с хранилищем
// через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Мутации баланса атомарны на уровне хранилища (условный UPDATE),
//     поэтому конкурирующие deposit/withdraw по одному счёту не теряют
//     обновления.
//   - Ошибки возвращаются и далее маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-banking-service/internal/cache"
	"github.com/pribylovaa/go-banking-service/internal/config"
	"github.com/pribylovaa/go-banking-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара имя/пароль неверна или счёт не найден.
	// На уровне транспорта маппится в HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — access-токен некорректен по формату/подписи.
	// Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Для refresh-токена
	// побочный эффект — удаление записи из хранилища. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotFound — предъявленный refresh-токен неизвестен хранилищу.
	// Транспорт: HTTP 401.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный refresh-токен
	// (редкий случай коллизий при сохранении хэша в БД после нескольких ретраев).
	// Транспорт: HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")

	// ErrAccountNotFound — счёт не существует. Транспорт: HTTP 404.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNameTaken — имя владельца уже занято другим счётом.
	// Транспорт: HTTP 409.
	ErrNameTaken = errors.New("holder name already taken")

	// ErrInsufficientFunds — на счёте меньше средств, чем запрошено к снятию.
	// Транспорт: HTTP 422.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccessDenied — владелец токена не совпадает с владельцем счёта
	// в защищённой операции. Транспорт: HTTP 403.
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidName — имя владельца не проходит политику валидации.
	// Транспорт: HTTP 400.
	ErrInvalidName = errors.New("invalid holder name")

	// ErrEmptyPassword — пароль пустой. Транспорт: HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrInvalidBalance — стартовый баланс меньше допустимого минимума.
	// Транспорт: HTTP 400.
	ErrInvalidBalance = errors.New("invalid initial balance")

	// ErrInvalidAmount — сумма операции не положительна.
	// Транспорт: HTTP 400.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInvalidSortField — неизвестное поле сортировки списка счетов.
	// Транспорт: HTTP 400.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// Service описывает бизнес-логику banking-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
