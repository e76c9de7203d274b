package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (счёт/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (имя владельца/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
	// ErrInsufficientFunds — условное списание не прошло: на счёте меньше средств,
	// чем запрошено к снятию.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// SortField — допустимые поля сортировки списка счетов.
type SortField string

const (
	SortDefault   SortField = ""
	SortByName    SortField = "name"
	SortByBalance SortField = "balance"
	SortByCreated SortField = "created_at"
)

// ListParams — параметры постраничной выборки счетов.
type ListParams struct {
	Offset int64
	Limit  int64
	Sort   SortField
}

// AccountStorage выполняет операции над счетами.
type AccountStorage interface {
	// SaveAccount создает новый счёт в БД.
	SaveAccount(ctx context.Context, account *models.Account) error
	// AccountByID находит счёт по ID.
	AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// AccountByName находит счёт по имени владельца.
	AccountByName(ctx context.Context, name string) (*models.Account, error)
	// ListAccounts возвращает страницу счетов с опциональной сортировкой.
	ListAccounts(ctx context.Context, params ListParams) ([]models.Account, error)
	// ChangeBalance атомарно изменяет баланс на delta (может быть отрицательной)
	// и возвращает обновлённый счёт. Баланс не может стать отрицательным:
	// в этом случае возвращается ErrInsufficientFunds.
	ChangeBalance(ctx context.Context, id uuid.UUID, delta int64) (*models.Account, error)
	// DeleteAccount удаляет счёт по ID.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-token в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет refresh-токен по хэшу (ленивое удаление просроченного).
	DeleteRefreshToken(ctx context.Context, hash string) error
	// DeleteExpiredTokens удаляет все просроченные токены.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	AccountStorage
	RefreshTokenStorage
	Close()
}
