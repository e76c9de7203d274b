package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/storage"
)

const accountColumns = "id, holder_name, balance, password_hash, city, address_type, created_at"

func scanAccount(row pgx.Row, a *models.Account) error {
	return row.Scan(
		&a.ID,
		&a.HolderName,
		&a.Balance,
		&a.PasswordHash,
		&a.Address.City,
		&a.Address.AddressType,
		&a.CreatedAt,
	)
}

// SaveAccount создает новый счёт в БД.
func (s *Storage) SaveAccount(ctx context.Context, account *models.Account) error {
	const op = "storage.postgres.SaveAccount"

	query := `
		INSERT INTO accounts(id, holder_name, balance, password_hash, city, address_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		account.ID,
		account.HolderName,
		account.Balance,
		account.PasswordHash,
		account.Address.City,
		account.Address.AddressType,
		account.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AccountByID находит счёт по ID.
func (s *Storage) AccountByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage.postgres.AccountByID"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	var account models.Account
	if err := scanAccount(s.db.QueryRow(ctx, query, id), &account); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &account, nil
}

// AccountByName находит счёт по имени владельца (регистронезависимо, CITEXT).
func (s *Storage) AccountByName(ctx context.Context, name string) (*models.Account, error) {
	const op = "storage.postgres.AccountByName"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE holder_name = $1
	`

	var account models.Account
	if err := scanAccount(s.db.QueryRow(ctx, query, name), &account); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &account, nil
}

// sortClause — маппинг поля сортировки в ORDER BY.
// Поле уже провалидировано сервисным слоем; неизвестные значения
// сводятся к порядку по created_at, чтобы никакой пользовательский
// ввод не попадал в текст запроса.
func sortClause(sort storage.SortField) string {
	switch sort {
	case storage.SortByName:
		return "holder_name ASC, id ASC"
	case storage.SortByBalance:
		return "balance ASC, id ASC"
	default:
		return "created_at ASC, id ASC"
	}
}

// ListAccounts возвращает страницу счетов с опциональной сортировкой.
func (s *Storage) ListAccounts(ctx context.Context, params storage.ListParams) ([]models.Account, error) {
	const op = "storage.postgres.ListAccounts"

	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY ` + sortClause(params.Sort) + `
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	accounts := make([]models.Account, 0, params.Limit)
	for rows.Next() {
		var account models.Account
		if err := scanAccount(rows, &account); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return accounts, nil
}

// ChangeBalance атомарно изменяет баланс на delta и возвращает обновлённый счёт.
//
// Условный UPDATE не даёт балансу уйти в минус и закрывает гонку
// конкурирующих read-modify-write мутаций одной строкой. Если строка
// не изменилась, дополнительный SELECT различает два исхода:
//
//	счёт отсутствует            — ErrNotFound;
//	средств меньше, чем |delta| — ErrInsufficientFunds.
func (s *Storage) ChangeBalance(ctx context.Context, id uuid.UUID, delta int64) (*models.Account, error) {
	const op = "storage.postgres.ChangeBalance"

	const upd = `
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING ` + accountColumns + `
	`

	var account models.Account
	err := scanAccount(s.db.QueryRow(ctx, upd, id, delta), &account)
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	const sel = `
		SELECT balance
		FROM accounts
		WHERE id = $1
	`

	var balance int64
	err = s.db.QueryRow(ctx, sel, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrInsufficientFunds)
}

// DeleteAccount удаляет счёт по ID.
func (s *Storage) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteAccount"

	query := `
		DELETE FROM accounts
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
