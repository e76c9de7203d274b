package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/cache"
	"github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/pkg/log"
	"github.com/pribylovaa/go-banking-service/internal/storage"
)

type accessClaims struct {
	AccountID  string `json:"uid"`
	HolderName string `json:"name"`
	jwt.RegisteredClaims
}

// hashRefreshToken — SHA-256 от исходной строки токена в base64url.
// В хранилище и кэше токен фигурирует только в таком виде.
func hashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateAccessToken генерирует access-токен.
func (s *Service) generateAccessToken(ctx context.Context, accountID uuid.UUID, holderName string, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		AccountID:  accountID.String(),
		HolderName: holderName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   accountID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken валидирует access-токен.
func (s *Service) validateAccessToken(tokenStr string) (uuid.UUID, string, error) {
	const op = "service.token.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, claims.HolderName, nil
}

// generateRefreshToken создает новый refresh-токен.
// Одновременные вызовы для одного счёта допустимы: каждый порождает
// отдельный токен, ранее выданные не отзываются.
func (s *Service) generateRefreshToken(ctx context.Context, accountID uuid.UUID) (string, error) {
	const (
		op          = "service.token.generateRefreshToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)
		hash := hashRefreshToken(plain)

		now := time.Now().UTC()
		token := &models.RefreshToken{
			TokenHash: hash,
			AccountID: accountID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		// Write-through в кэш; промах кэша не фатален.
		if s.rcache != nil {
			entry := &cache.RefreshEntry{AccountID: accountID, ExpiresAt: token.ExpiresAt}
			if err := s.rcache.Set(ctx, hash, entry, s.cfg.RefreshTokenTTL); err != nil {
				lg.Warn("refresh_cache_set_failed",
					slog.String("op", op),
					slog.String("err", err.Error()),
				)
			}
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// validateRefreshToken валидирует refresh-токен и возвращает его запись.
// Просроченный токен удаляется из хранилища и кэша как побочный эффект
// (ленивое удаление), после чего возвращается ErrTokenExpired.
func (s *Service) validateRefreshToken(ctx context.Context, plain string) (*models.RefreshToken, error) {
	const op = "service.token.validateRefreshToken"

	lg := log.From(ctx)

	hash := hashRefreshToken(plain)

	token, err := s.lookupRefreshToken(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found",
				slog.String("op", op),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrTokenNotFound)
		}

		lg.Error("refresh_lookup_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if time.Now().UTC().After(token.ExpiresAt) {
		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.String("account_id", token.AccountID.String()),
		)
		s.purgeRefreshToken(ctx, hash)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	return token, nil
}

// lookupRefreshToken — чтение записи токена: сначала кэш, затем БД
// с обратной записью в кэш.
func (s *Service) lookupRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error) {
	if s.rcache != nil {
		if entry, ok, err := s.rcache.Get(ctx, hash); err == nil && ok {
			return &models.RefreshToken{
				TokenHash: hash,
				AccountID: entry.AccountID,
				ExpiresAt: entry.ExpiresAt,
			}, nil
		}
	}

	token, err := s.storage.RefreshTokenByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.rcache != nil {
		ttl := time.Until(token.ExpiresAt)
		if ttl > 0 {
			entry := &cache.RefreshEntry{AccountID: token.AccountID, ExpiresAt: token.ExpiresAt}
			_ = s.rcache.Set(ctx, hash, entry, ttl)
		}
	}

	return token, nil
}

// purgeRefreshToken удаляет просроченный токен из хранилища и кэша.
// Конкурирующее удаление того же токена — не ошибка.
func (s *Service) purgeRefreshToken(ctx context.Context, hash string) {
	lg := log.From(ctx)

	if err := s.storage.DeleteRefreshToken(ctx, hash); err != nil && !errors.Is(err, storage.ErrNotFound) {
		lg.Error("refresh_purge_failed",
			slog.String("err", err.Error()),
		)
	}

	if s.rcache != nil {
		if err := s.rcache.Delete(ctx, hash); err != nil {
			lg.Warn("refresh_cache_delete_failed",
				slog.String("err", err.Error()),
			)
		}
	}
}
