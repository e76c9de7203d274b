package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/cache"
	"github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_AndValidate_OK(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	uid := uuid.New()
	name := "Nishan"
	now := time.Now().UTC()

	at, err := svc.generateAccessToken(ctx, uid, name, now)
	require.NoError(t, err)

	vUID, vName, err := svc.validateAccessToken(at)
	require.NoError(t, err)
	require.Equal(t, uid, vUID)
	require.Equal(t, name, vName)
}

func TestValidateAccessToken_WrongAlg_WrongIssuer_WrongAudience(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	secret := []byte(testCfg().JWTSecret)
	uid := uuid.New()
	now := time.Now().UTC()

	t.Run("wrong alg", func(t *testing.T) {
		claims := jwt.MapClaims{
			"uid":  uid.String(),
			"name": "Nishan",
			"iss":  testCfg().Issuer,
			"sub":  uid.String(),
			"aud":  testCfg().Audience,
			"exp":  now.Add(testCfg().AccessTokenTTL).Unix(),
			"iat":  now.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := jwt.MapClaims{
			"uid":  uid.String(),
			"name": "Nishan",
			"iss":  "another-issuer",
			"sub":  uid.String(),
			"aud":  testCfg().Audience,
			"exp":  now.Add(testCfg().AccessTokenTTL).Unix(),
			"iat":  now.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		claims := jwt.MapClaims{
			"uid":  uid.String(),
			"name": "Nishan",
			"iss":  testCfg().Issuer,
			"sub":  uid.String(),
			"aud":  []string{"unexpected-aud"},
			"exp":  now.Add(testCfg().AccessTokenTTL).Unix(),
			"iat":  now.Unix(),
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(secret)
		require.NoError(t, err)

		_, _, err = svc.validateAccessToken(signed)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestValidateAccessToken_InvalidUIDClaim(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	secret := []byte(testCfg().JWTSecret)
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"uid":  "not-a-uuid",
		"name": "Nishan",
		"iss":  testCfg().Issuer,
		"sub":  "not-a-uuid",
		"aud":  testCfg().Audience,
		"exp":  now.Add(testCfg().AccessTokenTTL).Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)

	_, _, err = svc.validateAccessToken(signed)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateRefreshToken_SavesHash_AndRespectsTTL(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	accountID := uuid.New()

	var saved *models.RefreshToken
	st.
		EXPECT().
		SaveRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *models.RefreshToken) error {
			saved = rt
			return nil
		})

	plain, err := svc.generateRefreshToken(ctx, accountID)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(plain))
	expectedHash := base64.RawURLEncoding.EncodeToString(sum[:])
	require.Equal(t, expectedHash, saved.TokenHash)

	require.WithinDuration(t, saved.CreatedAt.Add(svc.cfg.RefreshTokenTTL), saved.ExpiresAt, time.Second)

	require.Equal(t, accountID, saved.AccountID)
}

func TestGenerateRefreshToken_CollisionRetries_ThenSuccess(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	gomock.InOrder(
		st.EXPECT().
			SaveRefreshToken(gomock.Any(), gomock.Any()).
			Return(fmtWrap(storage.ErrAlreadyExists)),
		st.EXPECT().
			SaveRefreshToken(gomock.Any(), gomock.Any()).
			Return(nil),
	)

	plain, err := svc.generateRefreshToken(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotEmpty(t, plain)
}

func TestGenerateRefreshToken_CollisionExceeded_ReturnsErr(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	for i := 0; i < 5; i++ {
		st.EXPECT().
			SaveRefreshToken(gomock.Any(), gomock.Any()).
			Return(fmtWrap(storage.ErrAlreadyExists))
	}

	_, err := svc.generateRefreshToken(context.Background(), uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRefreshTokenCollision)
}

func TestGenerateRefreshToken_StorageOtherError_IsPropagated(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().
		SaveRefreshToken(gomock.Any(), gomock.Any()).
		Return(errors.New("db down"))

	_, err := svc.generateRefreshToken(context.Background(), uuid.New())
	require.Error(t, err)

	require.NotErrorIs(t, err, ErrRefreshTokenCollision)
}

func TestValidateRefreshToken_Success(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	accountID := uuid.New()
	plain := "refresh-plain-example"
	sum := sha256.Sum256([]byte(plain))
	expectedHash := base64.RawURLEncoding.EncodeToString(sum[:])

	var lookupHash string
	st.
		EXPECT().
		RefreshTokenByHash(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, h string) (*models.RefreshToken, error) {
			lookupHash = h
			return &models.RefreshToken{
				TokenHash: expectedHash,
				AccountID: accountID,
				CreatedAt: time.Now().UTC().Add(-time.Minute),
				ExpiresAt: time.Now().UTC().Add(time.Hour),
			}, nil
		})

	token, err := svc.validateRefreshToken(context.Background(), plain)
	require.NoError(t, err)
	require.Equal(t, expectedHash, lookupHash)
	require.Equal(t, accountID, token.AccountID)
}

func TestValidateRefreshToken_NotFound(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().
		RefreshTokenByHash(gomock.Any(), gomock.Any()).
		Return(nil, fmtWrap(storage.ErrNotFound))

	_, err := svc.validateRefreshToken(context.Background(), "any")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestValidateRefreshToken_Expired_PurgesToken(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	plain := "any"
	sum := sha256.Sum256([]byte(plain))
	hash := base64.RawURLEncoding.EncodeToString(sum[:])

	st.EXPECT().
		RefreshTokenByHash(gomock.Any(), hash).
		Return(&models.RefreshToken{
			TokenHash: hash,
			AccountID: uuid.New(),
			CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}, nil)

	// Ленивое удаление: просроченный токен вычищается при предъявлении.
	st.EXPECT().DeleteRefreshToken(gomock.Any(), hash).Return(nil)

	_, err := svc.validateRefreshToken(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRefreshToken_PurgeConcurrentDelete_NotAnError(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	plain := "any"
	sum := sha256.Sum256([]byte(plain))
	hash := base64.RawURLEncoding.EncodeToString(sum[:])

	st.EXPECT().
		RefreshTokenByHash(gomock.Any(), hash).
		Return(&models.RefreshToken{
			TokenHash: hash,
			AccountID: uuid.New(),
			ExpiresAt: time.Now().UTC().Add(-time.Minute),
		}, nil)

	// Конкурент успел удалить первым — всё равно ErrTokenExpired без паники.
	st.EXPECT().DeleteRefreshToken(gomock.Any(), hash).Return(storage.ErrNotFound)

	_, err := svc.validateRefreshToken(context.Background(), plain)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateRefreshToken_StorageError(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().
		RefreshTokenByHash(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("db query timeout"))

	_, err := svc.validateRefreshToken(context.Background(), "any")
	require.Error(t, err)
}

// memCache — простой in-memory стаб RefreshCache для проверки read-through/write-through.
type memCache struct {
	mu sync.Mutex
	m  map[string]cache.RefreshEntry
}

func newMemCache() *memCache {
	return &memCache{m: make(map[string]cache.RefreshEntry)}
}

func (c *memCache) Get(_ context.Context, hash string) (*cache.RefreshEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[hash]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (c *memCache) Set(_ context.Context, hash string, e *cache.RefreshEntry, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[hash] = *e
	return nil
}

func (c *memCache) Delete(_ context.Context, hash string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, hash)
	return nil
}

func (c *memCache) Close() error { return nil }

func TestGenerateRefreshToken_WriteThroughCache(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	mc := newMemCache()
	svc.SetRefreshCache(mc)

	accountID := uuid.New()
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	plain, err := svc.generateRefreshToken(context.Background(), accountID)
	require.NoError(t, err)

	entry, ok, err := mc.Get(context.Background(), hashRefreshToken(plain))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, accountID, entry.AccountID)
}

func TestValidateRefreshToken_CacheHit_SkipsStorage(t *testing.T) {
	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	mc := newMemCache()
	svc.SetRefreshCache(mc)

	accountID := uuid.New()
	plain := "cached-refresh"
	hash := hashRefreshToken(plain)

	require.NoError(t, mc.Set(context.Background(), hash, &cache.RefreshEntry{
		AccountID: accountID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}, time.Hour))

	// RefreshTokenByHash не ожидается: попадание в кэш минует БД.
	token, err := svc.validateRefreshToken(context.Background(), plain)
	require.NoError(t, err)
	require.Equal(t, accountID, token.AccountID)
}

func TestValidateRefreshToken_CacheMiss_BackfillsCache(t *testing.T) {
	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	mc := newMemCache()
	svc.SetRefreshCache(mc)

	accountID := uuid.New()
	plain := "db-only-refresh"
	hash := hashRefreshToken(plain)

	st.EXPECT().RefreshTokenByHash(gomock.Any(), hash).Return(&models.RefreshToken{
		TokenHash: hash,
		AccountID: accountID,
		CreatedAt: time.Now().UTC().Add(-time.Minute),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}, nil)

	_, err := svc.validateRefreshToken(context.Background(), plain)
	require.NoError(t, err)

	_, ok, err := mc.Get(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, ok)
}

// fmtWrap - оборачивает ошибку из storage, имитируя fmt.Errorf("%w").
func fmtWrap(err error) error { return fmt.Errorf("wrapped: %w", err) }
