package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/pribylovaa/go-banking-service/internal/config"
	domain "github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/service"
	"github.com/pribylovaa/go-banking-service/internal/storage"
	"github.com/pribylovaa/go-banking-service/mocks"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Тесты REST-слоя целиком: роутер + мидлвары + хендлеры поверх
// service.Service с замоканным хранилищем.

func testRouter(t *testing.T) (http.Handler, *mocks.MockStorage) {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	svc := service.New(st, config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 10 * time.Minute,
		Issuer:          "banking-service",
		Audience:        []string{"banking-api"},
	})

	return NewRouter(svc, Options{Timeout: 5 * time.Second}), st
}

func doJSON(t *testing.T, h http.Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRegister_Created_NoPasswordHashInResponse(t *testing.T) {
	h, st := testRouter(t)

	st.EXPECT().AccountByName(gomock.Any(), "Nishan").Return(nil, storage.ErrNotFound)
	st.EXPECT().SaveAccount(gomock.Any(), gomock.Any()).Return(nil)

	rr := doJSON(t, h, http.MethodPost, "/accounts/register", "", map[string]any{
		"holder_name": "Nishan",
		"password":    "Abcdef1!",
		"balance":     800,
		"address":     map[string]string{"city": "Colombo", "address_type": "home"},
	})

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "Nishan", resp["holder_name"])
	require.EqualValues(t, 800, resp["balance"])
	require.NotContains(t, rr.Body.String(), "password")
}

func TestRegister_UnknownField_BadRequest(t *testing.T) {
	h, _ := testRouter(t)

	rr := doJSON(t, h, http.MethodPost, "/accounts/register", "", map[string]any{
		"holder_name": "Nishan",
		"password":    "pw",
		"balance":     800,
		"bogus":       true,
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_NameTaken_Conflict(t *testing.T) {
	h, st := testRouter(t)

	st.EXPECT().AccountByName(gomock.Any(), "Nishan").
		Return(&domain.Account{ID: uuid.New(), HolderName: "Nishan"}, nil)

	rr := doJSON(t, h, http.MethodPost, "/accounts/register", "", map[string]any{
		"holder_name": "Nishan",
		"password":    "Abcdef1!",
		"balance":     800,
		"address":     map[string]string{"city": "Colombo", "address_type": "home"},
	})

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "already_exists")
}

func TestLogin_OK_ThenRefresh(t *testing.T) {
	h, st := testRouter(t)

	pw := "Abcdef1!"
	svcHash, err := hashForTest(pw)
	require.NoError(t, err)

	account := &domain.Account{
		ID:           uuid.New(),
		HolderName:   "Nishan",
		Balance:      800,
		PasswordHash: svcHash,
	}

	var savedToken *domain.RefreshToken
	st.EXPECT().AccountByName(gomock.Any(), "Nishan").Return(account, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rt *domain.RefreshToken) error {
			savedToken = rt
			return nil
		})

	rr := doJSON(t, h, http.MethodPost, "/accounts/login", "", map[string]string{
		"holder_name": "Nishan",
		"password":    pw,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens struct {
		AccountID    string `json:"account_id"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	require.Equal(t, account.ID.String(), tokens.AccountID)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// Refresh: та же строка refresh-токена возвращается обратно (без ротации).
	st.EXPECT().RefreshTokenByHash(gomock.Any(), savedToken.TokenHash).Return(savedToken, nil)
	st.EXPECT().AccountByID(gomock.Any(), account.ID).Return(account, nil)

	rr = doJSON(t, h, http.MethodPost, "/accounts/refresh", "", map[string]string{
		"refresh_token": tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var refreshed struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &refreshed))
	require.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)
}

func TestLogin_WrongPassword_Unauthorized(t *testing.T) {
	h, st := testRouter(t)

	svcHash, err := hashForTest("correct")
	require.NoError(t, err)

	st.EXPECT().AccountByName(gomock.Any(), "Nishan").
		Return(&domain.Account{ID: uuid.New(), HolderName: "Nishan", PasswordHash: svcHash}, nil)

	rr := doJSON(t, h, http.MethodPost, "/accounts/login", "", map[string]string{
		"holder_name": "Nishan",
		"password":    "wrong",
	})

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "unauthenticated")
}

func TestGetAccount_OK_NotFound_BadID(t *testing.T) {
	h, st := testRouter(t)

	id := uuid.New()
	st.EXPECT().AccountByID(gomock.Any(), id).
		Return(&domain.Account{ID: id, HolderName: "Nishan", Balance: 800}, nil)

	rr := doJSON(t, h, http.MethodGet, "/accounts/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	st.EXPECT().AccountByID(gomock.Any(), id).Return(nil, storage.ErrNotFound)
	rr = doJSON(t, h, http.MethodGet, "/accounts/"+id.String(), "", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/accounts/not-a-uuid", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListAccounts_OK_AndBadParams(t *testing.T) {
	h, st := testRouter(t)

	st.EXPECT().
		ListAccounts(gomock.Any(), storage.ListParams{Offset: 1, Limit: 2, Sort: storage.SortByName}).
		Return([]domain.Account{
			{ID: uuid.New(), HolderName: "Alice", Balance: 100},
			{ID: uuid.New(), HolderName: "Bob", Balance: 200},
		}, nil)

	rr := doJSON(t, h, http.MethodGet, "/accounts?offset=1&limit=2&sort=name", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var list struct {
		Accounts []struct {
			HolderName string `json:"holder_name"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Accounts, 2)

	// Нечисловой offset.
	rr = doJSON(t, h, http.MethodGet, "/accounts?offset=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Неизвестное поле сортировки.
	rr = doJSON(t, h, http.MethodGet, "/accounts?sort=password_hash", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeposit_OK_And_Withdraw_InsufficientFunds(t *testing.T) {
	h, st := testRouter(t)

	id := uuid.New()

	st.EXPECT().ChangeBalance(gomock.Any(), id, int64(500)).
		Return(&domain.Account{ID: id, HolderName: "Nishan", Balance: 1300}, nil)

	rr := doJSON(t, h, http.MethodPut, "/accounts/"+id.String()+"/deposit", "", map[string]int64{"amount": 500})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"balance":1300`)

	st.EXPECT().ChangeBalance(gomock.Any(), id, int64(-10000)).
		Return(nil, storage.ErrInsufficientFunds)

	rr = doJSON(t, h, http.MethodPut, "/accounts/"+id.String()+"/withdraw", "", map[string]int64{"amount": 10000})
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "insufficient_funds")
}

func TestDeposit_NonPositiveAmount_BadRequest(t *testing.T) {
	h, _ := testRouter(t)

	id := uuid.New()
	rr := doJSON(t, h, http.MethodPut, "/accounts/"+id.String()+"/deposit", "", map[string]int64{"amount": 0})
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSecureDeposit_RequiresToken(t *testing.T) {
	h, _ := testRouter(t)

	id := uuid.New()
	rr := doJSON(t, h, http.MethodPut, "/accounts/"+id.String()+"/secure-deposit", "", map[string]int64{"amount": 100})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSecureFlow_OwnerOK_ForeignForbidden(t *testing.T) {
	h, st := testRouter(t)

	pw := "Abcdef1!"
	hash, err := hashForTest(pw)
	require.NoError(t, err)

	owner := &domain.Account{ID: uuid.New(), HolderName: "Nishan", Balance: 800, PasswordHash: hash}
	mallory := &domain.Account{ID: uuid.New(), HolderName: "Mallory", Balance: 50, PasswordHash: hash}

	// Владелец: токен на имя Nishan.
	ownerToken := loginFor(t, h, st, owner, pw)

	st.EXPECT().AccountByID(gomock.Any(), owner.ID).Return(owner, nil)
	st.EXPECT().ChangeBalance(gomock.Any(), owner.ID, int64(200)).
		Return(&domain.Account{ID: owner.ID, HolderName: "Nishan", Balance: 1000}, nil)

	rr := doJSON(t, h, http.MethodPut, "/accounts/"+owner.ID.String()+"/secure-deposit", ownerToken, map[string]int64{"amount": 200})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"balance":1000`)

	// Чужак: токен на имя Mallory, счёт остаётся нетронутым.
	foreignToken := loginFor(t, h, st, mallory, pw)

	st.EXPECT().AccountByID(gomock.Any(), owner.ID).Return(owner, nil)

	rr = doJSON(t, h, http.MethodPut, "/accounts/"+owner.ID.String()+"/secure-withdraw", foreignToken, map[string]int64{"amount": 200})
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "permission_denied")
}

func TestDeleteAccount_NoContent(t *testing.T) {
	h, st := testRouter(t)

	id := uuid.New()
	st.EXPECT().DeleteAccount(gomock.Any(), id).Return(nil)

	rr := doJSON(t, h, http.MethodDelete, "/accounts/"+id.String(), "", nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

// hashForTest — bcrypt-хэш пароля; стоимость по умолчанию, чтобы не тормозить тесты.
func hashForTest(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// loginFor — выпускает access-токен через реальный /accounts/login
// с замоканным хранилищем.
func loginFor(t *testing.T, h http.Handler, st *mocks.MockStorage, account *domain.Account, password string) string {
	t.Helper()

	st.EXPECT().AccountByName(gomock.Any(), account.HolderName).Return(account, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	rr := doJSON(t, h, http.MethodPost, "/accounts/login", "", map[string]string{
		"holder_name": account.HolderName,
		"password":    password,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	require.NotEmpty(t, tokens.AccessToken)
	return tokens.AccessToken
}
