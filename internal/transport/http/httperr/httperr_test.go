package httperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/go-banking-service/internal/service"
	"github.com/stretchr/testify/require"
)

func TestToHTTP_BaseMapping(t *testing.T) {
	tcs := []struct {
		name       string
		in         error
		wantStatus int
		wantCode   string
	}{
		{"invalid_argument", ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"invalid_name", service.ErrInvalidName, http.StatusBadRequest, "invalid_argument"},
		{"empty_password", service.ErrEmptyPassword, http.StatusBadRequest, "invalid_argument"},
		{"invalid_balance", service.ErrInvalidBalance, http.StatusBadRequest, "invalid_argument"},
		{"invalid_amount", service.ErrInvalidAmount, http.StatusBadRequest, "invalid_argument"},
		{"invalid_sort", service.ErrInvalidSortField, http.StatusBadRequest, "invalid_argument"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "unauthenticated"},
		{"invalid_token", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"token_expired", service.ErrTokenExpired, http.StatusUnauthorized, "unauthenticated"},
		{"token_not_found", service.ErrTokenNotFound, http.StatusUnauthorized, "unauthenticated"},
		{"access_denied", service.ErrAccessDenied, http.StatusForbidden, "permission_denied"},
		{"account_not_found", service.ErrAccountNotFound, http.StatusNotFound, "not_found"},
		{"name_taken", service.ErrNameTaken, http.StatusConflict, "already_exists"},
		{"insufficient_funds", service.ErrInsufficientFunds, http.StatusUnprocessableEntity, "insufficient_funds"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotStatus, resp := ToHTTP(tc.in)
			require.Equal(t, tc.wantStatus, gotStatus)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_WrappedError_StillMapped(t *testing.T) {
	// Сервис оборачивает ошибки через fmt.Errorf("%s: %w", op, err).
	wrapped := fmt.Errorf("service.account.Withdraw: %w", service.ErrInsufficientFunds)

	gotStatus, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusUnprocessableEntity, gotStatus)
	require.Equal(t, "insufficient_funds", resp.Error.Code)
}

func TestToHTTP_NilError_Returns500Internal(t *testing.T) {
	gotStatus, resp := ToHTTP(nil)
	require.Equal(t, http.StatusInternalServerError, gotStatus)
	require.Equal(t, "internal", resp.Error.Code)
	require.Equal(t, "internal error", resp.Error.Message)
}

func TestWriteError_AddsRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rr := httptest.NewRecorder()

	WriteError(rr, req, service.ErrAccountNotFound)

	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), `"request_id":"rid-123"`)
	require.Contains(t, rr.Body.String(), `"code":"not_found"`)
}
