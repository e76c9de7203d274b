package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	domain "github.com/pribylovaa/go-banking-service/internal/models"
	"github.com/pribylovaa/go-banking-service/internal/service"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/httperr"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/middleware"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/models"
)

func (h *Handlers) AccountByID(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromPath(r)
	if err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	account, err := h.Service.AccountByID(r.Context(), id)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AccountFromDomain(account))
}

func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := paginationParams(r)
	if err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	accounts, err := h.Service.ListAccounts(r.Context(), offset, limit, r.URL.Query().Get("sort"))
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AccountListFromDomain(accounts))
}

func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountIDFromPath(r)
	if err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	if err := h.Service.DeleteAccount(r.Context(), id); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.Service.Deposit)
}

func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateBalance(w, r, h.Service.Withdraw)
}

func (h *Handlers) SecureDeposit(w http.ResponseWriter, r *http.Request) {
	h.mutateBalanceSecure(w, r, h.Service.SecureDeposit)
}

func (h *Handlers) SecureWithdraw(w http.ResponseWriter, r *http.Request) {
	h.mutateBalanceSecure(w, r, h.Service.SecureWithdraw)
}

// mutateBalance — общая обвязка deposit/withdraw: парсинг id и суммы,
// вызов операции, сериализация ответа.
func (h *Handlers) mutateBalance(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID, amount int64) (*domain.Account, error),
) {
	id, err := accountIDFromPath(r)
	if err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	var in models.AmountRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	account, err := op(r.Context(), id, in.Amount)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AccountFromDomain(account))
}

// mutateBalanceSecure — то же для identity-guarded операций: имя вызывающего
// берётся из контекста (положено мидлваром RequireAuth).
func (h *Handlers) mutateBalanceSecure(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, id uuid.UUID, amount int64, callerName string) (*domain.Account, error),
) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		httperr.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	id, err := accountIDFromPath(r)
	if err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	var in models.AmountRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	account, err := op(r.Context(), id, in.Amount, caller.HolderName)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.AccountFromDomain(account))
}

// paginationParams парсит offset/limit из query. Отсутствующие параметры
// отдаются нулями — дефолты применяет сервисный слой.
func paginationParams(r *http.Request) (offset, limit int64, err error) {
	q := r.URL.Query()

	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || offset < 0 {
			return 0, 0, httperr.ErrInvalidArgument
		}
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return 0, 0, httperr.ErrInvalidArgument
		}
	}

	return offset, limit, nil
}
