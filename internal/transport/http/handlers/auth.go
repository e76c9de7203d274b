package handlers

import (
	"net/http"

	"github.com/pribylovaa/go-banking-service/internal/transport/http/httperr"
	"github.com/pribylovaa/go-banking-service/internal/transport/http/models"
)

func (h *Handlers) RegisterAccount(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	account, err := h.Service.RegisterAccount(r.Context(), in.ToParams())
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.AccountFromDomain(account))
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	tp, accountID, err := h.Service.Login(r.Context(), in.HolderName, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenPairFromDomain(tp, accountID))
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteError(w, r, httperr.ErrInvalidArgument)
		return
	}

	tp, accountID, err := h.Service.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TokenPairFromDomain(tp, accountID))
}
