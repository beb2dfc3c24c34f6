package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/budgetbook/backend/internal/api/middleware"
	"github.com/budgetbook/backend/internal/domain"
	"github.com/budgetbook/backend/internal/identity"
	"github.com/budgetbook/backend/internal/lifecycle"
	"github.com/budgetbook/backend/internal/store"
)

// AccountHandler handles account lifecycle endpoints.
type AccountHandler struct {
	svc *lifecycle.Service
	log zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(svc *lifecycle.Service, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, log: log}
}

// DeleteAccount handles POST /v1/account/delete. The target UID comes from
// the verified session only; any UID in the request body is ignored.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in to delete an account.")
		return
	}

	message, err := h.svc.DeleteAccount(ctx, uid)
	if errors.Is(err, identity.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, middleware.CodeNotFound, "Account no longer exists.")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Account deletion failed")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "An error occurred while deleting the account.")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// SettingsHandler handles the caller's settings document.
type SettingsHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(st store.Store, log zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{store: st, log: log}
}

// GetSettings handles GET /v1/settings. A 404 means the caller has never
// saved settings; clients treat that as a fresh account.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in.")
		return
	}

	settings, err := h.store.GetSettings(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, middleware.CodeNotFound, "No settings found.")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to read settings")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to read settings")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, settings)
}

// SaveSettings handles PUT /v1/settings. Saving stamps the last-activity
// timestamp server-side, which is what keeps active accounts out of the
// inactivity sweep.
func (h *SettingsHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in.")
		return
	}

	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Invalid request body")
		return
	}

	if settings.Budget < 0 {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Budget must not be negative")
		return
	}
	if settings.Currency == "" {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Currency is required")
		return
	}

	if err := h.store.SaveSettings(ctx, uid, &settings); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to save settings")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to save settings")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Settings saved."})
}

// TransactionsHandler handles the caller's transaction records.
type TransactionsHandler struct {
	store store.Store
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st store.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{store: st, log: log}
}

// ListTransactions handles GET /v1/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in.")
		return
	}

	transactions, err := h.store.ListTransactions(ctx, uid)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to list transactions")
		return
	}
	if transactions == nil {
		transactions = []*domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// AddTransaction handles POST /v1/transactions
func (h *TransactionsHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in.")
		return
	}

	var req struct {
		Description string  `json:"description"`
		Type        string  `json:"type"`
		Amount      float64 `json:"amount"`
		Notes       string  `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Invalid request body")
		return
	}

	if req.Description == "" {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Description is required")
		return
	}
	if req.Amount <= 0 {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Amount must be positive")
		return
	}
	transactionType := domain.TransactionType(req.Type)
	if req.Type == "" {
		transactionType = domain.TypeExpense
	}
	if !transactionType.Valid() {
		middleware.WriteError(w, http.StatusBadRequest, middleware.CodeInvalidArgument, "Type must be expense or income")
		return
	}

	transaction := &domain.Transaction{
		Description: req.Description,
		Type:        transactionType,
		Amount:      req.Amount,
		Notes:       req.Notes,
		CreatedAt:   time.Now(),
	}

	id, err := h.store.AddTransaction(ctx, uid, transaction)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Msg("Failed to add transaction")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to add transaction")
		return
	}

	// Adding a transaction counts as account activity. A failed stamp is
	// not fatal to the write itself.
	if err := h.store.TouchActivity(ctx, uid, time.Now()); err != nil && !errors.Is(err, store.ErrNotFound) {
		h.log.Warn().Err(err).Str("user_id", uid).Msg("Failed to stamp activity")
	}

	transaction.ID = id
	middleware.WriteJSON(w, http.StatusCreated, transaction)
}

// DeleteTransaction handles DELETE /v1/transactions/:id
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()

	uid, ok := middleware.UserID(ctx)
	if !ok {
		middleware.WriteError(w, http.StatusUnauthorized, middleware.CodeUnauthenticated, "You must be logged in.")
		return
	}

	if err := h.store.DeleteTransaction(ctx, uid, transactionID); err != nil {
		h.log.Error().Err(err).Str("user_id", uid).Str("transaction_id", transactionID).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, middleware.CodeInternal, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted."})
}
