package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/techinsight/techinsight-be/internal/services"
)

// AccountHandler handles HTTP requests for account management.
type AccountHandler struct {
	service services.AccountServiceProvider
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.AccountServiceProvider) *AccountHandler {
	return &AccountHandler{service: service}
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new account registration.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}

	account, err := h.service.Register(r.Context(), payload)
	if err != nil {
		fail(w, r, err, "Failed to register account")
		return
	}
	respond(w, r, http.StatusCreated, account)
}

// Login verifies credentials and returns the account with its posts.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := decode(r, &payload); err != nil {
		fail(w, r, err, "Invalid request body")
		return
	}

	account, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		fail(w, r, err, "Failed to authenticate account")
		return
	}
	respond(w, r, http.StatusOK, account)
}

// GetAll lists every account with its posts.
func (h *AccountHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to retrieve accounts")
		return
	}
	respond(w, r, http.StatusOK, accounts)
}

// Get returns one account profile with its posts.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	account, err := h.service.GetAccountByID(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Failed to retrieve account")
		return
	}
	respond(w, r, http.StatusOK, account)
}
