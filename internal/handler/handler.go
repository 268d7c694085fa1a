package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/koopkredit/lending-service/internal/engine"
	"github.com/koopkredit/lending-service/internal/repository"
	"github.com/koopkredit/lending-service/internal/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses: validation problems are
// the caller's fault, conflicts and missing rows get their own codes, and
// anything else is a generic retryable failure.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *engine.ValidationError
	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrScheduleExists):
		http.Error(w, "Schedule already generated for this loan", http.StatusConflict)
	case errors.Is(err, repository.ErrPaymentDecided):
		http.Error(w, "Payment already verified or rejected", http.StatusConflict)
	case errors.Is(err, service.ErrNotApprovable), errors.Is(err, service.ErrNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	default:
		http.Error(w, "Temporary failure, please retry", http.StatusInternalServerError)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// Register handles member registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "username, email and password are required", http.StatusBadRequest)
		return
	}

	member, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// Login handles member authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ApproveMember handles admin member approval
func (h *Handler) ApproveMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid member id", http.StatusBadRequest)
		return
	}
	if err := h.svc.ApproveMember(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// ApplyForLoan handles loan applications
func (h *Handler) ApplyForLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Principal     float64 `json:"principal"`
		TermMonths    int     `json:"term_months"`
		Purpose       string  `json:"purpose"`
		PaymentMethod string  `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	loan, err := h.svc.ApplyForLoan(r.Context(), req.Principal, req.TermMonths, req.Purpose, req.PaymentMethod)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// GetLoan returns a single loan
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	loan, err := h.svc.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

// ApproveLoan activates a pending loan and materializes its schedule
func (h *Handler) ApproveLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	entries, err := h.svc.ApproveLoan(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// RejectLoan rejects a pending loan
func (h *Handler) RejectLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	if err := h.svc.RejectLoan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// GetSchedule returns a loan's amortization table
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	entries, err := h.svc.LoanSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetProgress returns the semi-monthly payment progress for a loan
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	progress, err := h.svc.LoanProgress(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// SubmitPayment records a member payment pending verification
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid loan id", http.StatusBadRequest)
		return
	}
	var req struct {
		Amount float64 `json:"amount"`
		Method string  `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.svc.SubmitPayment(r.Context(), id, req.Amount, req.Method)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// VerifyPayment approves or rejects a pending payment
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, "Invalid payment id", http.StatusBadRequest)
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	payment, err := h.svc.VerifyPayment(r.Context(), id, req.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// EffectiveRate returns the rate effective now, or as of an optional
// ?as_of=YYYY-MM-DD query parameter.
func (h *Handler) EffectiveRate(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "Invalid as_of date", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}
	rate := h.svc.EffectiveRate(r.Context(), asOf)
	writeJSON(w, http.StatusOK, map[string]float64{"effective_rate": rate})
}

// UpdateRate applies an immediate or scheduled base-rate change
func (h *Handler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rate          float64 `json:"rate"`
		EffectiveDate string  `json:"effective_date,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	effectiveAt := time.Now()
	if req.EffectiveDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EffectiveDate)
		if err != nil {
			http.Error(w, "Invalid effective_date", http.StatusBadRequest)
			return
		}
		effectiveAt = parsed
	}

	change, err := h.svc.UpdateRate(r.Context(), req.Rate, effectiveAt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, change)
}

// SuggestedRate returns the external reference rate plus margin
func (h *Handler) SuggestedRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.svc.SuggestedRate(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"suggested_rate": rate})
}
