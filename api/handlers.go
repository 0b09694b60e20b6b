/*
handlers.go - HTTP handlers for the contract tracker

PURPOSE:
  Translates HTTP requests into ledger operations and domain queries,
  and domain values back into JSON DTOs.

KEY CONCEPTS:
  - Handlers hold the SQLite store for reads and the Ledger for writes.
  - The effective "today" for penalty and overdue calculations comes
    from the optional as_of query parameter (solar YYYY/MM/DD), falling
    back to the wall clock. Tests pin it; production omits it.
  - Domain errors map to HTTP status codes in writeDomainError; handlers
    never inspect error strings.
*/
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
	"github.com/tiknet10-byte/paymaster-v2/finance"
	"github.com/tiknet10-byte/paymaster-v2/store/sqlite"
)

// Handler bundles the dependencies shared by all HTTP endpoints.
type Handler struct {
	Store  *sqlite.Store
	Ledger *contract.Ledger
}

func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{
		Store:  store,
		Ledger: contract.NewLedger(store),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps ledger errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case contract.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, contract.ErrAlreadySettled):
		writeError(w, http.StatusConflict, "installment already settled", err)
	case errors.Is(err, contract.ErrAlreadyCompleted):
		writeError(w, http.StatusConflict, "contract already completed", err)
	case contract.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

// requestDate resolves the effective date for a request. An as_of query
// parameter pins it (solar YYYY/MM/DD); otherwise the wall clock wins.
func requestDate(r *http.Request) (calendar.Date, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return calendar.DateOf(time.Now()), nil
	}
	return calendar.ParseSolar(raw)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	return true
}

// =============================================================================
// CUSTOMERS
// =============================================================================

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}

	cust := sqlite.Customer{
		ID:         req.ID,
		Name:       req.Name,
		Phone:      req.Phone,
		NationalID: req.NationalID,
		Status:     "ACTIVE",
		CreatedAt:  time.Now(),
	}
	if err := h.Store.SaveCustomer(r.Context(), cust); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save customer", err)
		return
	}
	writeJSON(w, http.StatusCreated, customerDTO(cust))
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list customers", err)
		return
	}
	out := make([]CustomerDTO, len(customers))
	for i, c := range customers {
		out[i] = customerDTO(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start, err := calendar.ParseSolar(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date", err)
		return
	}

	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	terms := contract.Terms{
		CustomerID:       req.CustomerID,
		Principal:        contract.Money(req.PrincipalAmount),
		AnnualRate:       req.InterestRate,
		InstallmentCount: req.InstallmentCount,
		StartDate:        start,
		PenaltyRate:      req.PenaltyRate,
		Description:      req.Description,
	}

	c, insts, err := h.Ledger.CreateContract(r.Context(), terms, today)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	contractsCreated.Inc()

	dto := contractDTO(c)
	dto.Installments = installmentDTOs(insts, today)
	writeJSON(w, http.StatusCreated, dto)
}

func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	var (
		contracts []contract.Contract
		err       error
	)
	switch {
	case r.URL.Query().Get("status") != "":
		status := contract.ContractStatus(r.URL.Query().Get("status"))
		contracts, err = h.Store.ListContractsByStatus(r.Context(), status)
	case r.URL.Query().Get("customer_id") != "":
		contracts, err = h.Store.ListContractsByCustomer(r.Context(), r.URL.Query().Get("customer_id"))
	default:
		contracts, err = h.Store.ListContracts(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list contracts", err)
		return
	}

	out := make([]ContractDTO, len(contracts))
	for i := range contracts {
		out[i] = contractDTO(&contracts[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load contract", err)
		return
	}
	if c == nil {
		// Fall back to lookup by contract number so both work.
		c, err = h.Store.GetContractByNumber(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load contract", err)
			return
		}
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "contract not found", nil)
		return
	}

	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	insts, err := h.Store.ListInstallments(r.Context(), c.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load installments", err)
		return
	}
	dto := contractDTO(c)
	dto.Installments = installmentDTOs(insts, today)
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) CancelContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CancelContractRequest
	if !decodeBody(w, r, &req) {
		return
	}

	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	c, err := h.Ledger.CancelContract(r.Context(), id, req.Reason, today)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contractDTO(c))
}

func (h *Handler) SettlementQuote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	discount := 0.0
	if raw := r.URL.Query().Get("discount_rate"); raw != "" {
		var err error
		discount, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid discount_rate", err)
			return
		}
	}

	amount, err := h.Ledger.EarlySettlementQuote(r.Context(), id, discount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SettlementQuoteDTO{
		ContractID:   id,
		DiscountRate: discount,
		Amount:       int64(amount),
		AmountToman:  finance.FormatToman(amount),
	})
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

func (h *Handler) PayInstallment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req PayInstallmentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	method := contract.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = contract.PayCash
	}

	inst, err := h.Ledger.PayInstallment(r.Context(), id, contract.Money(req.Amount), method, req.ReceiptNumber, req.Notes, today)
	if err != nil {
		paymentsTotal.WithLabelValues("error").Inc()
		writeDomainError(w, err)
		return
	}
	paymentsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, installmentDTO(inst, today))
}

func (h *Handler) QuickSettle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	inst, err := h.Ledger.QuickSettle(r.Context(), id, today)
	if err != nil {
		paymentsTotal.WithLabelValues("error").Inc()
		writeDomainError(w, err)
		return
	}
	paymentsTotal.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, installmentDTO(inst, today))
}

// =============================================================================
// DASHBOARD & ADMIN
// =============================================================================

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	contracts, err := h.Store.ListContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load contracts", err)
		return
	}
	installments, err := h.Store.ListAllInstallments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load installments", err)
		return
	}
	customers, err := h.Store.ListCustomers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load customers", err)
		return
	}

	stats := contract.Aggregate(contracts, installments, today)

	byStatus := make(map[string]int, len(stats.ContractsByStatus))
	for k, v := range stats.ContractsByStatus {
		byStatus[string(k)] = v
	}

	upcoming, err := h.Store.ListDueBetween(r.Context(), today, today.AddDays(7))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load upcoming installments", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardDTO{
		TotalCustomers:       len(customers),
		TotalContracts:       stats.TotalContracts,
		ActiveContracts:      stats.ActiveContracts,
		ContractsByStatus:    byStatus,
		OverdueInstallments:  stats.OverdueInstallments,
		TotalReceivable:      int64(stats.TotalReceivable),
		TotalReceived:        int64(stats.TotalReceived),
		TotalOverdue:         int64(stats.TotalOverdue),
		TotalPenalty:         int64(stats.TotalPenalty),
		CollectionPercentage: stats.CollectionPercentage,
		TodaySolar:           calendar.FormatSolarWithMonthName(today),
		Upcoming:             installmentDTOs(upcoming, today),
	})
}

// Sweep marks due-and-unpaid installments overdue and refreshes contract
// statuses. The scheduler calls the same ledger methods on a timer; this
// endpoint exists for manual runs and tests.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	today, err := requestDate(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date", err)
		return
	}

	marked, err := h.Ledger.SweepOverdue(r.Context(), today)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed", err)
		return
	}
	if err := h.Ledger.RefreshStatuses(r.Context(), today); err != nil {
		writeError(w, http.StatusInternalServerError, "status refresh failed", err)
		return
	}
	sweepRuns.Inc()
	installmentsMarkedOverdue.Add(float64(marked))

	writeJSON(w, http.StatusOK, map[string]int{"marked_overdue": marked})
}
