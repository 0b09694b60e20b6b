/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP boundary. Dates cross the boundary as solar
  YYYY/MM/DD strings; money as integer rial, with toman strings included
  for display. DTOs are built from domain values here so handlers stay
  thin.
*/
package api

import (
	"time"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
	"github.com/tiknet10-byte/paymaster-v2/finance"
	"github.com/tiknet10-byte/paymaster-v2/store/sqlite"
)

// =============================================================================
// REQUESTS
// =============================================================================

type CreateCustomerRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id,omitempty"`
}

type CreateContractRequest struct {
	CustomerID       string   `json:"customer_id"`
	PrincipalAmount  int64    `json:"principal_amount"`
	InterestRate     float64  `json:"interest_rate"`
	InstallmentCount int      `json:"installment_count"`
	StartDate        string   `json:"start_date"` // solar YYYY/MM/DD
	PenaltyRate      *float64 `json:"penalty_rate,omitempty"`
	Description      string   `json:"description,omitempty"`
}

type PayInstallmentRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type CancelContractRequest struct {
	Reason string `json:"reason"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type CustomerDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	NationalID string `json:"national_id,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

type ContractDTO struct {
	ID                string  `json:"id"`
	ContractNumber    string  `json:"contract_number"`
	CustomerID        string  `json:"customer_id"`
	PrincipalAmount   int64   `json:"principal_amount"`
	InterestRate      float64 `json:"interest_rate"`
	InterestAmount    int64   `json:"interest_amount"`
	TotalAmount       int64   `json:"total_amount"`
	TotalToman        string  `json:"total_toman"`
	InstallmentCount  int     `json:"installment_count"`
	InstallmentAmount int64   `json:"installment_amount"`
	StartDate         string  `json:"start_date"` // solar
	EndDate           string  `json:"end_date"`   // solar
	PenaltyRate       float64 `json:"penalty_rate"`
	Status            string  `json:"status"`
	Description       string  `json:"description,omitempty"`
	CreatedAt         string  `json:"created_at"`

	Installments []InstallmentDTO `json:"installments,omitempty"`
}

type InstallmentDTO struct {
	ID               string `json:"id"`
	ContractID       string `json:"contract_id"`
	Number           int    `json:"number"`
	Amount           int64  `json:"amount"`
	PrincipalPortion int64  `json:"principal_portion"`
	InterestPortion  int64  `json:"interest_portion"`
	DueDate          string `json:"due_date"`      // solar
	DueDateFull      string `json:"due_date_full"` // weekday + month name
	PaidAmount       int64  `json:"paid_amount"`
	PenaltyAmount    int64  `json:"penalty_amount"`
	Remaining        int64  `json:"remaining"`
	DelayDays        int    `json:"delay_days"`
	PaymentDate      string `json:"payment_date,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
	ReceiptNumber    string `json:"receipt_number,omitempty"`
	Notes            string `json:"notes,omitempty"`
	Status           string `json:"status"`
}

type DashboardDTO struct {
	TotalCustomers       int            `json:"total_customers"`
	TotalContracts       int            `json:"total_contracts"`
	ActiveContracts      int            `json:"active_contracts"`
	ContractsByStatus    map[string]int `json:"contracts_by_status"`
	OverdueInstallments  int            `json:"overdue_installments"`
	TotalReceivable      int64          `json:"total_receivable"`
	TotalReceived        int64          `json:"total_received"`
	TotalOverdue         int64          `json:"total_overdue"`
	TotalPenalty         int64          `json:"total_penalty"`
	CollectionPercentage int            `json:"collection_percentage"`
	TodaySolar           string         `json:"today_solar"`

	Upcoming []InstallmentDTO `json:"upcoming_installments"`
}

type SettlementQuoteDTO struct {
	ContractID   string  `json:"contract_id"`
	DiscountRate float64 `json:"discount_rate"`
	Amount       int64   `json:"amount"`
	AmountToman  string  `json:"amount_toman"`
}

// =============================================================================
// BUILDERS
// =============================================================================

func customerDTO(c sqlite.Customer) CustomerDTO {
	return CustomerDTO{
		ID:         c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		NationalID: c.NationalID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt.Format(time.RFC3339),
	}
}

func contractDTO(c *contract.Contract) ContractDTO {
	return ContractDTO{
		ID:                c.ID,
		ContractNumber:    c.ContractNumber,
		CustomerID:        c.CustomerID,
		PrincipalAmount:   int64(c.PrincipalAmount),
		InterestRate:      c.InterestRate,
		InterestAmount:    int64(c.InterestAmount),
		TotalAmount:       int64(c.TotalAmount),
		TotalToman:        finance.FormatToman(c.TotalAmount),
		InstallmentCount:  c.InstallmentCount,
		InstallmentAmount: int64(c.InstallmentAmount),
		StartDate:         calendar.FormatSolar(c.StartDate),
		EndDate:           calendar.FormatSolar(c.EndDate),
		PenaltyRate:       c.PenaltyRate,
		Status:            string(c.Status),
		Description:       c.Description,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
}

func installmentDTO(inst *contract.Installment, today calendar.Date) InstallmentDTO {
	dto := InstallmentDTO{
		ID:               inst.ID,
		ContractID:       inst.ContractID,
		Number:           inst.Number,
		Amount:           int64(inst.Amount),
		PrincipalPortion: int64(inst.PrincipalPortion),
		InterestPortion:  int64(inst.InterestPortion),
		DueDate:          calendar.FormatSolar(inst.DueDate),
		DueDateFull:      calendar.FormatSolarFull(inst.DueDate),
		PaidAmount:       int64(inst.PaidAmount),
		PenaltyAmount:    int64(inst.PenaltyAmount),
		Remaining:        int64(inst.Remaining()),
		DelayDays:        inst.DelayDays(today),
		PaymentMethod:    string(inst.PaymentMethod),
		ReceiptNumber:    inst.ReceiptNumber,
		Notes:            inst.Notes,
		Status:           string(inst.Status),
	}
	if !inst.PaymentDate.IsZero() {
		dto.PaymentDate = inst.PaymentDate.Format(time.RFC3339)
	}
	return dto
}

func installmentDTOs(insts []contract.Installment, today calendar.Date) []InstallmentDTO {
	out := make([]InstallmentDTO, len(insts))
	for i := range insts {
		out[i] = installmentDTO(&insts[i], today)
	}
	return out
}
