/*
store.go - Persistence boundary for contract aggregates

PURPOSE:
  Defines the interface between the ledger engine and the database. The
  engine loads and saves whole Contract/Installment aggregates through
  this interface and never performs I/O of its own.

SEMANTICS:
  - Lookups return (nil, nil) when the entity does not exist; the ledger
    translates that into a NotFoundError so callers see one error kind.
  - Installments are written as a batch exactly once, at contract
    creation; afterwards only UpdateInstallment touches them.
  - The store is expected to provide at-most-one-writer semantics per
    contract; the engine itself holds no locks.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - contract/store: in-memory store for tests and development
*/
package contract

import (
	"context"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
)

// Store persists contract aggregates.
type Store interface {
	// CustomerExists reports whether a customer id is known. Customers are
	// opaque to the engine; only existence matters here.
	CustomerExists(ctx context.Context, customerID string) (bool, error)

	// SaveContract persists a new contract together with its full batch of
	// installments, atomically.
	SaveContract(ctx context.Context, c *Contract, installments []Installment) error

	GetContract(ctx context.Context, id string) (*Contract, error)
	GetContractByNumber(ctx context.Context, number string) (*Contract, error)
	UpdateContract(ctx context.Context, c *Contract) error
	ListContracts(ctx context.Context) ([]Contract, error)
	ListContractsByStatus(ctx context.Context, status ContractStatus) ([]Contract, error)
	ListContractsByCustomer(ctx context.Context, customerID string) ([]Contract, error)

	// LastContractNumber returns the lexicographically greatest contract
	// number issued so far, or "" when none exist.
	LastContractNumber(ctx context.Context) (string, error)

	GetInstallment(ctx context.Context, id string) (*Installment, error)
	UpdateInstallment(ctx context.Context, inst *Installment) error

	// ListInstallments returns a contract's installments ordered by number.
	ListInstallments(ctx context.Context, contractID string) ([]Installment, error)
	ListAllInstallments(ctx context.Context) ([]Installment, error)

	// ListPendingDueBefore returns PENDING installments whose due date is
	// strictly before the given date. Used by the overdue sweep.
	ListPendingDueBefore(ctx context.Context, date calendar.Date) ([]Installment, error)

	// ListDueBetween returns unsettled installments with from <= due <= to,
	// ordered by due date. Used for the upcoming-installments view.
	ListDueBetween(ctx context.Context, from, to calendar.Date) ([]Installment, error)
}
