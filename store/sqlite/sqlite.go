/*
Package sqlite provides the SQLite-backed implementation of the
contract.Store interface.

PURPOSE:
  Production persistence for contracts, installments and customer
  records. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

KEY TABLES:
  customers:     Opaque customer records (the engine only checks existence)
  contracts:     One row per contract, including derived amounts
  installments:  One row per installment, owned by a contract row

DATE STORAGE:
  Civil dates are stored as ISO text (YYYY-MM-DD); the solar view is
  always derived on demand by the calendar package and never persisted.
  Money columns are INTEGER rial.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, plus WAL mode. SQLite allows one
  writer at a time, which also provides the one-writer-per-contract
  guarantee the ledger engine requires.

USAGE:
  st, err := sqlite.New("./data/paymaster.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()
  ledger := contract.NewLedger(st)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - contract/store.go: Interface definition
  - contract/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
)

// Store implements contract.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		national_id TEXT,
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		contract_number TEXT NOT NULL UNIQUE,
		-- NULL for walk-in contracts with no registered customer
		customer_id TEXT,
		principal_amount INTEGER NOT NULL,
		interest_rate REAL NOT NULL,
		interest_amount INTEGER NOT NULL,
		total_amount INTEGER NOT NULL,
		installment_count INTEGER NOT NULL,
		installment_amount INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		penalty_rate REAL NOT NULL,
		status TEXT NOT NULL,
		description TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (customer_id) REFERENCES customers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_customer
		ON contracts(customer_id);
	CREATE INDEX IF NOT EXISTS idx_contracts_status
		ON contracts(status);
	CREATE INDEX IF NOT EXISTS idx_contracts_number
		ON contracts(contract_number DESC);

	CREATE TABLE IF NOT EXISTS installments (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		number INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		principal_portion INTEGER NOT NULL,
		interest_portion INTEGER NOT NULL,
		due_date TEXT NOT NULL,
		paid_amount INTEGER NOT NULL DEFAULT 0,
		penalty_amount INTEGER NOT NULL DEFAULT 0,
		payment_date TEXT,
		payment_method TEXT,
		receipt_number TEXT,
		notes TEXT,
		status TEXT NOT NULL,
		UNIQUE (contract_id, number),
		FOREIGN KEY (contract_id) REFERENCES contracts(id)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_contract
		ON installments(contract_id, number);
	-- Hot path for the overdue sweep and the upcoming view
	CREATE INDEX IF NOT EXISTS idx_installments_status_due
		ON installments(status, due_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CUSTOMERS
// =============================================================================

// Customer is the minimal record backing the existence check at contract
// creation. The ledger engine treats customers as opaque ids.
type Customer struct {
	ID         string
	Name       string
	Phone      string
	NationalID string
	Status     string
	CreatedAt  time.Time
}

func (s *Store) SaveCustomer(ctx context.Context, c Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == "" {
		c.Status = "ACTIVE"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, name, phone, national_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			national_id = excluded.national_id,
			status = excluded.status`,
		c.ID, c.Name, c.Phone, c.NationalID, c.Status, c.CreatedAt.Format(time.RFC3339))
	return err
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, phone, national_id, status, created_at
		FROM customers WHERE id = ?`, id)
	var c Customer
	var phone, nationalID sql.NullString
	var createdAt string
	err := row.Scan(&c.ID, &c.Name, &phone, &nationalID, &c.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.NationalID = nationalID.String
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, national_id, status, created_at
		FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		var phone, nationalID sql.NullString
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &phone, &nationalID, &c.Status, &createdAt); err != nil {
			return nil, err
		}
		c.Phone = phone.String
		c.NationalID = nationalID.String
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CustomerExists(ctx context.Context, customerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM customers WHERE id = ?`, customerID).Scan(&n)
	return n > 0, err
}

// =============================================================================
// CONTRACTS
// =============================================================================

const contractColumns = `id, contract_number, customer_id, principal_amount,
	interest_rate, interest_amount, total_amount, installment_count,
	installment_amount, start_date, end_date, penalty_rate, status,
	description, created_at`

func (s *Store) SaveContract(ctx context.Context, c *contract.Contract, installments []contract.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO contracts (`+contractColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ContractNumber, nullableString(c.CustomerID), int64(c.PrincipalAmount),
		c.InterestRate, int64(c.InterestAmount), int64(c.TotalAmount),
		c.InstallmentCount, int64(c.InstallmentAmount),
		c.StartDate.String(), c.EndDate.String(), c.PenaltyRate,
		string(c.Status), c.Description, c.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return err
	}

	for i := range installments {
		if err := insertInstallment(ctx, tx, &installments[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertInstallment(ctx context.Context, tx *sql.Tx, inst *contract.Installment) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO installments (id, contract_id, number, amount,
			principal_portion, interest_portion, due_date, paid_amount,
			penalty_amount, payment_date, payment_method, receipt_number,
			notes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inst.ID, inst.ContractID, inst.Number, int64(inst.Amount),
		int64(inst.PrincipalPortion), int64(inst.InterestPortion),
		inst.DueDate.String(), int64(inst.PaidAmount), int64(inst.PenaltyAmount),
		nullableTime(inst.PaymentDate), string(inst.PaymentMethod),
		inst.ReceiptNumber, inst.Notes, string(inst.Status))
	return err
}

func (s *Store) GetContract(ctx context.Context, id string) (*contract.Contract, error) {
	return s.getContractWhere(ctx, "id = ?", id)
}

func (s *Store) GetContractByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	return s.getContractWhere(ctx, "contract_number = ?", number)
}

func (s *Store) getContractWhere(ctx context.Context, where string, arg any) (*contract.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contractColumns+` FROM contracts WHERE `+where, arg)
	c, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) UpdateContract(ctx context.Context, c *contract.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE contracts SET status = ?, description = ?, penalty_rate = ?
		WHERE id = ?`,
		string(c.Status), c.Description, c.PenaltyRate, c.ID)
	return err
}

func (s *Store) ListContracts(ctx context.Context) ([]contract.Contract, error) {
	return s.listContractsWhere(ctx, "1=1")
}

func (s *Store) ListContractsByStatus(ctx context.Context, status contract.ContractStatus) ([]contract.Contract, error) {
	return s.listContractsWhere(ctx, "status = ?", string(status))
}

func (s *Store) ListContractsByCustomer(ctx context.Context, customerID string) ([]contract.Contract, error) {
	return s.listContractsWhere(ctx, "customer_id = ?", customerID)
}

func (s *Store) listContractsWhere(ctx context.Context, where string, args ...any) ([]contract.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+contractColumns+` FROM contracts
		WHERE `+where+` ORDER BY created_at DESC, contract_number DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contract.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) LastContractNumber(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var number string
	err := s.db.QueryRowContext(ctx, `
		SELECT contract_number FROM contracts
		ORDER BY contract_number DESC LIMIT 1`).Scan(&number)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return number, err
}

// =============================================================================
// INSTALLMENTS
// =============================================================================

const installmentColumns = `id, contract_id, number, amount, principal_portion,
	interest_portion, due_date, paid_amount, penalty_amount, payment_date,
	payment_method, receipt_number, notes, status`

func (s *Store) GetInstallment(ctx context.Context, id string) (*contract.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Store) UpdateInstallment(ctx context.Context, inst *contract.Installment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE installments SET
			paid_amount = ?, penalty_amount = ?, payment_date = ?,
			payment_method = ?, receipt_number = ?, notes = ?, status = ?
		WHERE id = ?`,
		int64(inst.PaidAmount), int64(inst.PenaltyAmount),
		nullableTime(inst.PaymentDate), string(inst.PaymentMethod),
		inst.ReceiptNumber, inst.Notes, string(inst.Status), inst.ID)
	return err
}

func (s *Store) ListInstallments(ctx context.Context, contractID string) ([]contract.Installment, error) {
	return s.listInstallmentsWhere(ctx,
		"contract_id = ? ORDER BY number ASC", contractID)
}

func (s *Store) ListAllInstallments(ctx context.Context) ([]contract.Installment, error) {
	return s.listInstallmentsWhere(ctx, "1=1 ORDER BY due_date ASC, number ASC")
}

func (s *Store) ListPendingDueBefore(ctx context.Context, date calendar.Date) ([]contract.Installment, error) {
	return s.listInstallmentsWhere(ctx,
		"status = ? AND due_date < ? ORDER BY due_date ASC, number ASC",
		string(contract.InstallmentPending), date.String())
}

func (s *Store) ListDueBetween(ctx context.Context, from, to calendar.Date) ([]contract.Installment, error) {
	return s.listInstallmentsWhere(ctx,
		"status NOT IN (?, ?) AND due_date >= ? AND due_date <= ? ORDER BY due_date ASC, number ASC",
		string(contract.InstallmentPaid), string(contract.InstallmentCompleted),
		from.String(), to.String())
}

func (s *Store) listInstallmentsWhere(ctx context.Context, where string, args ...any) ([]contract.Installment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM installments WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contract.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

// =============================================================================
// ROW SCANNING
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanContract(row scanner) (*contract.Contract, error) {
	var c contract.Contract
	var principal, interest, total, perInstallment int64
	var startDate, endDate, createdAt string
	var customerID, description sql.NullString

	err := row.Scan(&c.ID, &c.ContractNumber, &customerID, &principal,
		&c.InterestRate, &interest, &total, &c.InstallmentCount,
		&perInstallment, &startDate, &endDate, &c.PenaltyRate,
		(*string)(&c.Status), &description, &createdAt)
	if err != nil {
		return nil, err
	}

	c.PrincipalAmount = contract.Money(principal)
	c.InterestAmount = contract.Money(interest)
	c.TotalAmount = contract.Money(total)
	c.InstallmentAmount = contract.Money(perInstallment)
	c.CustomerID = customerID.String
	c.Description = description.String
	c.StartDate, err = parseDate(startDate)
	if err != nil {
		return nil, err
	}
	c.EndDate, err = parseDate(endDate)
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func scanInstallment(row scanner) (*contract.Installment, error) {
	var inst contract.Installment
	var amount, principalPortion, interestPortion, paid, penalty int64
	var dueDate string
	var paymentDate, method, receipt, notes sql.NullString

	err := row.Scan(&inst.ID, &inst.ContractID, &inst.Number, &amount,
		&principalPortion, &interestPortion, &dueDate, &paid, &penalty,
		&paymentDate, &method, &receipt, &notes, (*string)(&inst.Status))
	if err != nil {
		return nil, err
	}

	inst.Amount = contract.Money(amount)
	inst.PrincipalPortion = contract.Money(principalPortion)
	inst.InterestPortion = contract.Money(interestPortion)
	inst.PaidAmount = contract.Money(paid)
	inst.PenaltyAmount = contract.Money(penalty)
	inst.PaymentMethod = contract.PaymentMethod(method.String)
	inst.ReceiptNumber = receipt.String
	inst.Notes = notes.String
	inst.DueDate, err = parseDate(dueDate)
	if err != nil {
		return nil, err
	}
	if paymentDate.Valid && paymentDate.String != "" {
		inst.PaymentDate, _ = time.Parse(time.RFC3339, paymentDate.String)
	}
	return &inst, nil
}

func parseDate(s string) (calendar.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return calendar.Date{}, fmt.Errorf("bad date column %q: %w", s, err)
	}
	return calendar.DateOf(t), nil
}

// nullableString maps "" to NULL so an absent customer reference stays
// outside foreign key enforcement.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
