// Package store provides an in-memory contract.Store implementation for
// tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tiknet10-byte/paymaster-v2/calendar"
	"github.com/tiknet10-byte/paymaster-v2/contract"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	customers    map[string]bool
	contracts    map[string]contract.Contract
	installments map[string]contract.Installment
}

func NewMemory() *Memory {
	return &Memory{
		customers:    make(map[string]bool),
		contracts:    make(map[string]contract.Contract),
		installments: make(map[string]contract.Installment),
	}
}

// AddCustomer registers a customer id. Test fixture helper; customers are
// opaque to the engine.
func (m *Memory) AddCustomer(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[id] = true
}

func (m *Memory) CustomerExists(_ context.Context, customerID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customers[customerID], nil
}

func (m *Memory) SaveContract(_ context.Context, c *contract.Contract, installments []contract.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = *c
	for _, inst := range installments {
		m.installments[inst.ID] = inst
	}
	return nil
}

func (m *Memory) GetContract(_ context.Context, id string) (*contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) GetContractByNumber(_ context.Context, number string) (*contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts {
		if c.ContractNumber == number {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *Memory) UpdateContract(_ context.Context, c *contract.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = *c
	return nil
}

func (m *Memory) ListContracts(_ context.Context) ([]contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]contract.Contract, 0, len(m.contracts))
	for _, c := range m.contracts {
		out = append(out, c)
	}
	sortContracts(out)
	return out, nil
}

func (m *Memory) ListContractsByStatus(_ context.Context, status contract.ContractStatus) ([]contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []contract.Contract
	for _, c := range m.contracts {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func (m *Memory) ListContractsByCustomer(_ context.Context, customerID string) ([]contract.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []contract.Contract
	for _, c := range m.contracts {
		if c.CustomerID == customerID {
			out = append(out, c)
		}
	}
	sortContracts(out)
	return out, nil
}

func (m *Memory) LastContractNumber(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	last := ""
	for _, c := range m.contracts {
		if c.ContractNumber > last {
			last = c.ContractNumber
		}
	}
	return last, nil
}

func (m *Memory) GetInstallment(_ context.Context, id string) (*contract.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.installments[id]
	if !ok {
		return nil, nil
	}
	return &inst, nil
}

func (m *Memory) UpdateInstallment(_ context.Context, inst *contract.Installment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installments[inst.ID] = *inst
	return nil
}

func (m *Memory) ListInstallments(_ context.Context, contractID string) ([]contract.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []contract.Installment
	for _, inst := range m.installments {
		if inst.ContractID == contractID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (m *Memory) ListAllInstallments(_ context.Context) ([]contract.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]contract.Installment, 0, len(m.installments))
	for _, inst := range m.installments {
		out = append(out, inst)
	}
	sortByDueDate(out)
	return out, nil
}

func (m *Memory) ListPendingDueBefore(_ context.Context, date calendar.Date) ([]contract.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []contract.Installment
	for _, inst := range m.installments {
		if inst.Status == contract.InstallmentPending && inst.DueDate.Before(date) {
			out = append(out, inst)
		}
	}
	sortByDueDate(out)
	return out, nil
}

func (m *Memory) ListDueBetween(_ context.Context, from, to calendar.Date) ([]contract.Installment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []contract.Installment
	for _, inst := range m.installments {
		if inst.Status.IsSettled() {
			continue
		}
		if !inst.DueDate.Before(from) && !inst.DueDate.After(to) {
			out = append(out, inst)
		}
	}
	sortByDueDate(out)
	return out, nil
}

// Newest first, matching the production store's listing order.
func sortContracts(cs []contract.Contract) {
	sort.Slice(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ContractNumber > cs[j].ContractNumber
	})
}

func sortByDueDate(insts []contract.Installment) {
	sort.Slice(insts, func(i, j int) bool {
		if !insts[i].DueDate.Equal(insts[j].DueDate) {
			return insts[i].DueDate.Before(insts[j].DueDate)
		}
		return insts[i].Number < insts[j].Number
	})
}
