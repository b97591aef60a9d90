// Package store provides projection.Store implementations.
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory keeps records in insertion order. Saving an existing ID replaces
// the record in place.
type Memory struct {
	mu       sync.RWMutex
	firms    []projection.Firm
	types    []projection.AccountType
	accounts []projection.Account
	holidays []generic.Holiday
	settings *projection.Settings
}

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryFrom returns a store preloaded with snap.
func NewMemoryFrom(snap projection.Snapshot) *Memory {
	m := NewMemory()
	m.restore(snap)
	return m
}

func (m *Memory) ListFirms(_ context.Context) ([]projection.Firm, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]projection.Firm(nil), m.firms...), nil
}

func (m *Memory) SaveFirm(_ context.Context, f projection.Firm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.firms {
		if m.firms[i].ID == f.ID {
			m.firms[i] = f
			return nil
		}
	}
	m.firms = append(m.firms, f)
	return nil
}

func (m *Memory) ListAccountTypes(_ context.Context) ([]projection.AccountType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]projection.AccountType(nil), m.types...), nil
}

// SaveAccountType upserts t. The firm must exist.
func (m *Memory) SaveAccountType(_ context.Context, t projection.AccountType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.ContainsFunc(m.firms, func(f projection.Firm) bool { return f.ID == t.FirmID }) {
		return fmt.Errorf("account type %s: %w: %s", t.ID, generic.ErrFirmNotFound, t.FirmID)
	}
	for i := range m.types {
		if m.types[i].ID == t.ID {
			m.types[i] = t
			return nil
		}
	}
	m.types = append(m.types, t)
	return nil
}

func (m *Memory) ListAccounts(_ context.Context) ([]projection.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]projection.Account(nil), m.accounts...), nil
}

// SaveAccount upserts a. The account type must exist.
func (m *Memory) SaveAccount(_ context.Context, a projection.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.ContainsFunc(m.types, func(t projection.AccountType) bool { return t.ID == a.AccountTypeID }) {
		return fmt.Errorf("account %s: %w: %s", a.ID, generic.ErrAccountTypeNotFound, a.AccountTypeID)
	}
	for i := range m.accounts {
		if m.accounts[i].ID == a.ID {
			m.accounts[i] = a
			return nil
		}
	}
	m.accounts = append(m.accounts, a)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	holidays := append([]generic.Holiday(nil), m.holidays...)
	slices.SortStableFunc(holidays, func(a, b generic.Holiday) int {
		return a.Date.Time.Compare(b.Date.Time)
	})
	return holidays, nil
}

// SaveHoliday keys holidays by date: saving on a closed date replaces the
// existing entry, ID included.
func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.holidays {
		if m.holidays[i].Date.Equal(h.Date) {
			m.holidays[i] = h
			return nil
		}
	}
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.holidays {
		if m.holidays[i].ID == id {
			m.holidays = append(m.holidays[:i], m.holidays[i+1:]...)
			return nil
		}
	}
	return generic.ErrHolidayNotFound
}

func (m *Memory) GetSettings(_ context.Context) (projection.Settings, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.settings == nil {
		return projection.Settings{}, false, nil
	}
	return *m.settings, true, nil
}

func (m *Memory) SaveSettings(_ context.Context, s projection.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

// Import replaces the configuration. The snapshot is validated first so a
// bad bundle leaves the store untouched.
func (m *Memory) Import(_ context.Context, snap projection.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restore(snap)
	return nil
}

func (m *Memory) restore(snap projection.Snapshot) {
	m.firms = append([]projection.Firm(nil), snap.Firms...)
	m.types = append([]projection.AccountType(nil), snap.AccountTypes...)
	m.accounts = append([]projection.Account(nil), snap.Accounts...)
}

// Compile-time check that Memory implements projection.Store
var _ projection.Store = (*Memory)(nil)
