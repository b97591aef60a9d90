/*
store.go - Persistence interface for projection configuration

PURPOSE:
  The engine consumes plain read-only data: firms, account types, accounts,
  holidays and settings. Store is the boundary to whatever keeps them.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - projection/store/memory.go: In-memory for tests and what-if runs

ORDERING:
  List methods return records in insertion order. ListAccountTypes order
  becomes the within-day evaluation order of the simulation. ListHolidays
  returns holidays by date; holidays are unique per date.
*/
package projection

import (
	"context"
	"fmt"

	"github.com/warp/propdash/generic"
)

// Store handles persistence of projection configuration.
type Store interface {
	ListFirms(ctx context.Context) ([]Firm, error)
	SaveFirm(ctx context.Context, f Firm) error

	ListAccountTypes(ctx context.Context) ([]AccountType, error)
	SaveAccountType(ctx context.Context, t AccountType) error

	ListAccounts(ctx context.Context) ([]Account, error)
	SaveAccount(ctx context.Context, a Account) error

	ListHolidays(ctx context.Context) ([]generic.Holiday, error)
	SaveHoliday(ctx context.Context, h generic.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error

	// GetSettings returns the stored settings; ok is false when none are stored.
	GetSettings(ctx context.Context) (s Settings, ok bool, err error)
	SaveSettings(ctx context.Context, s Settings) error

	// Import replaces firms, account types and accounts atomically.
	Import(ctx context.Context, snap Snapshot) error
}

// LoadSnapshot reads the configuration a simulation is seeded from.
func LoadSnapshot(ctx context.Context, store Store) (Snapshot, error) {
	firms, err := store.ListFirms(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	types, err := store.ListAccountTypes(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Firms: firms, AccountTypes: types, Accounts: accounts}, nil
}

// LoadCalendar builds a market calendar from stored holidays, falling back
// to fallback when none are stored. Callers that edit holidays seed the
// fallback first (see SeedHolidays) so an edit never drops it.
func LoadCalendar(ctx context.Context, store Store, fallback []generic.Holiday) (*generic.MarketCalendar, error) {
	holidays, err := store.ListHolidays(ctx)
	if err != nil {
		return nil, err
	}
	if len(holidays) == 0 {
		holidays = fallback
	}
	return generic.NewMarketCalendar(holidays), nil
}

// SeedHolidays stores holidays when the store has none yet and reports
// whether it wrote anything. Once seeded the stored table is the whole
// calendar and every listed closure can be deleted by ID.
func SeedHolidays(ctx context.Context, store Store, holidays []generic.Holiday) (bool, error) {
	stored, err := store.ListHolidays(ctx)
	if err != nil {
		return false, err
	}
	if len(stored) > 0 {
		return false, nil
	}
	if err := SaveHolidays(ctx, store, holidays); err != nil {
		return false, err
	}
	return len(holidays) > 0, nil
}

// SaveHolidays upserts each holiday. Stores key holidays by date, so a
// holiday on an already closed date replaces the existing entry.
func SaveHolidays(ctx context.Context, store Store, holidays []generic.Holiday) error {
	for _, h := range holidays {
		if err := store.SaveHoliday(ctx, h); err != nil {
			return fmt.Errorf("save holiday %s: %w", h.Date, err)
		}
	}
	return nil
}
