/*
Package sqlite provides a SQLite-backed implementation of projection.Store.

PURPOSE:
  Persists the configuration the projection engine reads: firms, account
  types, accounts, holidays and the user's projection settings.

KEY TABLES:
  firms:          Sponsors and their funded-account cap
  account_types:  Evaluation products, FK to firms
  accounts:       Purchased evaluations, FK to account_types
  holidays:       Market closures (one row per date)
  settings:       Single row: pass rate and payout start

ORDERING:
  Lists are returned in insertion order (rowid). Upserts keep the rowid,
  so editing an account type does not change simulation order.

MONEY:
  Decimal values are stored as TEXT to keep them exact.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, like the rest of the store layer.

USAGE:
  store, err := sqlite.New("./data/propdash.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  snap, err := projection.LoadSnapshot(ctx, store)

SEE ALSO:
  - projection/store.go: Interface definition
  - projection/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

// Store implements projection.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check that Store implements projection.Store
var _ projection.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS firms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		max_funded INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS account_types (
		id TEXT PRIMARY KEY,
		firm_id TEXT NOT NULL REFERENCES firms(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		eval_cost TEXT NOT NULL DEFAULT '0',
		activation_cost TEXT NOT NULL DEFAULT '0',
		default_profit_target TEXT NOT NULL DEFAULT '0',
		expected_payout TEXT,
		has_consistency_rule INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_account_types_firm
		ON account_types(firm_id);

	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		account_type_id TEXT NOT NULL REFERENCES account_types(id) ON DELETE CASCADE,
		name TEXT,
		status TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		profit_target TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	-- Seeding the simulation counts passed/funded accounts per type
	CREATE INDEX IF NOT EXISTS idx_accounts_type_status
		ON accounts(account_type_id, status);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		pass_rate_percent REAL NOT NULL,
		payout_start TEXT,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// =============================================================================
// FIRMS
// =============================================================================

// ListFirms returns all firms in insertion order.
func (s *Store) ListFirms(ctx context.Context) ([]projection.Firm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, max_funded FROM firms ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var firms []projection.Firm
	for rows.Next() {
		var f projection.Firm
		var id string
		if err := rows.Scan(&id, &f.Name, &f.MaxFunded); err != nil {
			return nil, err
		}
		f.ID = projection.FirmID(id)
		firms = append(firms, f)
	}
	return firms, rows.Err()
}

// SaveFirm inserts or updates a firm.
func (s *Store) SaveFirm(ctx context.Context, f projection.Firm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveFirm(ctx, s.db, f)
}

func saveFirm(ctx context.Context, db execer, f projection.Firm) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO firms (id, name, max_funded, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			max_funded = excluded.max_funded
	`, string(f.ID), f.Name, f.MaxFunded, now())
	return err
}

// =============================================================================
// ACCOUNT TYPES
// =============================================================================

// ListAccountTypes returns all account types in insertion order.
func (s *Store) ListAccountTypes(ctx context.Context) ([]projection.AccountType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, firm_id, name, eval_cost, activation_cost, default_profit_target,
		       expected_payout, has_consistency_rule
		FROM account_types ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []projection.AccountType
	for rows.Next() {
		var (
			t                            projection.AccountType
			id, firmID                   string
			evalCost, activation, target string
			expectedPayout               sql.NullString
		)
		if err := rows.Scan(&id, &firmID, &t.Name, &evalCost, &activation, &target, &expectedPayout, &t.HasConsistencyRule); err != nil {
			return nil, err
		}
		t.ID = projection.AccountTypeID(id)
		t.FirmID = projection.FirmID(firmID)
		t.EvalCost = parseDecimal(evalCost)
		t.ActivationCost = parseDecimal(activation)
		t.DefaultProfitTarget = parseDecimal(target)
		if expectedPayout.Valid {
			t.ExpectedPayout = decimal.NewNullDecimal(parseDecimal(expectedPayout.String))
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// SaveAccountType inserts or updates an account type. The firm must exist.
func (s *Store) SaveAccountType(ctx context.Context, t projection.AccountType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM firms WHERE id = ?", string(t.FirmID)).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("account type %s: %w: %s", t.ID, generic.ErrFirmNotFound, t.FirmID)
	}
	return saveAccountType(ctx, s.db, t)
}

func saveAccountType(ctx context.Context, db execer, t projection.AccountType) error {
	var expectedPayout sql.NullString
	if t.ExpectedPayout.Valid {
		expectedPayout = sql.NullString{String: t.ExpectedPayout.Decimal.String(), Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO account_types (id, firm_id, name, eval_cost, activation_cost,
			default_profit_target, expected_payout, has_consistency_rule, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			firm_id = excluded.firm_id,
			name = excluded.name,
			eval_cost = excluded.eval_cost,
			activation_cost = excluded.activation_cost,
			default_profit_target = excluded.default_profit_target,
			expected_payout = excluded.expected_payout,
			has_consistency_rule = excluded.has_consistency_rule
	`,
		string(t.ID), string(t.FirmID), t.Name,
		t.EvalCost.String(), t.ActivationCost.String(), t.DefaultProfitTarget.String(),
		expectedPayout, t.HasConsistencyRule, now(),
	)
	return err
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// ListAccounts returns all accounts in insertion order.
func (s *Store) ListAccounts(ctx context.Context) ([]projection.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_type_id, name, status, balance, profit_target
		FROM accounts ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []projection.Account
	for rows.Next() {
		var (
			a                     projection.Account
			id, typeID, status    string
			name                  sql.NullString
			balance, profitTarget string
		)
		if err := rows.Scan(&id, &typeID, &name, &status, &balance, &profitTarget); err != nil {
			return nil, err
		}
		a.ID = projection.AccountID(id)
		a.AccountTypeID = projection.AccountTypeID(typeID)
		a.Name = name.String
		a.Status = projection.Status(status)
		a.Balance = parseDecimal(balance)
		a.ProfitTarget = parseDecimal(profitTarget)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SaveAccount inserts or updates an account. The account type must exist.
func (s *Store) SaveAccount(ctx context.Context, a projection.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account_types WHERE id = ?", string(a.AccountTypeID)).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("account %s: %w: %s", a.ID, generic.ErrAccountTypeNotFound, a.AccountTypeID)
	}
	return saveAccount(ctx, s.db, a)
}

func saveAccount(ctx context.Context, db execer, a projection.Account) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (id, account_type_id, name, status, balance, profit_target, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			account_type_id = excluded.account_type_id,
			name = excluded.name,
			status = excluded.status,
			balance = excluded.balance,
			profit_target = excluded.profit_target
	`,
		string(a.ID), string(a.AccountTypeID), nullString(a.Name), string(a.Status),
		a.Balance.String(), a.ProfitTarget.String(), now(),
	)
	return err
}

// =============================================================================
// IMPORT
// =============================================================================

// Import replaces firms, account types and accounts in one transaction.
func (s *Store) Import(ctx context.Context, snap projection.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"accounts", "account_types", "firms"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	for _, f := range snap.Firms {
		if err := saveFirm(ctx, tx, f); err != nil {
			return err
		}
	}
	for _, t := range snap.AccountTypes {
		if err := saveAccountType(ctx, tx, t); err != nil {
			return err
		}
	}
	for _, a := range snap.Accounts {
		if err := saveAccount(ctx, tx, a); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// ListHolidays returns all stored holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT id, date, name FROM holidays ORDER BY date ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday saves a holiday. A second holiday on the same date replaces
// the first.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			id = excluded.id,
			name = excluded.name
	`, h.ID, h.Date.String(), h.Name, now())
	return err
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.ErrHolidayNotFound
	}
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

// GetSettings returns the stored projection settings.
func (s *Store) GetSettings(ctx context.Context) (projection.Settings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		settings    projection.Settings
		payoutStart sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT pass_rate_percent, payout_start FROM settings WHERE id = 1",
	).Scan(&settings.PassRatePercent, &payoutStart)
	if err == sql.ErrNoRows {
		return projection.Settings{}, false, nil
	}
	if err != nil {
		return projection.Settings{}, false, err
	}

	if settings.PayoutStart, err = generic.ParseYearMonth(payoutStart.String); err != nil {
		return projection.Settings{}, false, err
	}
	return settings, true, nil
}

// SaveSettings replaces the projection settings.
func (s *Store) SaveSettings(ctx context.Context, settings projection.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payoutStart sql.NullString
	if settings.PayoutStart != nil {
		payoutStart = sql.NullString{String: settings.PayoutStart.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, pass_rate_percent, payout_start, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pass_rate_percent = excluded.pass_rate_percent,
			payout_start = excluded.payout_start,
			updated_at = excluded.updated_at
	`, settings.PassRatePercent, payoutStart, now())
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// parseDecimal reads a stored decimal; unreadable values become zero.
func parseDecimal(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}
