/*
Package projection implements the prop-firm projection engine.

PURPOSE:
  Given the configured firms, their account types and the accounts already
  passed or funded, simulate future trading days to predict how many
  evaluation accounts will pass and how much money will be spent and paid
  out per day, month and year.

KEY CONCEPTS:
  Firm:         Sponsor with a cap (MaxFunded) on passed+funded accounts
  AccountType:  Evaluation product of a firm; the unit of simulation
  Simulation:   Fractional passed counters advanced one market day at a time
  PayoutGate:   From which month simulated accounts pay out
  Builders:     BuildMonthCalendar (calendar grid), BuildYearlyProjection (12 months)

FRACTIONAL PROGRESS:
  Each account type carries a decimal passed count. Partial progress
  accumulates across days; only floor(count) is ever reported as an
  account. The counter never decreases and never exceeds firm capacity.

EXAMPLE:
  sim := projection.NewSimulation(snapshot, generic.RateFromPercent(20), projection.PayoutGate{})
  for _, day := range generic.MonthPeriod(2026, time.November).Days() {
      if generic.IsMarketDay(cal, day) {
          cost := sim.AdvanceDay(true)
          ...
      }
  }
  fmt.Println(sim.TotalPassedAccounts())
*/
package projection

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/propdash/generic"
)

// DefaultExpectedPayout applies when an account type has no expected payout.
var DefaultExpectedPayout = decimal.NewFromInt(2000)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type FirmID string
type AccountTypeID string
type AccountID string

// =============================================================================
// CONFIGURATION - Immutable during a simulation run
// =============================================================================

// Firm caps the combined passed+funded accounts across its account types.
type Firm struct {
	ID        FirmID
	Name      string
	MaxFunded int
}

// AccountType is an evaluation product sold by a firm.
type AccountType struct {
	ID                  AccountTypeID
	FirmID              FirmID
	Name                string
	EvalCost            decimal.Decimal
	ActivationCost      decimal.Decimal
	DefaultProfitTarget decimal.Decimal

	// Unset means DefaultExpectedPayout.
	ExpectedPayout decimal.NullDecimal

	// HasConsistencyRule halves the daily pass rate.
	HasConsistencyRule bool
}

// Payout returns the expected payout per passed account.
func (t AccountType) Payout() decimal.Decimal {
	if !t.ExpectedPayout.Valid {
		return DefaultExpectedPayout
	}
	return t.ExpectedPayout.Decimal
}

// Status is the lifecycle state of an account.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusHalfway    Status = "halfway"
	StatusPassed     Status = "passed"
	StatusFunded     Status = "funded"
	StatusFailed     Status = "failed"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusInProgress, StatusHalfway, StatusPassed, StatusFunded, StatusFailed:
		return st, nil
	}
	return "", &generic.ParseError{Field: "status", Value: s, Err: generic.ErrInvalidStatus}
}

// CountsAsPassed reports whether the account seeds the simulation.
func (s Status) CountsAsPassed() bool {
	return s == StatusPassed || s == StatusFunded
}

// Account is a purchased evaluation. Balance and ProfitTarget are for the
// live dashboard; the engine only reads AccountTypeID and Status.
type Account struct {
	ID            AccountID
	AccountTypeID AccountTypeID
	Name          string
	Status        Status
	Balance       decimal.Decimal
	ProfitTarget  decimal.Decimal
}

// Settings are the user's projection assumptions.
type Settings struct {
	// PassRatePercent is the assumed daily pass probability, 0-100.
	PassRatePercent float64

	// PayoutStart is the first month payouts count; nil means never.
	PayoutStart *generic.YearMonth
}

// PassRate converts PassRatePercent to a 0-1 rate.
func (s Settings) PassRate() decimal.Decimal {
	return generic.RateFromPercent(s.PassRatePercent)
}

// =============================================================================
// SNAPSHOT - Read-only configuration handed to the engine
// =============================================================================

// Snapshot is the configuration a simulation is seeded from. The order of
// AccountTypes is the within-day evaluation order.
type Snapshot struct {
	Firms        []Firm
	AccountTypes []AccountType
	Accounts     []Account
}

// Firm looks up a firm by ID.
func (s Snapshot) Firm(id FirmID) (Firm, bool) {
	for _, f := range s.Firms {
		if f.ID == id {
			return f, true
		}
	}
	return Firm{}, false
}

// AccountType looks up an account type by ID.
func (s Snapshot) AccountType(id AccountTypeID) (AccountType, bool) {
	for _, t := range s.AccountTypes {
		if t.ID == id {
			return t, true
		}
	}
	return AccountType{}, false
}

// Validate checks references between the configuration records.
func (s Snapshot) Validate() error {
	for _, t := range s.AccountTypes {
		if _, ok := s.Firm(t.FirmID); !ok {
			return fmt.Errorf("account type %s: %w: %s", t.ID, generic.ErrFirmNotFound, t.FirmID)
		}
	}
	for _, a := range s.Accounts {
		if _, ok := s.AccountType(a.AccountTypeID); !ok {
			return fmt.Errorf("account %s: %w: %s", a.ID, generic.ErrAccountTypeNotFound, a.AccountTypeID)
		}
	}
	return nil
}
