/*
engine.go - Day-by-day simulation of evaluation progress

PURPOSE:
  Owns the fractional passed counter of every account type and advances it
  one market day at a time, constrained by firm capacity and the
  consistency-rule slowdown.

DAILY STEP (AdvanceDay):
  For each account type, in snapshot order:
    1. Skip if the firm has no room left
    2. rate = passRate, halved under a consistency rule
    3. increment = min(rate, room); skip if <= 0
    4. Track costs: + evalCost (once per active type per day)
    5. passed += increment
    6. Track costs: + increment * activationCost

WITHIN-DAY ORDER:
  Room is recomputed per type from the already-updated counters, so a type
  evaluated earlier can consume room a later sibling would have used.
  Evaluation order is the order of Snapshot.AccountTypes.

OWNERSHIP:
  A Simulation is single-owner mutable state with no locking. Concurrent
  projections each work on their own Clone().
*/
package projection

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/propdash/generic"
)

var two = decimal.NewFromInt(2)

// Simulation holds the per-account-type fractional passed counts.
type Simulation struct {
	types    []AccountType
	firms    map[FirmID]Firm
	siblings map[FirmID][]AccountTypeID
	passed   map[AccountTypeID]decimal.Decimal
	passRate decimal.Decimal
	gate     PayoutGate
}

// NewSimulation seeds a simulation from the accounts already passed or
// funded. Account types whose firm is unknown, and accounts whose type is
// unknown, are skipped.
func NewSimulation(snap Snapshot, passRate decimal.Decimal, gate PayoutGate) *Simulation {
	s := &Simulation{
		firms:    make(map[FirmID]Firm, len(snap.Firms)),
		siblings: make(map[FirmID][]AccountTypeID),
		passed:   make(map[AccountTypeID]decimal.Decimal, len(snap.AccountTypes)),
		passRate: passRate,
		gate:     gate,
	}
	for _, f := range snap.Firms {
		s.firms[f.ID] = f
	}
	for _, t := range snap.AccountTypes {
		if _, ok := s.firms[t.FirmID]; !ok {
			continue
		}
		if _, dup := s.passed[t.ID]; dup {
			continue
		}
		s.types = append(s.types, t)
		s.siblings[t.FirmID] = append(s.siblings[t.FirmID], t.ID)
		s.passed[t.ID] = decimal.Zero
	}
	for _, a := range snap.Accounts {
		if !a.Status.CountsAsPassed() {
			continue
		}
		if count, ok := s.passed[a.AccountTypeID]; ok {
			s.passed[a.AccountTypeID] = count.Add(decimal.NewFromInt(1))
		}
	}
	return s
}

// AdvanceDay simulates one market day and returns the costs incurred that
// day, or zero when trackCosts is false.
func (s *Simulation) AdvanceDay(trackCosts bool) decimal.Decimal {
	costs := decimal.Zero
	for _, t := range s.types {
		room := RoomInFirm(s.firms[t.FirmID], s.siblings[t.FirmID], s.passed)
		if !room.IsPositive() {
			continue
		}

		rate := s.passRate
		if t.HasConsistencyRule {
			rate = rate.Div(two)
		}

		increment := generic.MinDecimal(rate, room)
		if !increment.IsPositive() {
			continue
		}

		if trackCosts {
			costs = costs.Add(t.EvalCost)
		}
		s.passed[t.ID] = s.passed[t.ID].Add(increment)
		if trackCosts && !t.ActivationCost.IsZero() {
			costs = costs.Add(increment.Mul(t.ActivationCost))
		}
	}
	return costs
}

// TotalPassedAccounts sums floor(count) over all account types.
func (s *Simulation) TotalPassedAccounts() int {
	total := 0
	for _, t := range s.types {
		total += generic.FloorInt(s.passed[t.ID])
	}
	return total
}

// Passed returns the fractional passed count of an account type.
func (s *Simulation) Passed(id AccountTypeID) decimal.Decimal {
	return s.passed[id]
}

// PassedByType returns floor(count) per account type.
func (s *Simulation) PassedByType() map[AccountTypeID]int {
	out := make(map[AccountTypeID]int, len(s.passed))
	for id, count := range s.passed {
		out[id] = generic.FloorInt(count)
	}
	return out
}

// PayoutsEnabled reports payout eligibility for a month.
func (s *Simulation) PayoutsEnabled(year int, month time.Month) bool {
	return s.gate.Enabled(year, month)
}

// PayoutAmount is floor(count) * expected payout summed over all types,
// or zero when not enabled.
func (s *Simulation) PayoutAmount(enabled bool) decimal.Decimal {
	if !enabled {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, t := range s.types {
		accounts := s.passed[t.ID].Floor()
		total = total.Add(accounts.Mul(t.Payout()))
	}
	return total
}

// Clone returns an independent copy. Configuration is immutable and shared;
// the counters are copied.
func (s *Simulation) Clone() *Simulation {
	passed := make(map[AccountTypeID]decimal.Decimal, len(s.passed))
	for id, count := range s.passed {
		passed[id] = count
	}
	return &Simulation{
		types:    s.types,
		firms:    s.firms,
		siblings: s.siblings,
		passed:   passed,
		passRate: s.passRate,
		gate:     s.gate,
	}
}
