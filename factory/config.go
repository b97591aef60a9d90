/*
Package factory provides JSON to Go conversion for projection configuration.

PURPOSE:
  Converts JSON firm, account-type and account definitions (from the
  dashboard forms or an import bundle) into projection types, and back.

LENIENT NUMBERS:
  Form data arrives half-edited. Numeric fields accept a JSON number or a
  numeric string. Anything else is treated as missing:
    - costs, targets, balances: 0
    - expected_payout: unset (the engine applies its 2000 default)
    - max_funded: 0 (a firm with no room)
  Structural errors (not JSON, unknown status) are still rejected.

JSON SCHEMA (bundle):
  {
    "firms": [{"id": "apex", "name": "Apex", "max_funded": 20}],
    "account_types": [{
      "id": "apex-50k", "firm_id": "apex", "name": "50K",
      "eval_cost": 167, "activation_cost": "85", "expected_payout": 2000,
      "has_consistency_rule": true
    }],
    "accounts": [{"id": "a1", "account_type_id": "apex-50k", "status": "funded"}],
    "settings": {"pass_rate": 20, "payout_start": "2026-11"}
  }

USAGE:
  f := factory.NewConfigFactory()
  snap, settings, err := f.ParseBundle(body)
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

// =============================================================================
// LENIENT NUMBER
// =============================================================================

// Number is a JSON number or numeric string. Valid is false when the field
// was missing, null or not numeric.
type Number struct {
	Value decimal.Decimal
	Valid bool
}

// NewNumber wraps a decimal for output.
func NewNumber(d decimal.Decimal) Number { return Number{Value: d, Valid: true} }

// UnmarshalJSON never fails: unparseable input leaves the number invalid.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	raw := strings.TrimSpace(string(bytes.Trim(data, `"`)))
	if raw == "" || raw == "null" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	*n = Number{Value: d, Valid: true}
	return nil
}

// MarshalJSON writes a JSON number, or null when invalid.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Value.String()), nil
}

// OrZero returns the value, or zero when invalid.
func (n Number) OrZero() decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	return n.Value
}

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// FirmJSON is the JSON representation of a firm.
type FirmJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MaxFunded Number `json:"max_funded"`
}

// AccountTypeJSON is the JSON representation of an account type.
type AccountTypeJSON struct {
	ID                  string `json:"id"`
	FirmID              string `json:"firm_id"`
	Name                string `json:"name"`
	EvalCost            Number `json:"eval_cost"`
	ActivationCost      Number `json:"activation_cost"`
	DefaultProfitTarget Number `json:"default_profit_target"`
	ExpectedPayout      Number `json:"expected_payout"`
	HasConsistencyRule  bool   `json:"has_consistency_rule"`
}

// AccountJSON is the JSON representation of an account.
type AccountJSON struct {
	ID            string `json:"id"`
	AccountTypeID string `json:"account_type_id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	Balance       Number `json:"balance"`
	ProfitTarget  Number `json:"profit_target"`
}

// SettingsJSON is the JSON representation of projection settings.
type SettingsJSON struct {
	PassRate    Number `json:"pass_rate"`
	PayoutStart string `json:"payout_start"`
}

// BundleJSON is a complete configuration export.
type BundleJSON struct {
	Firms        []FirmJSON        `json:"firms"`
	AccountTypes []AccountTypeJSON `json:"account_types"`
	Accounts     []AccountJSON     `json:"accounts"`
	Settings     *SettingsJSON     `json:"settings,omitempty"`
}

// =============================================================================
// CONFIG FACTORY
// =============================================================================

// ConfigFactory converts JSON configuration to projection types.
type ConfigFactory struct {
	// NewID generates IDs for records submitted without one.
	NewID func() string
}

// NewConfigFactory creates a factory that assigns UUIDs.
func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{NewID: uuid.NewString}
}

func (f *ConfigFactory) id(s string) string {
	if s != "" {
		return s
	}
	return f.NewID()
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrInvalidInput, err)
	}
	return nil
}

// ParseFirm parses a firm.
func (f *ConfigFactory) ParseFirm(data []byte) (projection.Firm, error) {
	var fj FirmJSON
	if err := decode(data, &fj); err != nil {
		return projection.Firm{}, err
	}
	return f.FirmFromJSON(fj), nil
}

// FirmFromJSON converts FirmJSON. A fractional cap is floored.
func (f *ConfigFactory) FirmFromJSON(fj FirmJSON) projection.Firm {
	return projection.Firm{
		ID:        projection.FirmID(f.id(fj.ID)),
		Name:      fj.Name,
		MaxFunded: generic.FloorInt(fj.MaxFunded.OrZero()),
	}
}

// ParseAccountType parses an account type.
func (f *ConfigFactory) ParseAccountType(data []byte) (projection.AccountType, error) {
	var tj AccountTypeJSON
	if err := decode(data, &tj); err != nil {
		return projection.AccountType{}, err
	}
	return f.AccountTypeFromJSON(tj), nil
}

// AccountTypeFromJSON converts AccountTypeJSON.
func (f *ConfigFactory) AccountTypeFromJSON(tj AccountTypeJSON) projection.AccountType {
	return projection.AccountType{
		ID:                  projection.AccountTypeID(f.id(tj.ID)),
		FirmID:              projection.FirmID(tj.FirmID),
		Name:                tj.Name,
		EvalCost:            tj.EvalCost.OrZero(),
		ActivationCost:      tj.ActivationCost.OrZero(),
		DefaultProfitTarget: tj.DefaultProfitTarget.OrZero(),
		ExpectedPayout:      decimal.NullDecimal{Decimal: tj.ExpectedPayout.Value, Valid: tj.ExpectedPayout.Valid},
		HasConsistencyRule:  tj.HasConsistencyRule,
	}
}

// ParseAccount parses an account. An empty status means in-progress.
func (f *ConfigFactory) ParseAccount(data []byte) (projection.Account, error) {
	var aj AccountJSON
	if err := decode(data, &aj); err != nil {
		return projection.Account{}, err
	}
	return f.AccountFromJSON(aj)
}

// AccountFromJSON converts AccountJSON.
func (f *ConfigFactory) AccountFromJSON(aj AccountJSON) (projection.Account, error) {
	status := projection.StatusInProgress
	if aj.Status != "" {
		var err error
		if status, err = projection.ParseStatus(aj.Status); err != nil {
			return projection.Account{}, err
		}
	}
	return projection.Account{
		ID:            projection.AccountID(f.id(aj.ID)),
		AccountTypeID: projection.AccountTypeID(aj.AccountTypeID),
		Name:          aj.Name,
		Status:        status,
		Balance:       aj.Balance.OrZero(),
		ProfitTarget:  aj.ProfitTarget.OrZero(),
	}, nil
}

// ParseSettings parses projection settings.
func (f *ConfigFactory) ParseSettings(data []byte) (projection.Settings, error) {
	var sj SettingsJSON
	if err := decode(data, &sj); err != nil {
		return projection.Settings{}, err
	}
	return SettingsFromJSON(sj)
}

// SettingsFromJSON converts SettingsJSON. The pass rate is not clamped.
func SettingsFromJSON(sj SettingsJSON) (projection.Settings, error) {
	start, err := generic.ParseYearMonth(sj.PayoutStart)
	if err != nil {
		return projection.Settings{}, err
	}
	return projection.Settings{
		PassRatePercent: sj.PassRate.OrZero().InexactFloat64(),
		PayoutStart:     start,
	}, nil
}

// ParseBundle parses a full configuration export. settings is nil when
// the bundle carries none.
func (f *ConfigFactory) ParseBundle(data []byte) (projection.Snapshot, *projection.Settings, error) {
	var bj BundleJSON
	if err := decode(data, &bj); err != nil {
		return projection.Snapshot{}, nil, err
	}

	var snap projection.Snapshot
	for _, fj := range bj.Firms {
		snap.Firms = append(snap.Firms, f.FirmFromJSON(fj))
	}
	for _, tj := range bj.AccountTypes {
		snap.AccountTypes = append(snap.AccountTypes, f.AccountTypeFromJSON(tj))
	}
	for i, aj := range bj.Accounts {
		a, err := f.AccountFromJSON(aj)
		if err != nil {
			return projection.Snapshot{}, nil, fmt.Errorf("accounts[%d]: %w", i, err)
		}
		snap.Accounts = append(snap.Accounts, a)
	}

	if bj.Settings == nil {
		return snap, nil, nil
	}
	settings, err := SettingsFromJSON(*bj.Settings)
	if err != nil {
		return projection.Snapshot{}, nil, err
	}
	return snap, &settings, nil
}

// =============================================================================
// TO JSON
// =============================================================================

// FirmToJSON converts a firm for output.
func FirmToJSON(firm projection.Firm) FirmJSON {
	return FirmJSON{
		ID:        string(firm.ID),
		Name:      firm.Name,
		MaxFunded: NewNumber(decimal.NewFromInt(int64(firm.MaxFunded))),
	}
}

// AccountTypeToJSON converts an account type for output.
func AccountTypeToJSON(t projection.AccountType) AccountTypeJSON {
	return AccountTypeJSON{
		ID:                  string(t.ID),
		FirmID:              string(t.FirmID),
		Name:                t.Name,
		EvalCost:            NewNumber(t.EvalCost),
		ActivationCost:      NewNumber(t.ActivationCost),
		DefaultProfitTarget: NewNumber(t.DefaultProfitTarget),
		ExpectedPayout:      Number{Value: t.ExpectedPayout.Decimal, Valid: t.ExpectedPayout.Valid},
		HasConsistencyRule:  t.HasConsistencyRule,
	}
}

// AccountToJSON converts an account for output.
func AccountToJSON(a projection.Account) AccountJSON {
	return AccountJSON{
		ID:            string(a.ID),
		AccountTypeID: string(a.AccountTypeID),
		Name:          a.Name,
		Status:        string(a.Status),
		Balance:       NewNumber(a.Balance),
		ProfitTarget:  NewNumber(a.ProfitTarget),
	}
}

// SettingsToJSON converts settings for output.
func SettingsToJSON(s projection.Settings) SettingsJSON {
	sj := SettingsJSON{PassRate: NewNumber(decimal.NewFromFloat(s.PassRatePercent))}
	if s.PayoutStart != nil {
		sj.PayoutStart = s.PayoutStart.String()
	}
	return sj
}
