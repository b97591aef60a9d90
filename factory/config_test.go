package factory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/propdash/factory"
	"github.com/warp/propdash/generic"
	"github.com/warp/propdash/projection"
)

func newFactory() *factory.ConfigFactory {
	n := 0
	return &factory.ConfigFactory{NewID: func() string {
		n++
		return "gen-" + string(rune('0'+n))
	}}
}

func TestParseAccountType_LenientNumbers(t *testing.T) {
	tests := []struct {
		name           string
		json           string
		wantEval       string
		wantActivation string
		wantPayout     string
	}{
		{
			name:           "numbers",
			json:           `{"id":"t","firm_id":"f","eval_cost":150,"activation_cost":85.5,"expected_payout":1800}`,
			wantEval:       "150",
			wantActivation: "85.5",
			wantPayout:     "1800",
		},
		{
			name:           "numeric strings",
			json:           `{"id":"t","firm_id":"f","eval_cost":"150","activation_cost":" 85 ","expected_payout":"2500"}`,
			wantEval:       "150",
			wantActivation: "85",
			wantPayout:     "2500",
		},
		{
			name:           "garbage defaults",
			json:           `{"id":"t","firm_id":"f","eval_cost":"abc","activation_cost":null,"expected_payout":"n/a"}`,
			wantEval:       "0",
			wantActivation: "0",
			wantPayout:     "2000",
		},
		{
			name:           "missing defaults",
			json:           `{"id":"t","firm_id":"f"}`,
			wantEval:       "0",
			wantActivation: "0",
			wantPayout:     "2000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := newFactory().ParseAccountType([]byte(tt.json))
			require.NoError(t, err)
			assert.True(t, at.EvalCost.Equal(decimal.RequireFromString(tt.wantEval)), "eval %s", at.EvalCost)
			assert.True(t, at.ActivationCost.Equal(decimal.RequireFromString(tt.wantActivation)), "activation %s", at.ActivationCost)
			assert.True(t, at.Payout().Equal(decimal.RequireFromString(tt.wantPayout)), "payout %s", at.Payout())
		})
	}
}

func TestParseFirm_AssignsIDAndFloorsCap(t *testing.T) {
	f, err := newFactory().ParseFirm([]byte(`{"name":"Apex","max_funded":"20.7"}`))
	require.NoError(t, err)
	assert.Equal(t, projection.FirmID("gen-1"), f.ID)
	assert.Equal(t, 20, f.MaxFunded)
}

func TestParseFirm_NotJSON(t *testing.T) {
	_, err := newFactory().ParseFirm([]byte(`{"name":`))
	assert.ErrorIs(t, err, generic.ErrInvalidInput)
}

func TestParseAccount_Status(t *testing.T) {
	f := newFactory()

	a, err := f.ParseAccount([]byte(`{"id":"a1","account_type_id":"t","status":"funded"}`))
	require.NoError(t, err)
	assert.Equal(t, projection.StatusFunded, a.Status)

	a, err = f.ParseAccount([]byte(`{"id":"a2","account_type_id":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, projection.StatusInProgress, a.Status)

	_, err = f.ParseAccount([]byte(`{"id":"a3","account_type_id":"t","status":"blown"}`))
	assert.ErrorIs(t, err, generic.ErrInvalidStatus)
}

func TestParseBundle(t *testing.T) {
	body := `{
		"firms": [{"id": "apex", "name": "Apex", "max_funded": 20}],
		"account_types": [{"id": "apex-50k", "firm_id": "apex", "eval_cost": 167, "has_consistency_rule": true}],
		"accounts": [
			{"id": "a1", "account_type_id": "apex-50k", "status": "funded"},
			{"id": "a2", "account_type_id": "apex-50k", "status": "halfway"}
		],
		"settings": {"pass_rate": "25", "payout_start": "2026-11"}
	}`

	snap, settings, err := newFactory().ParseBundle([]byte(body))
	require.NoError(t, err)
	require.NoError(t, snap.Validate())

	assert.Len(t, snap.Firms, 1)
	require.Len(t, snap.AccountTypes, 1)
	assert.True(t, snap.AccountTypes[0].HasConsistencyRule)
	assert.Len(t, snap.Accounts, 2)

	require.NotNil(t, settings)
	assert.Equal(t, 25.0, settings.PassRatePercent)
	assert.Equal(t, &generic.YearMonth{Year: 2026, Month: time.November}, settings.PayoutStart)
}

func TestParseBundle_BadPayoutStart(t *testing.T) {
	_, _, err := newFactory().ParseBundle([]byte(`{"settings": {"payout_start": "November"}}`))
	assert.ErrorIs(t, err, generic.ErrInvalidYearMonth)
}

func TestAccountTypeToJSON_UnsetPayoutStaysUnset(t *testing.T) {
	at := projection.AccountType{ID: "t", FirmID: "f", EvalCost: decimal.NewFromInt(99)}

	tj := factory.AccountTypeToJSON(at)
	back := newFactory().AccountTypeFromJSON(tj)

	assert.False(t, back.ExpectedPayout.Valid)
	assert.True(t, back.EvalCost.Equal(at.EvalCost))
}
