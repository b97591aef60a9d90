package projection

import (
	"time"

	"github.com/warp/propdash/generic"
)

// PayoutGate decides from which month simulated accounts pay out.
type PayoutGate struct {
	// Start is the first eligible month; nil disables payouts.
	Start *generic.YearMonth
}

// NewPayoutGate parses a "YYYY-MM" start; empty means no start.
func NewPayoutGate(start string) (PayoutGate, error) {
	ym, err := generic.ParseYearMonth(start)
	if err != nil {
		return PayoutGate{}, err
	}
	return PayoutGate{Start: ym}, nil
}

// Enabled is true for the start month and every month after it.
func (g PayoutGate) Enabled(year int, month time.Month) bool {
	if g.Start == nil {
		return false
	}
	return g.Start.Reached(year, month)
}
