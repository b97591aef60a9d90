package projection

import "github.com/shopspring/decimal"

// RoomInFirm returns firm.MaxFunded minus the fractional passed counts of
// the firm's account types. A non-positive result means the firm is
// saturated. The result is not clamped.
func RoomInFirm(firm Firm, typesOfFirm []AccountTypeID, passed map[AccountTypeID]decimal.Decimal) decimal.Decimal {
	room := decimal.NewFromInt(int64(firm.MaxFunded))
	for _, id := range typesOfFirm {
		room = room.Sub(passed[id])
	}
	return room
}
