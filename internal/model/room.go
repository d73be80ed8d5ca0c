package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/rental-contracts/internal/contract"
)

// Room is a rentable unit owned by a landlord.  Its service catalog is the
// source the contract form toggles services from.
type Room struct {
	ID             string                   `json:"_id"`            // rooms.id
	LandlordID     uint64                   `json:"landlordId"`     // rooms.landlord_id
	Name           string                   `json:"name"`           // rooms.name
	RentPrice      decimal.Decimal          `json:"rentPrice"`      // rooms.rent_price
	Deposit        decimal.Decimal          `json:"deposit"`        // rooms.deposit
	MaxOccupancy   int                      `json:"maxOccupancy"`   // rooms.max_occupancy
	ServiceFee     ServiceFeeConfig         `json:"serviceFee"`     // rooms.service_fee (JSON)
	Furniture      []string                 `json:"furniture"`      // rooms.furniture (JSON)
	Amenities      []string                 `json:"amenities"`      // rooms.amenities (JSON)
	CustomServices []contract.CustomService `json:"customServices"` // room_services rows
	CreatedAt      time.Time                `json:"createdAt"`      // rooms.created_at
}
