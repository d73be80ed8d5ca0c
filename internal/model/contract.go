package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/rental-contracts/internal/contract"
)

// Contract is a lease between a landlord and a tenant for one room.  The
// row lives in `contracts`; status history, signed images and services are
// stored in child tables and loaded by the repository.
//
// Fields:
//  ID                   – opaque identifier (UUID string).
//  LandlordID           – user who owns the room.
//  TenantID             – main tenant user (zero when the tenant has no account).
//  RoomID               – rented room.
//  Status               – lifecycle state, changed only by the server.
//  ContractInfo         – snapshot of terms taken at creation.
//  CustomServices       – extra fee lines currently attached.
//  StatusHistory        – append-only audit trail.
//  SignedContractImages – scans of the signed paper contract.
//  ContractPDFURL       – generated PDF, empty until generated.
type Contract struct {
	ID                   string                   `json:"_id"`
	LandlordID           uint64                   `json:"landlordId"`
	TenantID             uint64                   `json:"tenantId,omitempty"`
	RoomID               string                   `json:"roomId"`
	Status               contract.Status          `json:"status"`
	ContractInfo         ContractInfo             `json:"contractInfo"`
	CustomServices       []contract.CustomService `json:"customServices"`
	StatusHistory        []StatusEntry            `json:"statusHistory"`
	SignedContractImages []string                 `json:"signedContractImages"`
	ContractPDFURL       string                   `json:"contractPdfUrl,omitempty"`
	CreatedAt            time.Time                `json:"createdAt"`
	UpdatedAt            time.Time                `json:"updatedAt"`
}

// ContractInfo is persisted as a JSON column (contracts.contract_info).
type ContractInfo struct {
	RentPrice       decimal.Decimal  `json:"rentPrice"`
	Deposit         decimal.Decimal  `json:"deposit"`
	ContractTerm    int              `json:"contractTerm"`
	StartDate       string           `json:"startDate"`
	EndDate         string           `json:"endDate"`
	Rules           string           `json:"rules"`
	AdditionalTerms string           `json:"additionalTerms,omitempty"`
	Tenant          Party            `json:"tenant"`
	Landlord        Party            `json:"landlord"`
	ServiceFee      ServiceFeeConfig `json:"serviceFee"`
	Furniture       []string         `json:"furniture"`
	Amenities       []string         `json:"amenities"`
	CoTenants       []string         `json:"coTenants"`
	MaxOccupancy    int              `json:"maxOccupancy"`
}

// Party identifies one side of the contract.
type Party struct {
	Name           string `json:"name"`
	Phone          string `json:"phone,omitempty"`
	IdentityNumber string `json:"identityNumber,omitempty"`
}

// ServiceFeeConfig holds utility prices agreed at signing.
type ServiceFeeConfig struct {
	Electricity decimal.Decimal `json:"electricity"`
	Water       decimal.Decimal `json:"water"`
	WaterType   string          `json:"waterType"` // perPerson | perUsage
}

// StatusEntry is one row of contract_status_history.
type StatusEntry struct {
	Status contract.Status `json:"status"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

// Occupants counts the main tenant plus co-tenants.
func (c Contract) Occupants() int {
	return 1 + len(c.ContractInfo.CoTenants)
}

// ContractPage is one page of GET /contracts.
type ContractPage struct {
	Items []Contract `json:"items"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Total int        `json:"total"`
}
