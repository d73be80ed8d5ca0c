package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceUnpaid = "unpaid"
	InvoicePaid   = "paid"
)

// Invoice is a monthly bill for a contract.  At most one invoice exists per
// (contract, month, year); the invoices table carries a unique key on those
// columns.
//
// Fields:
//  ID           – opaque identifier (UUID string).
//  ContractID   – billed contract.
//  TemplateID   – template the invoice was created from, if any.
//  Month, Year  – billing period.
//  DueDate      – YYYY-MM-DD.
//  Status       – unpaid | paid.
//  Lines        – charges (invoices.line_items JSON).
//  Total        – sum of line amounts.
//  KeepReadings – meter readings carried over from the previous invoice.
type Invoice struct {
	ID           string          `json:"_id"`
	ContractID   string          `json:"contractId"`
	TemplateID   *string         `json:"templateId,omitempty"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
	DueDate      string          `json:"dueDate"`
	Status       string          `json:"status"`
	Lines        []InvoiceLine   `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	KeepReadings bool            `json:"keepReadings"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// InvoiceLine is one charge.  Quantity is zero for usage-priced lines
// until the landlord enters readings.
type InvoiceLine struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	Kind     string          `json:"kind"` // rent | service | template
}

// InvoiceTemplate is a landlord's reusable set of invoice lines.
type InvoiceTemplate struct {
	ID              string        `json:"_id"`             // invoice_templates.id
	LandlordID      uint64        `json:"landlordId"`      // invoice_templates.landlord_id
	Name            string        `json:"name"`            // invoice_templates.name
	Lines           []InvoiceLine `json:"lines"`           // invoice_templates.line_items
	IncludeRent     bool          `json:"includeRent"`     // invoice_templates.include_rent
	IncludeServices bool          `json:"includeServices"` // invoice_templates.include_services
	CreatedAt       time.Time     `json:"createdAt"`       // invoice_templates.created_at
}

// SumLines totals line amounts.
func SumLines(lines []InvoiceLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
