package model

import "github.com/iliyamo/rental-contracts/internal/contract"

// Error codes carried in the "code" field of error responses.  Clients must
// branch on these instead of the localised message text.
const (
	CodeValidation        = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeInvoiceExists     = "INVOICE_EXISTS"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeStatusLocked      = "STATUS_LOCKED"
	CodeBusy              = "CONTRACT_BUSY"
	CodeInternal          = "INTERNAL"
)

// APIResponse is the envelope of the invoice endpoints.
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Code    string        `json:"code,omitempty"`
	Errors  []string      `json:"errors,omitempty"`
	Data    *ResponseData `json:"data,omitempty"`
}

// ResponseData carries the created invoice reference.
type ResponseData struct {
	Invoice *InvoiceRef `json:"invoice,omitempty"`
}

// InvoiceRef identifies a created invoice.
type InvoiceRef struct {
	ID string `json:"_id"`
}

// InvoiceID returns the created invoice id or "".
func (r *APIResponse) InvoiceID() string {
	if r == nil || r.Data == nil || r.Data.Invoice == nil {
		return ""
	}
	return r.Data.Invoice.ID
}

// ApplyTemplateRequest is the body of POST /invoice-templates/:id/apply.
type ApplyTemplateRequest struct {
	ContractID   string `json:"contractId" validate:"required"`
	Month        int    `json:"month" validate:"min=1,max=12"`
	Year         int    `json:"year" validate:"min=2000,max=2100"`
	DueDate      string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	KeepReadings bool   `json:"keepReadings"`
}

// CreateInvoiceRequest is the body of POST /invoices.
type CreateInvoiceRequest struct {
	ContractID      string `json:"contractId" validate:"required"`
	Month           int    `json:"month" validate:"min=1,max=12"`
	Year            int    `json:"year" validate:"min=2000,max=2100"`
	DueDate         string `json:"dueDate" validate:"required,datetime=2006-01-02"`
	IncludeServices bool   `json:"includeServices"`
}

// CreateContractRequest is the body of POST /contracts.  A NotificationID
// marks creation from a tenant's rental request; without it the direct flow
// rules (room occupancy) apply.
type CreateContractRequest struct {
	RoomID          string                   `json:"roomId" validate:"required"`
	NotificationID  string                   `json:"notificationId,omitempty"`
	TenantID        uint64                   `json:"tenantId,omitempty"`
	ContractTerm    float64                  `json:"contractTerm"`
	StartDate       string                   `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Rules           string                   `json:"rules"`
	AdditionalTerms string                   `json:"additionalTerms"`
	CoTenants       string                   `json:"coTenants"`
	Tenant          Party                    `json:"tenant"`
	CustomServices  []contract.CustomService `json:"customServices" validate:"dive"`
}

// Form maps the request onto the validator's input.
func (r CreateContractRequest) Form(maxOccupancy int) contract.ContractForm {
	return contract.ContractForm{
		ContractTerm:    r.ContractTerm,
		StartDate:       r.StartDate,
		Rules:           r.Rules,
		AdditionalTerms: r.AdditionalTerms,
		CoTenants:       r.CoTenants,
		MainTenantName:  r.Tenant.Name,
		MainTenantPhone: r.Tenant.Phone,
		MaxOccupancy:    maxOccupancy,
	}
}

// UpdateContractRequest is the body of PATCH /contracts/:id.  Either the
// explicit upsert/remove lists or the legacy tombstoned list may be sent.
type UpdateContractRequest struct {
	Rules           *string                  `json:"rules,omitempty"`
	AdditionalTerms *string                  `json:"additionalTerms,omitempty"`
	UpsertServices  []contract.CustomService `json:"upsertServices,omitempty" validate:"dive"`
	RemoveServices  []contract.CustomService `json:"removeServices,omitempty"`
	CustomServices  []contract.LegacyService `json:"customServices,omitempty"`
}

// ServiceDiff merges both encodings into one change set.
func (r UpdateContractRequest) ServiceDiff() contract.ServiceDiff {
	diff := contract.FromLegacy(r.CustomServices)
	diff.Upsert = append(diff.Upsert, r.UpsertServices...)
	diff.Remove = append(diff.Remove, r.RemoveServices...)
	return diff
}

// TransitionRequest is the body of POST /contracts/:id/status.
type TransitionRequest struct {
	Status contract.Status `json:"status" validate:"required"`
	Note   string          `json:"note" validate:"max=500"`
}

// ImagesRequest is the body of POST /contracts/:id/images.
type ImagesRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=10,dive,url"`
}

// PDFResponse is returned by POST /contracts/:id/pdf.
type PDFResponse struct {
	URL string `json:"url"`
}
