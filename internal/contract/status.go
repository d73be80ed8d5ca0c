// Package contract holds the contract rules shared by the API server and the
// client tooling: status display metadata, the permitted actions per status,
// contract form validation and custom-service diffing.
package contract

// Status is the lifecycle state of a contract as reported by the server.
type Status string

const (
	StatusDraft            Status = "draft"
	StatusPendingSignature Status = "pending_signature"
	StatusPendingApproval  Status = "pending_approval"
	StatusActive           Status = "active"
	StatusNeedsResigning   Status = "needs_resigning"
	StatusExpired          Status = "expired"
	StatusTerminated       Status = "terminated"
	StatusRejected         Status = "rejected"
)

// UnknownStatusLabel is shown for any status the client does not recognise.
const UnknownStatusLabel = "Không xác định"

// Roles carried in the JWT "role" claim.
const (
	RoleLandlord = "LANDLORD"
	RoleTenant   = "TENANT"
)

// AllStatuses lists the known statuses in lifecycle order.
var AllStatuses = []Status{
	StatusDraft,
	StatusPendingSignature,
	StatusPendingApproval,
	StatusActive,
	StatusNeedsResigning,
	StatusExpired,
	StatusTerminated,
	StatusRejected,
}

// DisplayInfo is the badge metadata rendered next to a contract.
type DisplayInfo struct {
	Label           string `json:"label"`
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	TextColorLabel  string `json:"textColorLabel"`
}

var statusDisplay = map[Status]DisplayInfo{
	StatusDraft: {
		Label: "Bản nháp", Color: "#6B7280", BackgroundColor: "#F3F4F6",
		TextColor: "#374151", TextColorLabel: "#6B7280",
	},
	StatusPendingSignature: {
		Label: "Chờ ký", Color: "#F59E0B", BackgroundColor: "#FEF3C7",
		TextColor: "#92400E", TextColorLabel: "#B45309",
	},
	StatusPendingApproval: {
		Label: "Chờ duyệt", Color: "#3B82F6", BackgroundColor: "#DBEAFE",
		TextColor: "#1E40AF", TextColorLabel: "#1D4ED8",
	},
	StatusActive: {
		Label: "Đang hiệu lực", Color: "#10B981", BackgroundColor: "#D1FAE5",
		TextColor: "#065F46", TextColorLabel: "#047857",
	},
	StatusNeedsResigning: {
		Label: "Cần ký lại", Color: "#F97316", BackgroundColor: "#FFEDD5",
		TextColor: "#9A3412", TextColorLabel: "#C2410C",
	},
	StatusExpired: {
		Label: "Hết hạn", Color: "#9CA3AF", BackgroundColor: "#E5E7EB",
		TextColor: "#4B5563", TextColorLabel: "#6B7280",
	},
	StatusTerminated: {
		Label: "Đã chấm dứt", Color: "#EF4444", BackgroundColor: "#FEE2E2",
		TextColor: "#991B1B", TextColorLabel: "#B91C1C",
	},
	StatusRejected: {
		Label: "Bị từ chối", Color: "#DC2626", BackgroundColor: "#FEE2E2",
		TextColor: "#7F1D1D", TextColorLabel: "#B91C1C",
	},
}

var unknownDisplay = DisplayInfo{
	Label: UnknownStatusLabel, Color: "#6B7280", BackgroundColor: "#F3F4F6",
	TextColor: "#374151", TextColorLabel: "#6B7280",
}

// StatusInfo returns the display metadata for a status. Unrecognised values
// fall back to the "unknown" badge so newer server statuses still render.
func StatusInfo(s Status) DisplayInfo {
	if info, ok := statusDisplay[s]; ok {
		return info
	}
	return unknownDisplay
}

// Known reports whether s is one of the statuses in AllStatuses.
func (s Status) Known() bool {
	_, ok := statusDisplay[s]
	return ok
}

// CanUploadImages reports whether signed contract scans may be attached.
func CanUploadImages(s Status) bool {
	return s == StatusPendingSignature || s == StatusPendingApproval
}

// PDFAction is what the contract PDF button does for a given status.
type PDFAction int

const (
	PDFUnavailable PDFAction = iota
	PDFGenerate
	PDFView
)

func (a PDFAction) String() string {
	switch a {
	case PDFGenerate:
		return "generate"
	case PDFView:
		return "view"
	default:
		return "unavailable"
	}
}

// ResolvePDFAction decides between generating a fresh PDF (drafts only) and
// opening the stored one.
func ResolvePDFAction(s Status, pdfURL string) PDFAction {
	if s == StatusDraft {
		return PDFGenerate
	}
	if pdfURL != "" {
		return PDFView
	}
	return PDFUnavailable
}

// CanEdit reports whether role may edit a contract. Landlords can edit in
// every status.
func CanEdit(role string) bool {
	return role == RoleLandlord
}

// Party is who drives a transition.
type Party string

const (
	PartyLandlord Party = "landlord"
	PartyTenant   Party = "tenant"
	PartySystem   Party = "system"
)

// transitions is the server-side lifecycle with the parties allowed on each
// edge. Clients never consult it; they re-fetch the contract after every
// confirming action.
var transitions = map[Status]map[Status][]Party{
	StatusDraft: {
		StatusPendingSignature: {PartyLandlord},
	},
	StatusPendingSignature: {
		StatusPendingApproval: {PartyTenant},
	},
	StatusPendingApproval: {
		StatusActive:   {PartyLandlord},
		StatusRejected: {PartyLandlord},
	},
	StatusActive: {
		StatusExpired:        {PartySystem},
		StatusTerminated:     {PartyLandlord, PartyTenant},
		StatusNeedsResigning: {PartyLandlord},
	},
	StatusNeedsResigning: {
		StatusPendingSignature: {PartyLandlord},
	},
}

// CanTransition reports whether the lifecycle has an edge from one status
// to another, whoever drives it.
func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

// CanTransitionAs reports whether party may drive the edge from one status
// to another.
func CanTransitionAs(from, to Status, party Party) bool {
	for _, p := range transitions[from][to] {
		if p == party {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s Status) Terminal() bool {
	return s.Known() && len(transitions[s]) == 0
}
