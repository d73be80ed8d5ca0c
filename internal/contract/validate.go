package contract

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ttacon/libphonenumber"
)

// Flow identifies which contract-creation screen produced a form.
type Flow int

const (
	// FlowNotification is creation from a tenant's rental request.
	FlowNotification Flow = iota
	// FlowDirect is creation without a request; the landlord picks the room.
	FlowDirect
)

const (
	MinContractTerm = 1
	MaxContractTerm = 60
	MaxTextLength   = 1000

	// DefaultPhoneRegion is used when a phone number has no country prefix.
	DefaultPhoneRegion = "VN"
)

// Validation messages shown to the landlord.
const (
	MsgTermInvalid          = "Thời hạn hợp đồng phải là số nguyên dương"
	MsgStartDateRequired    = "Vui lòng chọn ngày bắt đầu"
	MsgRulesRequired        = "Vui lòng nhập nội quy"
	MsgChooseRoomFirst      = "Vui lòng chọn phòng trước"
	MsgMainTenantInCoTenant = "Tên người thuê chính không được trùng với người ở cùng"
	MsgPhoneInvalid         = "Số điện thoại người thuê không hợp lệ"
)

var (
	msgTermRange       = fmt.Sprintf("Thời hạn hợp đồng phải từ %d đến %d tháng", MinContractTerm, MaxContractTerm)
	msgRulesTooLong    = fmt.Sprintf("Nội quy không được vượt quá %d ký tự", MaxTextLength)
	msgAdditionalLong  = fmt.Sprintf("Điều khoản bổ sung không được vượt quá %d ký tự", MaxTextLength)
	msgOccupancyFormat = "Số người ở (%d) vượt quá sức chứa tối đa của phòng (%d)"
	msgDuplicateFormat = "Tên người ở cùng bị trùng: %s"
)

// ContractForm is the raw input of the contract-creation screens.
// CoTenants is the comma separated text typed by the landlord.
type ContractForm struct {
	ContractTerm    float64
	StartDate       string
	Rules           string
	AdditionalTerms string
	CoTenants       string
	MainTenantName  string
	MainTenantPhone string
	// MaxOccupancy is only consulted by FlowDirect; 0 means no room chosen.
	MaxOccupancy int
}

// ValidationResult collects every violated rule.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Message joins all errors into the single alert body.
func (r ValidationResult) Message() string {
	return strings.Join(r.Errors, "\n")
}

func (r *ValidationResult) add(msg string) {
	r.Errors = append(r.Errors, msg)
	r.IsValid = false
}

// Validate runs the base checks for the given flow and, only when they all
// pass, the co-tenant cross checks.
func Validate(form ContractForm, flow Flow) ValidationResult {
	res := validateBase(form, flow)
	if !res.IsValid {
		return res
	}
	names := ParseCoTenants(form.CoTenants)
	if dups := DuplicateCoTenants(names); len(dups) > 0 {
		res.add(fmt.Sprintf(msgDuplicateFormat, strings.Join(dups, ", ")))
	}
	if MainTenantListed(form.MainTenantName, names) {
		res.add(MsgMainTenantInCoTenant)
	}
	return res
}

// ValidateTermsEdit checks the text of a terms edit with the same limits as
// creation.  Nil fields are not being changed and are skipped.
func ValidateTermsEdit(rules, additionalTerms *string) ValidationResult {
	res := ValidationResult{IsValid: true, Errors: []string{}}
	if rules != nil {
		res.checkRules(*rules)
	}
	if additionalTerms != nil {
		res.checkAdditionalTerms(*additionalTerms)
	}
	return res
}

func (r *ValidationResult) checkRules(rules string) {
	if strings.TrimSpace(rules) == "" {
		r.add(MsgRulesRequired)
	} else if utf8.RuneCountInString(rules) > MaxTextLength {
		r.add(msgRulesTooLong)
	}
}

func (r *ValidationResult) checkAdditionalTerms(terms string) {
	if utf8.RuneCountInString(terms) > MaxTextLength {
		r.add(msgAdditionalLong)
	}
}

func validateBase(form ContractForm, flow Flow) ValidationResult {
	res := ValidationResult{IsValid: true, Errors: []string{}}

	term := form.ContractTerm
	switch {
	case term <= 0 || math.IsNaN(term) || term != math.Trunc(term):
		res.add(MsgTermInvalid)
	case term < MinContractTerm || term > MaxContractTerm:
		res.add(msgTermRange)
	}

	if strings.TrimSpace(form.StartDate) == "" {
		res.add(MsgStartDateRequired)
	}

	res.checkRules(form.Rules)
	res.checkAdditionalTerms(form.AdditionalTerms)

	if form.MainTenantPhone != "" && !ValidPhone(form.MainTenantPhone) {
		res.add(MsgPhoneInvalid)
	}

	if flow == FlowDirect {
		if form.MaxOccupancy == 0 {
			res.add(MsgChooseRoomFirst)
		} else if total := 1 + len(ParseCoTenants(form.CoTenants)); total > form.MaxOccupancy {
			res.add(fmt.Sprintf(msgOccupancyFormat, total, form.MaxOccupancy))
		}
	}
	return res
}

// ParseCoTenants splits raw comma separated names, trimming blanks and
// dropping empty entries while keeping input order.
func ParseCoTenants(raw string) []string {
	out := []string{}
	for _, tok := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(tok); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// DuplicateCoTenants returns each name that occurs more than once
// (case-insensitive), reported once using its first spelling.
func DuplicateCoTenants(names []string) []string {
	first := make(map[string]string, len(names))
	count := make(map[string]int, len(names))
	order := []string{}
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := first[key]; !ok {
			first[key] = n
			order = append(order, key)
		}
		count[key]++
	}
	dups := []string{}
	for _, key := range order {
		if count[key] > 1 {
			dups = append(dups, first[key])
		}
	}
	return dups
}

// MainTenantListed reports whether the main tenant also appears among the
// co-tenants, ignoring case and surrounding blanks.
func MainTenantListed(mainTenant string, coTenants []string) bool {
	main := strings.TrimSpace(mainTenant)
	if main == "" {
		return false
	}
	for _, n := range coTenants {
		if strings.EqualFold(n, main) {
			return true
		}
	}
	return false
}

// ValidPhone reports whether raw parses as a valid number, assuming
// DefaultPhoneRegion when no country code is given.
func ValidPhone(raw string) bool {
	num, err := libphonenumber.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}
