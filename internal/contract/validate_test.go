package contract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validForm() ContractForm {
	return ContractForm{
		ContractTerm:   12,
		StartDate:      "2025-03-01",
		Rules:          "Không hút thuốc",
		CoTenants:      "Bình, Châu",
		MainTenantName: "An",
		MaxOccupancy:   4,
	}
}

func TestValidateAcceptsValidForm(t *testing.T) {
	for _, flow := range []Flow{FlowNotification, FlowDirect} {
		res := Validate(validForm(), flow)
		assert.True(t, res.IsValid)
		assert.Empty(t, res.Errors)
	}
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	for _, term := range []float64{0, -3, 1.5} {
		form := validForm()
		form.ContractTerm = term
		form.StartDate = ""
		form.Rules = "   "

		res := Validate(form, FlowNotification)
		assert.False(t, res.IsValid)
		assert.Equal(t, []string{MsgTermInvalid, MsgStartDateRequired, MsgRulesRequired}, res.Errors)
		assert.Equal(t, MsgTermInvalid+"\n"+MsgStartDateRequired+"\n"+MsgRulesRequired, res.Message())
	}
}

func TestValidateTermRange(t *testing.T) {
	form := validForm()
	form.ContractTerm = 61
	res := Validate(form, FlowNotification)
	assert.Equal(t, []string{msgTermRange}, res.Errors)

	form.ContractTerm = 60
	assert.True(t, Validate(form, FlowNotification).IsValid)
}

func TestValidateTextLimits(t *testing.T) {
	form := validForm()
	form.Rules = strings.Repeat("ă", MaxTextLength)
	assert.True(t, Validate(form, FlowNotification).IsValid)

	form.Rules = strings.Repeat("ă", MaxTextLength+1)
	form.AdditionalTerms = strings.Repeat("x", MaxTextLength+1)
	res := Validate(form, FlowNotification)
	assert.Equal(t, []string{msgRulesTooLong, msgAdditionalLong}, res.Errors)
}

func TestValidateTermsEdit(t *testing.T) {
	long := strings.Repeat("ă", MaxTextLength+1)
	blank := "  "
	ok := strings.Repeat("ă", MaxTextLength)

	assert.True(t, ValidateTermsEdit(nil, nil).IsValid)
	assert.True(t, ValidateTermsEdit(&ok, &ok).IsValid)
	assert.Equal(t, []string{MsgRulesRequired}, ValidateTermsEdit(&blank, nil).Errors)
	assert.Equal(t, []string{msgRulesTooLong, msgAdditionalLong}, ValidateTermsEdit(&long, &long).Errors)
	assert.Equal(t, []string{msgAdditionalLong}, ValidateTermsEdit(nil, &long).Errors)
}

func TestValidateDirectFlowRequiresRoom(t *testing.T) {
	form := validForm()
	form.MaxOccupancy = 0
	res := Validate(form, FlowDirect)
	assert.Equal(t, []string{MsgChooseRoomFirst}, res.Errors)

	// the notification flow ignores occupancy
	assert.True(t, Validate(form, FlowNotification).IsValid)
}

func TestValidateDirectFlowOccupancy(t *testing.T) {
	form := validForm()
	form.MaxOccupancy = 2
	res := Validate(form, FlowDirect)
	assert.False(t, res.IsValid)
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "(3)")

	form.MaxOccupancy = 3
	assert.True(t, Validate(form, FlowDirect).IsValid)
}

func TestParseCoTenants(t *testing.T) {
	assert.Equal(t, []string{"Alice", "bob", "ALICE"}, ParseCoTenants(" Alice, bob ,, ALICE ,"))
	assert.Empty(t, ParseCoTenants(""))
	assert.Empty(t, ParseCoTenants(" , ,"))
}

func TestDuplicateCoTenantsReportedOnce(t *testing.T) {
	dups := DuplicateCoTenants(ParseCoTenants("Alice, bob, ALICE"))
	assert.Equal(t, []string{"Alice"}, dups)

	dups = DuplicateCoTenants([]string{"a", "A", "a", "b", "B"})
	assert.Equal(t, []string{"a", "b"}, dups)
}

func TestValidateDuplicateCoTenants(t *testing.T) {
	form := validForm()
	form.CoTenants = "Alice, bob, ALICE"
	res := Validate(form, FlowNotification)
	assert.Equal(t, []string{"Tên người ở cùng bị trùng: Alice"}, res.Errors)
}

func TestValidateMainTenantInCoTenants(t *testing.T) {
	form := validForm()
	form.MainTenantName = "A"
	form.CoTenants = "A, B"
	res := Validate(form, FlowNotification)
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{MsgMainTenantInCoTenant}, res.Errors)
}

func TestCrossChecksSkippedWhenBaseFails(t *testing.T) {
	form := validForm()
	form.Rules = ""
	form.MainTenantName = "A"
	form.CoTenants = "A, a"
	res := Validate(form, FlowNotification)
	assert.Equal(t, []string{MsgRulesRequired}, res.Errors)
}

func TestValidatePhone(t *testing.T) {
	form := validForm()
	form.MainTenantPhone = "0912345678"
	assert.True(t, Validate(form, FlowNotification).IsValid)

	form.MainTenantPhone = "12"
	res := Validate(form, FlowNotification)
	assert.Equal(t, []string{MsgPhoneInvalid}, res.Errors)
}
