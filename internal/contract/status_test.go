package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusInfoKnownStatuses(t *testing.T) {
	labels := map[string]bool{}
	for _, s := range AllStatuses {
		info := StatusInfo(s)
		assert.NotEqual(t, UnknownStatusLabel, info.Label, "status %s", s)
		assert.NotEmpty(t, info.Color)
		assert.NotEmpty(t, info.BackgroundColor)
		labels[info.Label] = true
	}
	assert.Len(t, labels, len(AllStatuses))
}

func TestStatusInfoUnknownFallsBack(t *testing.T) {
	for _, s := range []Status{"", "archived", "ACTIVE"} {
		assert.Equal(t, UnknownStatusLabel, StatusInfo(s).Label)
		assert.False(t, s.Known())
	}
}

func TestCanUploadImages(t *testing.T) {
	for _, s := range AllStatuses {
		want := s == StatusPendingSignature || s == StatusPendingApproval
		assert.Equal(t, want, CanUploadImages(s), "status %s", s)
	}
}

func TestResolvePDFAction(t *testing.T) {
	assert.Equal(t, PDFGenerate, ResolvePDFAction(StatusDraft, ""))
	assert.Equal(t, PDFGenerate, ResolvePDFAction(StatusDraft, "https://cdn/x.pdf"))
	assert.Equal(t, PDFView, ResolvePDFAction(StatusActive, "https://cdn/x.pdf"))
	assert.Equal(t, PDFUnavailable, ResolvePDFAction(StatusActive, ""))
	assert.Equal(t, "unavailable", PDFUnavailable.String())
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(RoleLandlord))
	assert.False(t, CanEdit(RoleTenant))
}

func TestCanTransitionAs(t *testing.T) {
	cases := []struct {
		from, to Status
		party    Party
		want     bool
	}{
		{StatusDraft, StatusPendingSignature, PartyLandlord, true},
		{StatusDraft, StatusPendingSignature, PartyTenant, false},
		{StatusPendingSignature, StatusPendingApproval, PartyTenant, true},
		{StatusPendingSignature, StatusPendingApproval, PartyLandlord, false},
		{StatusPendingApproval, StatusActive, PartyLandlord, true},
		{StatusPendingApproval, StatusActive, PartyTenant, false},
		{StatusPendingApproval, StatusRejected, PartyTenant, false},
		{StatusActive, StatusTerminated, PartyTenant, true},
		{StatusActive, StatusTerminated, PartyLandlord, true},
		{StatusActive, StatusExpired, PartySystem, true},
		{StatusActive, StatusExpired, PartyLandlord, false},
		{StatusActive, StatusNeedsResigning, PartyTenant, false},
		{StatusDraft, StatusActive, PartyLandlord, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransitionAs(tc.from, tc.to, tc.party), "%s -> %s as %s", tc.from, tc.to, tc.party)
	}
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusDraft, StatusPendingSignature))
	assert.True(t, CanTransition(StatusPendingApproval, StatusRejected))
	assert.True(t, CanTransition(StatusActive, StatusNeedsResigning))
	assert.True(t, CanTransition(StatusNeedsResigning, StatusPendingSignature))
	assert.False(t, CanTransition(StatusDraft, StatusActive))
	assert.False(t, CanTransition(StatusExpired, StatusActive))
	assert.False(t, CanTransition("bogus", StatusActive))

	assert.True(t, StatusTerminated.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusActive.Terminal())
	assert.False(t, Status("bogus").Terminal())
}
