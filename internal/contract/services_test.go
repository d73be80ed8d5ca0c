package contract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func svc(id, name string, price int64) CustomService {
	return CustomService{ID: id, Name: name, Price: decimal.NewFromInt(price), PriceType: PricePerRoom}
}

func names(list []CustomService) []string {
	out := []string{}
	for _, s := range list {
		out = append(out, s.Name)
	}
	return out
}

func TestDiffServices(t *testing.T) {
	original := []CustomService{svc("1", "Parking", 100), svc("2", "Laundry", 50)}
	selected := []CustomService{svc("", "parking", 120), svc("", "Gym", 80)}

	diff := DiffServices(original, selected)
	assert.Equal(t, []string{"parking", "Gym"}, names(diff.Upsert))
	assert.Equal(t, "1", diff.Upsert[0].ID)
	assert.True(t, decimal.NewFromInt(120).Equal(diff.Upsert[0].Price))
	assert.Equal(t, "", diff.Upsert[1].ID)
	assert.Equal(t, []string{"Laundry"}, names(diff.Remove))
	assert.False(t, diff.Empty())
}

func TestDiffServicesNoOriginal(t *testing.T) {
	diff := DiffServices(nil, nil)
	assert.True(t, diff.Empty())

	diff = DiffServices(nil, []CustomService{svc("", "Wifi", 10), svc("", "WIFI", 10)})
	assert.Equal(t, []string{"Wifi"}, names(diff.Upsert))
}

func TestFromLegacy(t *testing.T) {
	diff := FromLegacy([]LegacyService{
		{CustomService: svc("1", "Parking", 100), Delete: true},
		{CustomService: svc("", "Gym", 80)},
	})
	assert.Equal(t, []string{"Gym"}, names(diff.Upsert))
	assert.Equal(t, []string{"Parking"}, names(diff.Remove))
}

func TestToggleService(t *testing.T) {
	catalog := []CustomService{svc("c1", "Parking", 100), svc("c2", "Laundry", 50)}

	selected := ToggleService(catalog, nil, "parking")
	assert.Equal(t, []string{"Parking"}, names(selected))

	selected = ToggleService(catalog, selected, "Laundry")
	assert.Equal(t, []string{"Parking", "Laundry"}, names(selected))

	selected = ToggleService(catalog, selected, "PARKING")
	assert.Equal(t, []string{"Laundry"}, names(selected))

	selected = ToggleService(catalog, selected, "Pool")
	assert.Equal(t, []string{"Laundry"}, names(selected))
}

func TestPriceTypeValid(t *testing.T) {
	assert.True(t, PricePerUsage.Valid())
	assert.False(t, PriceType("monthly").Valid())
}
