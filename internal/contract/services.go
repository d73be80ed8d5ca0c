package contract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceType tells how a custom service is charged.
type PriceType string

const (
	PricePerPerson PriceType = "perPerson"
	PricePerRoom   PriceType = "perRoom"
	PricePerUsage  PriceType = "perUsage"
)

// Valid reports whether t is a known price type.
func (t PriceType) Valid() bool {
	switch t {
	case PricePerPerson, PricePerRoom, PricePerUsage:
		return true
	}
	return false
}

// CustomService is an extra fee line attached to a room or a contract.
// Name is the natural key used to match against the room catalog.
type CustomService struct {
	ID          string          `json:"_id,omitempty"`
	Name        string          `json:"name" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	PriceType   PriceType       `json:"priceType" validate:"required,oneof=perPerson perRoom perUsage"`
	Description string          `json:"description,omitempty" validate:"max=500"`
}

// LegacyService is the tombstone encoding older clients send: a single list
// where removed entries carry Delete=true.
type LegacyService struct {
	CustomService
	Delete bool `json:"_delete,omitempty"`
}

// ServiceDiff is the change set sent when a contract's services are edited.
type ServiceDiff struct {
	Upsert []CustomService `json:"upsertServices"`
	Remove []CustomService `json:"removeServices"`
}

// Empty reports whether the diff changes nothing.
func (d ServiceDiff) Empty() bool {
	return len(d.Upsert) == 0 && len(d.Remove) == 0
}

func serviceKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DiffServices compares the original contract services with the new
// selection by name. Kept entries retain the original ID so the server
// updates rather than duplicates them; entries only in original are
// returned in Remove.
func DiffServices(original, selected []CustomService) ServiceDiff {
	orig := make(map[string]CustomService, len(original))
	for _, s := range original {
		orig[serviceKey(s.Name)] = s
	}
	diff := ServiceDiff{Upsert: []CustomService{}, Remove: []CustomService{}}
	seen := make(map[string]bool, len(selected))
	for _, s := range selected {
		key := serviceKey(s.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if prev, ok := orig[key]; ok && s.ID == "" {
			s.ID = prev.ID
		}
		diff.Upsert = append(diff.Upsert, s)
	}
	for _, s := range original {
		if !seen[serviceKey(s.Name)] {
			diff.Remove = append(diff.Remove, s)
		}
	}
	return diff
}

// FromLegacy folds a tombstoned list into a ServiceDiff.
func FromLegacy(list []LegacyService) ServiceDiff {
	diff := ServiceDiff{Upsert: []CustomService{}, Remove: []CustomService{}}
	for _, s := range list {
		if s.Delete {
			diff.Remove = append(diff.Remove, s.CustomService)
		} else {
			diff.Upsert = append(diff.Upsert, s.CustomService)
		}
	}
	return diff
}

// ToggleService switches the catalog entry called name on or off in
// selected. Names not in the catalog leave selected unchanged.
func ToggleService(catalog, selected []CustomService, name string) []CustomService {
	key := serviceKey(name)
	out := make([]CustomService, 0, len(selected)+1)
	removed := false
	for _, s := range selected {
		if serviceKey(s.Name) == key {
			removed = true
			continue
		}
		out = append(out, s)
	}
	if removed {
		return out
	}
	for _, s := range catalog {
		if serviceKey(s.Name) == key {
			return append(out, s)
		}
	}
	return out
}
