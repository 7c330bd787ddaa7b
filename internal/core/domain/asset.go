package domain

import "time"

// ImportanceLevel grades data sensitivity and business criticality of an asset.
type ImportanceLevel string

const (
	ImportanceHigh   ImportanceLevel = "high"
	ImportanceMedium ImportanceLevel = "medium"
	ImportanceLow    ImportanceLevel = "low"
)

// Weight returns the numeric weight used by the risk formula.
// Unknown levels fall back to the neutral medium weight.
func (l ImportanceLevel) Weight() float64 {
	switch l {
	case ImportanceHigh:
		return 1.5
	case ImportanceLow:
		return 0.5
	default:
		return 1.0
	}
}

// AssetProduct is a product installed on a managed asset, as inventoried.
// Value object: compared only by content.
type AssetProduct struct {
	Name    string      `json:"name"`
	Version string      `json:"version,omitempty"`
	Kind    ProductKind `json:"kind,omitempty"`
}

// Asset represents a managed asset from the inventory.
type Asset struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name,omitempty"`
	IPAddress           string          `json:"ip_address,omitempty"`
	OperatingSystem     string          `json:"operating_system,omitempty"` // free text, e.g. "Windows Server 2019 Datacenter"
	DataSensitivity     ImportanceLevel `json:"data_sensitivity"`
	BusinessCriticality ImportanceLevel `json:"business_criticality"`
	Products            []AssetProduct  `json:"products,omitempty"`
	LastSeen            time.Time       `json:"last_seen,omitempty"`
}

// ImportanceWeight is the combined sensitivity/criticality weight of this asset.
func (a Asset) ImportanceWeight() float64 {
	return a.DataSensitivity.Weight() * a.BusinessCriticality.Weight()
}
