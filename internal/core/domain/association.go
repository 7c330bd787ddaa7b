package domain

import (
	"encoding/json"
	"fmt"
)

// MatchType classifies how strongly a threat product was matched to an
// asset's inventory entry. The enum is closed: the declaration order below
// IS the specificity order used for tie-breaking (most specific first),
// so never reorder these constants.
type MatchType int

const (
	MatchExactProductExactVersion MatchType = iota
	MatchExactProductVersionRange
	MatchExactProductMajorVersion
	MatchExactProductNoVersion
	MatchFuzzyProductExactVersion
	MatchFuzzyProductVersionRange
	MatchFuzzyProductMajorVersion
	MatchFuzzyProductNoVersion
	MatchOS
)

var matchTypeNames = map[MatchType]string{
	MatchExactProductExactVersion: "exact_product_exact_version",
	MatchExactProductVersionRange: "exact_product_version_range",
	MatchExactProductMajorVersion: "exact_product_major_version",
	MatchExactProductNoVersion:    "exact_product_no_version",
	MatchFuzzyProductExactVersion: "fuzzy_product_exact_version",
	MatchFuzzyProductVersionRange: "fuzzy_product_version_range",
	MatchFuzzyProductMajorVersion: "fuzzy_product_major_version",
	MatchFuzzyProductNoVersion:    "fuzzy_product_no_version",
	MatchOS:                       "os_match",
}

func (t MatchType) String() string {
	if name, ok := matchTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// MoreSpecificThan reports whether t wins a confidence tie against other.
func (t MatchType) MoreSpecificThan(other MatchType) bool {
	return t < other
}

// MarshalJSON encodes the match type as its string name.
func (t MatchType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a match type from its string name.
func (t *MatchType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for mt, n := range matchTypeNames {
		if n == name {
			*t = mt
			return nil
		}
	}
	return fmt.Errorf("unknown match type %q", name)
}

// MatchedProductPair records which threat product matched which asset product.
type MatchedProductPair struct {
	ThreatProduct ThreatProduct `json:"threat_product"`
	AssetProduct  AssetProduct  `json:"asset_product"`
}

// AssociationResult links a threat to an asset it plausibly affects.
// Produced fresh on every analysis call; at most one per (threat, asset) pair.
// No result at all is emitted for assets with no product/OS overlap.
type AssociationResult struct {
	ThreatID        string               `json:"threat_id"`
	AssetID         string               `json:"asset_id"`
	MatchType       MatchType            `json:"match_type"`
	Confidence      float64              `json:"confidence"` // 0.0-1.0
	MatchedProducts []MatchedProductPair `json:"matched_products,omitempty"`
	OSMatch         bool                 `json:"os_match"`
}
