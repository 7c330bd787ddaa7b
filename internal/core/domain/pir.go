package domain

import "strings"

// PIRPriority ranks a Priority Intelligence Requirement.
type PIRPriority string

const (
	PIRPriorityHigh   PIRPriority = "high"
	PIRPriorityMedium PIRPriority = "medium"
	PIRPriorityLow    PIRPriority = "low"
)

// PIRCondition describes what a PIR is interested in. A threat matches the
// condition when ANY of the listed criteria matches the threat's attributes.
// A condition with no criteria at all is structurally invalid.
type PIRCondition struct {
	CVEIDs          []string `json:"cve_ids,omitempty"          yaml:"cve_ids"`
	ProductKeywords []string `json:"product_keywords,omitempty" yaml:"product_keywords"`
	ThreatTypes     []string `json:"threat_types,omitempty"     yaml:"threat_types"`
	SourceFeeds     []string `json:"source_feeds,omitempty"     yaml:"source_feeds"`
}

// IsZero reports whether the condition carries no criteria.
func (c PIRCondition) IsZero() bool {
	return len(c.CVEIDs) == 0 && len(c.ProductKeywords) == 0 &&
		len(c.ThreatTypes) == 0 && len(c.SourceFeeds) == 0
}

// Matches evaluates the condition against a threat's attributes.
// Comparison is case-insensitive; product keywords match by substring
// against the threat's product names.
func (c PIRCondition) Matches(threat Threat) bool {
	for _, id := range c.CVEIDs {
		if id != "" && strings.EqualFold(id, threat.CVEID) {
			return true
		}
	}
	for _, kw := range c.ProductKeywords {
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		for _, p := range threat.Products {
			if strings.Contains(strings.ToLower(p.Name), lower) {
				return true
			}
		}
	}
	for _, tt := range c.ThreatTypes {
		if tt != "" && strings.EqualFold(tt, threat.ThreatType) {
			return true
		}
	}
	for _, feed := range c.SourceFeeds {
		if feed != "" && strings.EqualFold(feed, threat.SourceFeed) {
			return true
		}
	}
	return false
}

// PIR is an operator-defined Priority Intelligence Requirement used to
// up-weight threats that match strategic interest.
type PIR struct {
	ID        string       `json:"id"`
	Name      string       `json:"name,omitempty"`
	Priority  PIRPriority  `json:"priority"`
	IsEnabled bool         `json:"is_enabled"`
	Condition PIRCondition `json:"condition"`
}
