package storage

import (
	"testing"
	"time"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

func TestAssetConversionRoundTrip(t *testing.T) {
	asset := domain.Asset{
		ID:                  "asset-9",
		Name:                "edge-gw",
		IPAddress:           "192.0.2.7",
		OperatingSystem:     "Ubuntu 22.04",
		DataSensitivity:     domain.ImportanceLow,
		BusinessCriticality: domain.ImportanceHigh,
		Products: []domain.AssetProduct{
			{Name: "nginx", Version: "1.24.0"},
			{Name: "OpenSSL", Version: "3.0.2"},
		},
		LastSeen: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	got := assetToDomain(assetToModel(asset))
	if got.ID != asset.ID || got.OperatingSystem != asset.OperatingSystem {
		t.Errorf("Identity fields lost: %+v", got)
	}
	if len(got.Products) != 2 || got.Products[1].Version != "3.0.2" {
		t.Errorf("Products lost in conversion: %+v", got.Products)
	}
	if got.ImportanceWeight() != asset.ImportanceWeight() {
		t.Errorf("Importance weight changed: %v != %v", got.ImportanceWeight(), asset.ImportanceWeight())
	}
}

func TestAssociationConversionPreservesMatchType(t *testing.T) {
	result := domain.AssociationResult{
		ThreatID:   "t1",
		AssetID:    "a1",
		MatchType:  domain.MatchFuzzyProductVersionRange,
		Confidence: 0.64,
		OSMatch:    true,
	}

	model := associationToModel("assoc-1", result)
	if model.MatchType != "fuzzy_product_version_range" {
		t.Errorf("MatchType stored as %q", model.MatchType)
	}

	got := associationToDomain(model)
	if got.MatchType != domain.MatchFuzzyProductVersionRange {
		t.Errorf("MatchType did not round-trip: %s", got.MatchType)
	}
	if !got.OSMatch || got.Confidence != 0.64 {
		t.Errorf("Fields lost: %+v", got)
	}
}

func TestPIRConversionRoundTrip(t *testing.T) {
	pir := domain.PIR{
		ID:        "pir-7",
		Name:      "ransomware feeds",
		Priority:  domain.PIRPriorityHigh,
		IsEnabled: true,
		Condition: domain.PIRCondition{
			ThreatTypes: []string{"ransomware"},
			SourceFeeds: []string{"CISA KEV"},
		},
	}

	got := pirToDomain(pirToModel(pir))
	if got.Priority != domain.PIRPriorityHigh || !got.IsEnabled {
		t.Errorf("Fields lost: %+v", got)
	}
	if len(got.Condition.SourceFeeds) != 1 || got.Condition.SourceFeeds[0] != "CISA KEV" {
		t.Errorf("Condition lost: %+v", got.Condition)
	}
}
