package ports

import (
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// AssociationAnalyzer decides which assets a threat plausibly affects.
type AssociationAnalyzer interface {
	// Analyze returns zero-or-one AssociationResult per candidate asset.
	Analyze(threat *domain.Threat, assets []domain.Asset) ([]domain.AssociationResult, error)
}

// RiskCalculator produces one RiskAssessment per threat/association.
type RiskCalculator interface {
	// Calculate folds CVSS severity, asset importance, asset count, PIR
	// match and known-exploited signals into one clamped risk score.
	Calculate(threat *domain.Threat, associatedAssets []domain.Asset, associationID string, pirs []domain.PIR, feedName string) (*domain.RiskAssessment, error)
}
