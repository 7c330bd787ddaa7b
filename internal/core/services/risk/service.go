package risk

import (
	"errors"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// ErrNilThreat flags a programmer error: callers must never pass a nil threat.
var ErrNilThreat = errors.New("risk: nil threat")

// riskFormula is recorded verbatim in every assessment's calculation
// details so an auditor can reconstruct the result by hand.
const riskFormula = "final = clamp(base_cvss_score * asset_importance_weight + asset_count_weight + pir_match_weight + cisa_kev_weight, 0, 10)"

// Service implements ports.RiskCalculator. It folds the CVSS base score and
// the four weighting terms into one clamped, classified risk score with a
// full audit trail.
//
// Pure computation: no I/O, no shared state, safe for concurrent use.
type Service struct {
	cvss       *CVSSScoreCalculator
	weights    *WeightFactorCalculator
	classifier *RiskLevelClassifier
}

// NewService creates a risk calculation service with default components.
func NewService() *Service {
	return NewServiceWith(NewCVSSScoreCalculator(), NewWeightFactorCalculator(), NewRiskLevelClassifier())
}

// NewServiceWith creates a risk calculation service with injected components.
func NewServiceWith(cvss *CVSSScoreCalculator, weights *WeightFactorCalculator, classifier *RiskLevelClassifier) *Service {
	return &Service{cvss: cvss, weights: weights, classifier: classifier}
}

// Calculate produces one RiskAssessment for a threat/association pair.
// Missing inputs never raise errors - defaults apply (no assets means
// importance weight 1.0, count 0 means count weight 0.0). The only error
// conditions are schema errors: a nil threat or a structurally invalid PIR.
func (s *Service) Calculate(threat *domain.Threat, associatedAssets []domain.Asset, associationID string, pirs []domain.PIR, feedName string) (*domain.RiskAssessment, error) {
	if threat == nil {
		return nil, ErrNilThreat
	}

	baseScore := s.cvss.BaseScore(threat)
	importance := s.weights.AssetImportanceWeight(associatedAssets)
	countWeight := s.weights.AssetCountWeight(len(associatedAssets))
	kevWeight := s.weights.CISAKEVWeight(threat, feedName)

	pirWeight, err := s.weights.PIRMatchWeight(threat, pirs)
	if err != nil {
		return nil, err
	}

	raw := baseScore*importance + countWeight + pirWeight + kevWeight
	final := clampScore(raw)
	level := s.classifier.Classify(final)

	return &domain.RiskAssessment{
		ThreatID:              threat.ID,
		AssociationID:         associationID,
		BaseCVSSScore:         baseScore,
		AssetImportanceWeight: importance,
		AffectedAssetCount:    len(associatedAssets),
		AssetCountWeight:      countWeight,
		PIRMatchWeight:        pirWeight,
		CISAKEVWeight:         kevWeight,
		FinalRiskScore:        final,
		RiskLevel:             level,
		CalculationDetails: map[string]interface{}{
			"formula":                 riskFormula,
			"base_cvss_score":         baseScore,
			"asset_importance_weight": importance,
			"affected_asset_count":    len(associatedAssets),
			"asset_count_weight":      countWeight,
			"pir_match_weight":        pirWeight,
			"cisa_kev_weight":         kevWeight,
			"raw_score":               raw,
			"final_risk_score":        final,
			"risk_level":              string(level),
			"feed_name":               feedName,
			"thresholds":              s.classifier.Thresholds(),
		},
	}, nil
}
