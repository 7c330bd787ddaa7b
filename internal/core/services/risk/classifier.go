package risk

import (
	"fmt"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// Thresholds are the lower bounds of the Critical/High/Medium bands.
// Everything below Medium classifies as Low. The three bands must be
// strictly descending so they tile [0,10] without overlap.
//
// Two incompatible boundary sets exist in the wild for this engine
// (8/6/4 and 9/7/4), so the table is injectable configuration rather
// than a constant; DefaultThresholds carries the 8/6/4 set.
type Thresholds struct {
	Critical float64 `json:"critical" yaml:"critical"`
	High     float64 `json:"high"     yaml:"high"`
	Medium   float64 `json:"medium"   yaml:"medium"`
}

// DefaultThresholds is the default risk-level boundary set.
var DefaultThresholds = Thresholds{Critical: 8.0, High: 6.0, Medium: 4.0}

// Validate checks that the bands are strictly descending within [0,10].
func (t Thresholds) Validate() error {
	if t.Critical > 10 || t.Medium < 0 {
		return fmt.Errorf("risk thresholds out of range: %+v", t)
	}
	if !(t.Critical > t.High && t.High > t.Medium) {
		return fmt.Errorf("risk thresholds not strictly descending: %+v", t)
	}
	return nil
}

// RiskLevelClassifier maps a numeric score onto a discrete severity label.
type RiskLevelClassifier struct {
	thresholds Thresholds
}

// NewRiskLevelClassifier creates a classifier with the default boundary set.
func NewRiskLevelClassifier() *RiskLevelClassifier {
	return &RiskLevelClassifier{thresholds: DefaultThresholds}
}

// NewRiskLevelClassifierWithThresholds creates a classifier with an
// injected boundary set. Invalid thresholds are a configuration error.
func NewRiskLevelClassifierWithThresholds(t Thresholds) (*RiskLevelClassifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &RiskLevelClassifier{thresholds: t}, nil
}

// Classify is a total, deterministic function of the score.
func (c *RiskLevelClassifier) Classify(score float64) domain.RiskLevel {
	switch {
	case score >= c.thresholds.Critical:
		return domain.RiskLevelCritical
	case score >= c.thresholds.High:
		return domain.RiskLevelHigh
	case score >= c.thresholds.Medium:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

// Thresholds returns the active boundary set.
func (c *RiskLevelClassifier) Thresholds() Thresholds {
	return c.thresholds
}
