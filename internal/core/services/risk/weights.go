package risk

import (
	"errors"
	"strings"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// CISAKEVFeedName is the feed whose presence flags a known-exploited
// vulnerability.
const CISAKEVFeedName = "CISA KEV"

const (
	// PIRMatchWeight is added when an enabled, high-priority PIR matches.
	PIRMatchWeight = 0.3
	// KEVWeight is added for known-exploited vulnerabilities.
	KEVWeight = 0.5
	// assetsPerCountStep: every ten affected assets add 0.1 to the raw score.
	assetCountStep = 10.0
	assetCountUnit = 0.1
)

// ErrInvalidPIRCondition flags a schema error: a PIR whose condition carries
// no criteria can never match and must not be silently absorbed.
var ErrInvalidPIRCondition = errors.New("risk: PIR condition has no criteria")

// WeightFactorCalculator derives the four independent weighting terms of
// the risk formula. Stateless and concurrency-safe.
type WeightFactorCalculator struct{}

// NewWeightFactorCalculator creates a weight factor calculator instance.
func NewWeightFactorCalculator() *WeightFactorCalculator {
	return &WeightFactorCalculator{}
}

// AssetImportanceWeight is the mean over assets of
// sensitivity.weight * criticality.weight. An empty list yields the
// neutral default 1.0.
func (w *WeightFactorCalculator) AssetImportanceWeight(assets []domain.Asset) float64 {
	if len(assets) == 0 {
		return 1.0
	}
	var total float64
	for _, a := range assets {
		total += a.ImportanceWeight()
	}
	return total / float64(len(assets))
}

// AssetCountWeight grows linearly with the number of affected assets:
// every ten assets add 0.1 to the raw score.
func (w *WeightFactorCalculator) AssetCountWeight(count int) float64 {
	if count <= 0 {
		return 0.0
	}
	return (float64(count) / assetCountStep) * assetCountUnit
}

// PIRMatchWeight returns 0.3 when any enabled, high-priority PIR condition
// matches the threat; disabled PIRs and non-high priorities never
// contribute. A structurally invalid condition on a PIR that would
// otherwise be evaluated is a schema error.
func (w *WeightFactorCalculator) PIRMatchWeight(threat *domain.Threat, pirs []domain.PIR) (float64, error) {
	if threat == nil {
		return 0.0, nil
	}
	for _, pir := range pirs {
		if !pir.IsEnabled || pir.Priority != domain.PIRPriorityHigh {
			continue
		}
		if pir.Condition.IsZero() {
			return 0.0, ErrInvalidPIRCondition
		}
		if pir.Condition.Matches(*threat) {
			return PIRMatchWeight, nil
		}
	}
	return 0.0, nil
}

// CISAKEVWeight returns 0.5 when the record came from the CISA KEV feed or
// the threat is otherwise flagged as a known-exploited vulnerability.
func (w *WeightFactorCalculator) CISAKEVWeight(threat *domain.Threat, feedName string) float64 {
	if strings.EqualFold(strings.TrimSpace(feedName), CISAKEVFeedName) {
		return KEVWeight
	}
	if threat != nil && threat.KnownExploited {
		return KEVWeight
	}
	return 0.0
}
