package risk

import (
	"math"
	"strings"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// CVSSScoreCalculator derives a base severity score for a threat: the
// feed-provided base score when present, otherwise the CVSS v3.x base-metric
// formula applied to the vector string. Anything unusable degrades to 0.0.
type CVSSScoreCalculator struct{}

// NewCVSSScoreCalculator creates a CVSS score calculator instance.
func NewCVSSScoreCalculator() *CVSSScoreCalculator {
	return &CVSSScoreCalculator{}
}

// BaseScore returns the base severity score in [0,10] for a threat.
func (c *CVSSScoreCalculator) BaseScore(threat *domain.Threat) float64 {
	if threat == nil {
		return 0.0
	}
	if threat.CVSSBaseScore != nil {
		return clampScore(*threat.CVSSBaseScore)
	}
	if threat.CVSSVector != "" {
		if score, ok := ScoreFromVector(threat.CVSSVector); ok {
			return score
		}
	}
	return 0.0
}

// CVSS v3.x base metric weights.
var (
	attackVectorWeights = map[string]float64{
		"N": 0.85, // Network
		"A": 0.62, // Adjacent
		"L": 0.55, // Local
		"P": 0.20, // Physical
	}
	attackComplexityWeights = map[string]float64{
		"L": 0.77,
		"H": 0.44,
	}
	// PR weights depend on scope: unchanged vs changed.
	privilegesRequiredWeights = map[string][2]float64{
		"N": {0.85, 0.85},
		"L": {0.62, 0.68},
		"H": {0.27, 0.50},
	}
	userInteractionWeights = map[string]float64{
		"N": 0.85,
		"R": 0.62,
	}
	impactWeights = map[string]float64{
		"H": 0.56,
		"L": 0.22,
		"N": 0.00,
	}
)

// ScoreFromVector computes the CVSS v3.0/v3.1 base score from a vector
// string such as "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H".
// The second return value is false when the vector is unparseable or is
// missing any of the eight base metrics.
func ScoreFromVector(vector string) (float64, bool) {
	metrics, ok := parseVector(vector)
	if !ok {
		return 0, false
	}

	scopeChanged := metrics["S"] == "C"

	av, ok1 := attackVectorWeights[metrics["AV"]]
	ac, ok2 := attackComplexityWeights[metrics["AC"]]
	prPair, ok3 := privilegesRequiredWeights[metrics["PR"]]
	ui, ok4 := userInteractionWeights[metrics["UI"]]
	conf, ok5 := impactWeights[metrics["C"]]
	integ, ok6 := impactWeights[metrics["I"]]
	avail, ok7 := impactWeights[metrics["A"]]
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return 0, false
	}
	if s := metrics["S"]; s != "U" && s != "C" {
		return 0, false
	}

	pr := prPair[0]
	if scopeChanged {
		pr = prPair[1]
	}

	iss := 1.0 - (1.0-conf)*(1.0-integ)*(1.0-avail)

	var impact float64
	if scopeChanged {
		impact = 7.52*(iss-0.029) - 3.25*math.Pow(iss-0.02, 15)
	} else {
		impact = 6.42 * iss
	}

	if impact <= 0 {
		return 0.0, true
	}

	exploitability := 8.22 * av * ac * pr * ui

	var score float64
	if scopeChanged {
		score = roundUp(math.Min(1.08*(impact+exploitability), 10.0))
	} else {
		score = roundUp(math.Min(impact+exploitability, 10.0))
	}
	return score, true
}

// parseVector splits a CVSS vector into its metric letters. Only v3.0 and
// v3.1 vectors are accepted, and all eight base metrics must be present.
func parseVector(vector string) (map[string]string, bool) {
	parts := strings.Split(strings.TrimSpace(vector), "/")
	if len(parts) == 0 {
		return nil, false
	}

	prefix := strings.ToUpper(parts[0])
	if prefix != "CVSS:3.1" && prefix != "CVSS:3.0" {
		return nil, false
	}

	metrics := make(map[string]string, len(parts)-1)
	for _, part := range parts[1:] {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			return nil, false
		}
		metrics[strings.ToUpper(kv[0])] = strings.ToUpper(kv[1])
	}

	for _, required := range []string{"AV", "AC", "PR", "UI", "S", "C", "I", "A"} {
		if _, ok := metrics[required]; !ok {
			return nil, false
		}
	}
	return metrics, true
}

// roundUp implements the CVSS v3.1 Roundup function: smallest number with
// one decimal place that is equal to or higher than its input.
func roundUp(x float64) float64 {
	i := int(math.Round(x * 100000))
	if i%10000 == 0 {
		return float64(i) / 100000.0
	}
	return (math.Floor(float64(i)/10000.0) + 1) / 10.0
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0.0
	}
	if score > 10 {
		return 10.0
	}
	return score
}
