package domain

// RiskLevel is the discrete severity classification of a risk score.
type RiskLevel string

const (
	RiskLevelCritical RiskLevel = "Critical"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelLow      RiskLevel = "Low"
)

// RiskAssessment is the scored outcome for one threat/association pair.
// FinalRiskScore and RiskLevel are pure functions of the other fields:
// recomputation from the same inputs is bit-for-bit identical.
type RiskAssessment struct {
	ThreatID              string                 `json:"threat_id"`
	AssociationID         string                 `json:"association_id"`
	BaseCVSSScore         float64                `json:"base_cvss_score"`
	AssetImportanceWeight float64                `json:"asset_importance_weight"`
	AffectedAssetCount    int                    `json:"affected_asset_count"`
	AssetCountWeight      float64                `json:"asset_count_weight"`
	PIRMatchWeight        float64                `json:"pir_match_weight"` // 0 or 0.3
	CISAKEVWeight         float64                `json:"cisa_kev_weight"`  // 0 or 0.5
	FinalRiskScore        float64                `json:"final_risk_score"` // clamped to [0,10]
	RiskLevel             RiskLevel              `json:"risk_level"`
	CalculationDetails    map[string]interface{} `json:"calculation_details"`
}
