package storage

import "time"

// AssetModel is the GORM model for managed assets.
type AssetModel struct {
	ID                  string `gorm:"primaryKey"`
	Name                string
	IPAddress           string
	OperatingSystem     string
	DataSensitivity     string
	BusinessCriticality string
	Products            string // JSON encoded []domain.AssetProduct
	LastSeen            time.Time
	UpdatedAt           time.Time
}

// PIRModel is the GORM model for Priority Intelligence Requirements.
type PIRModel struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	Priority  string
	IsEnabled bool   `gorm:"index"`
	Condition string // JSON encoded domain.PIRCondition
	UpdatedAt time.Time
}

// AssociationModel is the GORM model for threat/asset associations.
// The (threat_id, asset_id) pair is unique so repeated analysis runs
// update in place instead of accumulating rows.
type AssociationModel struct {
	ID              string `gorm:"primaryKey"`
	ThreatID        string `gorm:"index;uniqueIndex:idx_assoc_threat_asset"`
	AssetID         string `gorm:"uniqueIndex:idx_assoc_threat_asset"`
	MatchType       string
	Confidence      float64
	MatchedProducts string // JSON encoded []domain.MatchedProductPair
	OSMatch         bool
	UpdatedAt       time.Time
}

// AssessmentModel is the GORM model for risk assessments, keyed by
// (threat_id, association_id).
type AssessmentModel struct {
	ThreatID              string `gorm:"primaryKey"`
	AssociationID         string `gorm:"primaryKey"`
	BaseCVSSScore         float64
	AssetImportanceWeight float64
	AffectedAssetCount    int
	AssetCountWeight      float64
	PIRMatchWeight        float64
	CISAKEVWeight         float64
	FinalRiskScore        float64 `gorm:"index"`
	RiskLevel             string  `gorm:"index"`
	CalculationDetails    string  // JSON encoded audit trail
	UpdatedAt             time.Time
}
