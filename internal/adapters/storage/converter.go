package storage

import (
	"encoding/json"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// assetToModel converts a domain asset to its database model.
func assetToModel(a domain.Asset) AssetModel {
	products, _ := json.Marshal(a.Products)
	return AssetModel{
		ID:                  a.ID,
		Name:                a.Name,
		IPAddress:           a.IPAddress,
		OperatingSystem:     a.OperatingSystem,
		DataSensitivity:     string(a.DataSensitivity),
		BusinessCriticality: string(a.BusinessCriticality),
		Products:            string(products),
		LastSeen:            a.LastSeen,
	}
}

// assetToDomain converts a database model back to a domain asset.
func assetToDomain(m AssetModel) domain.Asset {
	var products []domain.AssetProduct
	if m.Products != "" {
		_ = json.Unmarshal([]byte(m.Products), &products)
	}
	return domain.Asset{
		ID:                  m.ID,
		Name:                m.Name,
		IPAddress:           m.IPAddress,
		OperatingSystem:     m.OperatingSystem,
		DataSensitivity:     domain.ImportanceLevel(m.DataSensitivity),
		BusinessCriticality: domain.ImportanceLevel(m.BusinessCriticality),
		Products:            products,
		LastSeen:            m.LastSeen,
	}
}

func pirToModel(p domain.PIR) PIRModel {
	condition, _ := json.Marshal(p.Condition)
	return PIRModel{
		ID:        p.ID,
		Name:      p.Name,
		Priority:  string(p.Priority),
		IsEnabled: p.IsEnabled,
		Condition: string(condition),
	}
}

func pirToDomain(m PIRModel) domain.PIR {
	var condition domain.PIRCondition
	if m.Condition != "" {
		_ = json.Unmarshal([]byte(m.Condition), &condition)
	}
	return domain.PIR{
		ID:        m.ID,
		Name:      m.Name,
		Priority:  domain.PIRPriority(m.Priority),
		IsEnabled: m.IsEnabled,
		Condition: condition,
	}
}

// associationToModel converts an association result. The caller supplies the
// row ID because the result itself carries none.
func associationToModel(id string, r domain.AssociationResult) AssociationModel {
	matched, _ := json.Marshal(r.MatchedProducts)
	return AssociationModel{
		ID:              id,
		ThreatID:        r.ThreatID,
		AssetID:         r.AssetID,
		MatchType:       r.MatchType.String(),
		Confidence:      r.Confidence,
		MatchedProducts: string(matched),
		OSMatch:         r.OSMatch,
	}
}

func associationToDomain(m AssociationModel) domain.AssociationResult {
	var matched []domain.MatchedProductPair
	if m.MatchedProducts != "" {
		_ = json.Unmarshal([]byte(m.MatchedProducts), &matched)
	}

	result := domain.AssociationResult{
		ThreatID:        m.ThreatID,
		AssetID:         m.AssetID,
		Confidence:      m.Confidence,
		MatchedProducts: matched,
		OSMatch:         m.OSMatch,
	}
	// MatchType round-trips via its JSON string name.
	_ = result.MatchType.UnmarshalJSON([]byte(`"` + m.MatchType + `"`))
	return result
}

func assessmentToModel(a domain.RiskAssessment) AssessmentModel {
	details, _ := json.Marshal(a.CalculationDetails)
	return AssessmentModel{
		ThreatID:              a.ThreatID,
		AssociationID:         a.AssociationID,
		BaseCVSSScore:         a.BaseCVSSScore,
		AssetImportanceWeight: a.AssetImportanceWeight,
		AffectedAssetCount:    a.AffectedAssetCount,
		AssetCountWeight:      a.AssetCountWeight,
		PIRMatchWeight:        a.PIRMatchWeight,
		CISAKEVWeight:         a.CISAKEVWeight,
		FinalRiskScore:        a.FinalRiskScore,
		RiskLevel:             string(a.RiskLevel),
		CalculationDetails:    string(details),
	}
}

func assessmentToDomain(m AssessmentModel) domain.RiskAssessment {
	var details map[string]interface{}
	if m.CalculationDetails != "" {
		_ = json.Unmarshal([]byte(m.CalculationDetails), &details)
	}
	return domain.RiskAssessment{
		ThreatID:              m.ThreatID,
		AssociationID:         m.AssociationID,
		BaseCVSSScore:         m.BaseCVSSScore,
		AssetImportanceWeight: m.AssetImportanceWeight,
		AffectedAssetCount:    m.AffectedAssetCount,
		AssetCountWeight:      m.AssetCountWeight,
		PIRMatchWeight:        m.PIRMatchWeight,
		CISAKEVWeight:         m.CISAKEVWeight,
		FinalRiskScore:        m.FinalRiskScore,
		RiskLevel:             domain.RiskLevel(m.RiskLevel),
		CalculationDetails:    details,
	}
}
