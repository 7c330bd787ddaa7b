package ports

import (
	"context"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// AssociationRepository persists threat/asset associations.
// Upserts are keyed by (threat_id, asset_id) so retried or re-ordered
// concurrent writes converge to the same state.
type AssociationRepository interface {
	UpsertAssociation(ctx context.Context, result domain.AssociationResult) (associationID string, err error)
	GetAssociationsByThreat(ctx context.Context, threatID string) ([]domain.AssociationResult, error)
	DeleteAssociationsByThreat(ctx context.Context, threatID string) error
}

// AssessmentRepository persists risk assessments.
// Upserts are keyed by (threat_id, association_id).
type AssessmentRepository interface {
	UpsertAssessment(ctx context.Context, assessment domain.RiskAssessment) error
	GetAssessmentsByThreat(ctx context.Context, threatID string) ([]domain.RiskAssessment, error)
}

// AssetRepository is the write side of the asset inventory.
type AssetRepository interface {
	AssetSource
	SaveAsset(ctx context.Context, asset domain.Asset) error
}

// PIRRepository is the write side of the PIR store.
type PIRRepository interface {
	PIRSource
	SavePIR(ctx context.Context, pir domain.PIR) error
}

// AssessmentCache is an optional read-through cache for computed assessments.
type AssessmentCache interface {
	Get(ctx context.Context, threatID, associationID string) (*domain.RiskAssessment, bool)
	Put(ctx context.Context, assessment domain.RiskAssessment) error
}
