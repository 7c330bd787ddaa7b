package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
)

// SQLiteAdapter implements the asset, PIR, association and assessment
// repositories using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// Ensure interface compliance
var (
	_ ports.AssetRepository       = (*SQLiteAdapter)(nil)
	_ ports.PIRRepository         = (*SQLiteAdapter)(nil)
	_ ports.AssociationRepository = (*SQLiteAdapter)(nil)
	_ ports.AssessmentRepository  = (*SQLiteAdapter)(nil)
)

// NewSQLiteAdapter initializes the database, migrates the schema and wires
// query tracing.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&AssetModel{}, &PIRModel{}, &AssociationModel{}, &AssessmentModel{}, &domain.User{},
	); err != nil {
		return nil, err
	}

	return &SQLiteAdapter{db: db}, nil
}

// --- Assets ---

// SaveAsset creates or updates an asset.
func (a *SQLiteAdapter) SaveAsset(ctx context.Context, asset domain.Asset) error {
	model := assetToModel(asset)
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&model).Error
}

// GetAsset retrieves an asset by its ID, or nil when it does not exist.
func (a *SQLiteAdapter) GetAsset(ctx context.Context, assetID string) (*domain.Asset, error) {
	var model AssetModel
	if err := a.db.WithContext(ctx).First(&model, "id = ?", assetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	asset := assetToDomain(model)
	return &asset, nil
}

// ListAssets returns all managed assets.
func (a *SQLiteAdapter) ListAssets(ctx context.Context) ([]domain.Asset, error) {
	var models []AssetModel
	if err := a.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	assets := make([]domain.Asset, len(models))
	for i, m := range models {
		assets[i] = assetToDomain(m)
	}
	return assets, nil
}

// GetAssetsByIDs retrieves the subset of assets with the given IDs.
func (a *SQLiteAdapter) GetAssetsByIDs(ctx context.Context, assetIDs []string) ([]domain.Asset, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	var models []AssetModel
	if err := a.db.WithContext(ctx).Where("id IN ?", assetIDs).Find(&models).Error; err != nil {
		return nil, err
	}
	assets := make([]domain.Asset, len(models))
	for i, m := range models {
		assets[i] = assetToDomain(m)
	}
	return assets, nil
}

// --- PIRs ---

// SavePIR creates or updates a PIR.
func (a *SQLiteAdapter) SavePIR(ctx context.Context, pir domain.PIR) error {
	model := pirToModel(pir)
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&model).Error
}

// ListPIRs returns all PIRs regardless of state.
func (a *SQLiteAdapter) ListPIRs(ctx context.Context) ([]domain.PIR, error) {
	var models []PIRModel
	if err := a.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	pirs := make([]domain.PIR, len(models))
	for i, m := range models {
		pirs[i] = pirToDomain(m)
	}
	return pirs, nil
}

// ListEnabledPIRs returns only the PIRs currently switched on.
func (a *SQLiteAdapter) ListEnabledPIRs(ctx context.Context) ([]domain.PIR, error) {
	var models []PIRModel
	if err := a.db.WithContext(ctx).Where("is_enabled = ?", true).Find(&models).Error; err != nil {
		return nil, err
	}
	pirs := make([]domain.PIR, len(models))
	for i, m := range models {
		pirs[i] = pirToDomain(m)
	}
	return pirs, nil
}

// --- Associations ---

// UpsertAssociation writes an association keyed by (threat_id, asset_id).
// An existing row keeps its ID so dependent assessments stay attached.
func (a *SQLiteAdapter) UpsertAssociation(ctx context.Context, result domain.AssociationResult) (string, error) {
	var id string
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing AssociationModel
		err := tx.Where("threat_id = ? AND asset_id = ?", result.ThreatID, result.AssetID).
			First(&existing).Error
		switch {
		case err == nil:
			id = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			id = uuid.New().String()
		default:
			return err
		}

		model := associationToModel(id, result)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&model).Error
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetAssociationsByThreat returns all stored associations for a threat.
func (a *SQLiteAdapter) GetAssociationsByThreat(ctx context.Context, threatID string) ([]domain.AssociationResult, error) {
	var models []AssociationModel
	if err := a.db.WithContext(ctx).Where("threat_id = ?", threatID).Find(&models).Error; err != nil {
		return nil, err
	}
	results := make([]domain.AssociationResult, len(models))
	for i, m := range models {
		results[i] = associationToDomain(m)
	}
	return results, nil
}

// DeleteAssociationsByThreat removes all associations for a threat.
func (a *SQLiteAdapter) DeleteAssociationsByThreat(ctx context.Context, threatID string) error {
	return a.db.WithContext(ctx).Where("threat_id = ?", threatID).Delete(&AssociationModel{}).Error
}

// --- Assessments ---

// UpsertAssessment writes an assessment keyed by (threat_id, association_id).
func (a *SQLiteAdapter) UpsertAssessment(ctx context.Context, assessment domain.RiskAssessment) error {
	model := assessmentToModel(assessment)
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&model).Error
}

// GetAssessmentsByThreat returns all assessments stored for a threat.
func (a *SQLiteAdapter) GetAssessmentsByThreat(ctx context.Context, threatID string) ([]domain.RiskAssessment, error) {
	var models []AssessmentModel
	if err := a.db.WithContext(ctx).Where("threat_id = ?", threatID).Find(&models).Error; err != nil {
		return nil, err
	}
	assessments := make([]domain.RiskAssessment, len(models))
	for i, m := range models {
		assessments[i] = assessmentToDomain(m)
	}
	return assessments, nil
}

// Close closes the underlying database handle.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
