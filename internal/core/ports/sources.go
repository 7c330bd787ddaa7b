package ports

import (
	"context"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// ThreatSource provides read access to ingested threat records.
type ThreatSource interface {
	// GetByID retrieves a threat by its internal ID.
	GetByID(ctx context.Context, threatID string) (*domain.Threat, error)
	// GetByCVE retrieves a threat by CVE identifier.
	GetByCVE(ctx context.Context, cveID string) (*domain.Threat, error)
	// List returns all known threats.
	List(ctx context.Context) ([]domain.Threat, error)
}

// AssetSource provides read access to the managed asset inventory.
// Method names stay distinct from the other sources so one adapter can
// implement several of them.
type AssetSource interface {
	// GetAsset retrieves an asset by its ID.
	GetAsset(ctx context.Context, assetID string) (*domain.Asset, error)
	// ListAssets returns all managed assets.
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	// GetAssetsByIDs retrieves the subset of assets with the given IDs.
	GetAssetsByIDs(ctx context.Context, assetIDs []string) ([]domain.Asset, error)
}

// PIRSource provides read access to Priority Intelligence Requirements.
type PIRSource interface {
	// ListEnabledPIRs returns all enabled PIRs.
	ListEnabledPIRs(ctx context.Context) ([]domain.PIR, error)
	// ListPIRs returns all PIRs, enabled or not.
	ListPIRs(ctx context.Context) ([]domain.PIR, error)
}
