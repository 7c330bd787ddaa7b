package ports

import (
	"context"
	"time"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// FeedSyncStatus tracks the last synchronization with external threat feeds.
type FeedSyncStatus struct {
	FeedName     string    `json:"feed_name"`
	LastSyncTime time.Time `json:"last_sync_time"`
	RecordCount  int       `json:"record_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// ThreatRepository is the persistence layer for ingested threat records.
type ThreatRepository interface {
	ThreatSource

	// UpsertThreat inserts or replaces a threat record by its ID.
	UpsertThreat(ctx context.Context, threat domain.Threat) error
	// UpdateSyncStatus records the outcome of a feed synchronization run.
	UpdateSyncStatus(ctx context.Context, status FeedSyncStatus) error
	// GetSyncStatus returns the last recorded status for a feed.
	GetSyncStatus(ctx context.Context, feedName string) (*FeedSyncStatus, error)
	// GetTotalCount returns the number of stored threats.
	GetTotalCount(ctx context.Context) (int, error)
	// Close releases the underlying database handle.
	Close() error
}
