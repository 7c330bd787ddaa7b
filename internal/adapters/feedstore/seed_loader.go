package feedstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/telemetry"
)

// SeedLoader loads threat records from JSON feed dumps into the store.
type SeedLoader struct {
	repo ports.ThreatRepository
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(repo ports.ThreatRepository) *SeedLoader {
	return &SeedLoader{repo: repo}
}

// LoadFromFile loads threat records from a JSON file. The feed name is
// recorded on every threat that does not already carry one.
func (s *SeedLoader) LoadFromFile(ctx context.Context, filepath, feedName string) error {
	log.Printf("[FEED-SEED] Loading threats from %s", filepath)

	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var threats []domain.Threat
	if err := json.Unmarshal(data, &threats); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	loaded := 0
	failed := 0

	for _, threat := range threats {
		if threat.SourceFeed == "" {
			threat.SourceFeed = feedName
		}
		threat.CVEID = domain.NormalizeCVEID(threat.CVEID)
		if err := s.repo.UpsertThreat(ctx, threat); err != nil {
			log.Printf("[FEED-SEED] Failed to load %s: %v", threat.ID, err)
			failed++
		} else {
			loaded++
		}
	}

	log.Printf("[FEED-SEED] Loaded %d threats (%d failed)", loaded, failed)
	telemetry.FeedRecordsLoaded.WithLabelValues(feedName).Add(float64(loaded))

	status := ports.FeedSyncStatus{
		FeedName:     feedName,
		LastSyncTime: time.Now().UTC(),
		RecordCount:  loaded,
	}
	if failed > 0 {
		status.ErrorMessage = fmt.Sprintf("%d records failed to load", failed)
	}
	if err := s.repo.UpdateSyncStatus(ctx, status); err != nil {
		log.Printf("[FEED-SEED] Failed to update sync status for %s: %v", feedName, err)
	}

	return nil
}

// LoadFromMultipleFiles loads feed dumps from several files, skipping over
// individual failures.
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, filepaths []string, feedName string) error {
	totalLoaded := 0

	for _, filepath := range filepaths {
		if err := s.LoadFromFile(ctx, filepath, feedName); err != nil {
			log.Printf("[FEED-SEED] Failed to load %s: %v", filepath, err)
			continue
		}
		totalLoaded++
	}

	log.Printf("[FEED-SEED] Loaded from %d/%d files", totalLoaded, len(filepaths))
	return nil
}
