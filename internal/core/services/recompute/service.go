// Package recompute orchestrates the association and risk pipeline: it loads
// threats, assets and PIRs from their sources, runs the pure engine services,
// persists the results and fans freshly computed assessments out to
// observers.
package recompute

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
	"github.com/threatwatch-io/threatwatch/internal/core/ports"
	"github.com/threatwatch-io/threatwatch/internal/telemetry"
)

// ErrThreatNotFound is returned when the requested threat does not exist.
var ErrThreatNotFound = errors.New("recompute: threat not found")

// Broadcaster receives every freshly computed assessment. The websocket hub
// implements it; a nil broadcaster disables fan-out.
type Broadcaster interface {
	BroadcastAssessment(assessment domain.RiskAssessment)
}

// Result is the outcome of one full analysis of a single threat.
type Result struct {
	ThreatID     string                     `json:"threat_id"`
	Associations []domain.AssociationResult `json:"associations"`
	Assessments  []domain.RiskAssessment    `json:"assessments"`
}

// Service runs the analysis pipeline. All engine calls are pure; the service
// owns every side effect (storage, cache, metrics, broadcast).
type Service struct {
	threats      ports.ThreatSource
	assets       ports.AssetSource
	pirs         ports.PIRSource
	analyzer     ports.AssociationAnalyzer
	risk         ports.RiskCalculator
	associations ports.AssociationRepository
	assessments  ports.AssessmentRepository
	cache        ports.AssessmentCache
	broadcaster  Broadcaster
	workers      int
}

// Config bundles the service's collaborators.
type Config struct {
	Threats      ports.ThreatSource
	Assets       ports.AssetSource
	PIRs         ports.PIRSource
	Analyzer     ports.AssociationAnalyzer
	Risk         ports.RiskCalculator
	Associations ports.AssociationRepository
	Assessments  ports.AssessmentRepository
	Cache        ports.AssessmentCache
	Broadcaster  Broadcaster
	Workers      int
}

// NewService creates the orchestration service.
func NewService(cfg Config) *Service {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		threats:      cfg.Threats,
		assets:       cfg.Assets,
		pirs:         cfg.PIRs,
		analyzer:     cfg.Analyzer,
		risk:         cfg.Risk,
		associations: cfg.Associations,
		assessments:  cfg.Assessments,
		cache:        cfg.Cache,
		broadcaster:  cfg.Broadcaster,
		workers:      workers,
	}
}

// AnalyzeThreat runs the full pipeline for one threat: association analysis
// against the entire asset inventory, persistence of the associations, then
// one risk assessment per association.
func (s *Service) AnalyzeThreat(ctx context.Context, threatID string) (*Result, error) {
	threat, err := s.threats.GetByID(ctx, threatID)
	if err != nil {
		return nil, fmt.Errorf("failed to load threat %s: %w", threatID, err)
	}
	if threat == nil {
		return nil, ErrThreatNotFound
	}

	assets, err := s.assets.ListAssets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	pirs, err := s.pirs.ListEnabledPIRs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load PIRs: %w", err)
	}

	results, err := s.analyzer.Analyze(threat, assets)
	if err != nil {
		return nil, fmt.Errorf("association analysis failed: %w", err)
	}

	// Associated assets feed the importance and count weights of every
	// assessment for this threat.
	assetByID := make(map[string]domain.Asset, len(assets))
	for _, a := range assets {
		assetByID[a.ID] = a
	}
	associated := make([]domain.Asset, 0, len(results))
	for _, r := range results {
		if a, ok := assetByID[r.AssetID]; ok {
			associated = append(associated, a)
		}
	}

	out := &Result{ThreatID: threatID, Associations: results}

	for _, result := range results {
		associationID, err := s.associations.UpsertAssociation(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to persist association for asset %s: %w", result.AssetID, err)
		}
		telemetry.AssociationsFound.WithLabelValues(result.MatchType.String()).Inc()

		assessment, err := s.assessThreat(ctx, threat, associated, associationID, pirs)
		if err != nil {
			return nil, err
		}
		out.Assessments = append(out.Assessments, *assessment)
	}

	return out, nil
}

// assessThreat computes, persists, caches and broadcasts one assessment.
func (s *Service) assessThreat(ctx context.Context, threat *domain.Threat, associated []domain.Asset, associationID string, pirs []domain.PIR) (*domain.RiskAssessment, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, threat.ID, associationID); ok {
			telemetry.AssessmentCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		telemetry.AssessmentCacheHits.WithLabelValues("miss").Inc()
	}

	assessment, err := s.risk.Calculate(threat, associated, associationID, pirs, threat.SourceFeed)
	if err != nil {
		return nil, fmt.Errorf("risk calculation failed for association %s: %w", associationID, err)
	}

	if err := s.assessments.UpsertAssessment(ctx, *assessment); err != nil {
		return nil, fmt.Errorf("failed to persist assessment for association %s: %w", associationID, err)
	}
	telemetry.AssessmentsComputed.WithLabelValues(string(assessment.RiskLevel)).Inc()

	if s.cache != nil {
		if err := s.cache.Put(ctx, *assessment); err != nil {
			log.Printf("[RECOMPUTE] Cache put failed for %s/%s: %v", threat.ID, associationID, err)
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastAssessment(*assessment)
	}

	return assessment, nil
}

// Summary aggregates the outcome of a batch run.
type Summary struct {
	Threats      int `json:"threats"`
	Associations int `json:"associations"`
	Assessments  int `json:"assessments"`
	Failures     int `json:"failures"`
}

// RecomputeAll re-runs the pipeline for every stored threat on a bounded
// worker pool. Tasks are independent: per-threat failures are logged and
// counted, never fatal to the batch.
func (s *Service) RecomputeAll(ctx context.Context, trigger string) (*Summary, error) {
	threats, err := s.threats.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list threats: %w", err)
	}

	telemetry.AnalysisRunsTotal.WithLabelValues(trigger).Inc()

	jobs := make(chan domain.Threat)
	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)
	summary.Threats = len(threats)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for threat := range jobs {
				result, err := s.AnalyzeThreat(ctx, threat.ID)
				mu.Lock()
				if err != nil {
					summary.Failures++
					mu.Unlock()
					log.Printf("[RECOMPUTE] Threat %s failed: %v", threat.ID, err)
					continue
				}
				summary.Associations += len(result.Associations)
				summary.Assessments += len(result.Assessments)
				mu.Unlock()
			}
		}()
	}

	for _, threat := range threats {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return &summary, ctx.Err()
		case jobs <- threat:
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("[RECOMPUTE] Batch done: %d threats, %d associations, %d assessments, %d failures",
		summary.Threats, summary.Associations, summary.Assessments, summary.Failures)

	return &summary, nil
}
