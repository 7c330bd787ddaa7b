package analysis

import (
	"errors"
	"strings"

	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

// ErrNilThreat flags a programmer error: callers must never pass a nil threat.
var ErrNilThreat = errors.New("analysis: nil threat")

// Base confidence per match type. Fuzzy entries are additionally scaled by
// the product-name similarity.
var baseConfidence = map[domain.MatchType]float64{
	domain.MatchExactProductExactVersion: 1.00,
	domain.MatchExactProductVersionRange: 0.90,
	domain.MatchExactProductMajorVersion: 0.80,
	domain.MatchExactProductNoVersion:    0.70,
	domain.MatchFuzzyProductExactVersion: 0.90,
	domain.MatchFuzzyProductVersionRange: 0.80,
	domain.MatchFuzzyProductMajorVersion: 0.70,
	domain.MatchFuzzyProductNoVersion:    0.60,
	domain.MatchOS:                       0.80,
}

// candidate is one possible way to associate a threat with an asset.
type candidate struct {
	matchType  domain.MatchType
	confidence float64
	pair       *domain.MatchedProductPair // nil for OS candidates
}

// Service implements ports.AssociationAnalyzer. It orchestrates the product
// and version matchers over every (threat-product, asset-product) pair of
// every candidate asset and selects the best match per asset.
//
// The service is pure and stateless: safe for concurrent use, no I/O.
type Service struct {
	products *ProductNameMatcher
	versions *VersionMatcher
}

// NewService creates an analysis service with default matchers.
func NewService() *Service {
	return NewServiceWith(NewProductNameMatcher(), NewVersionMatcher())
}

// NewServiceWith creates an analysis service with injected matchers.
func NewServiceWith(products *ProductNameMatcher, versions *VersionMatcher) *Service {
	return &Service{products: products, versions: versions}
}

// Analyze returns zero-or-one AssociationResult per candidate asset.
// Data-quality issues (missing products, unparseable versions) never fail
// the call; an asset with nothing to match simply yields no result.
func (s *Service) Analyze(threat *domain.Threat, assets []domain.Asset) ([]domain.AssociationResult, error) {
	if threat == nil {
		return nil, ErrNilThreat
	}

	var results []domain.AssociationResult
	for _, asset := range assets {
		if res := s.analyzeAsset(threat, asset); res != nil {
			results = append(results, *res)
		}
	}
	return results, nil
}

// analyzeAsset evaluates all candidates for one asset and picks the winner.
func (s *Service) analyzeAsset(threat *domain.Threat, asset domain.Asset) *domain.AssociationResult {
	var productCands []candidate

	for _, tp := range threat.Products {
		for _, ap := range asset.Products {
			if c := s.matchPair(tp, ap); c != nil {
				productCands = append(productCands, *c)
			}
		}
	}

	osCand, osMatched := s.matchOS(threat, asset)

	// Product candidates always outrank an OS-text match, whatever their
	// confidence: the OS field is free text and far weaker evidence.
	pool := productCands
	if len(pool) == 0 {
		if !osMatched {
			return nil
		}
		pool = []candidate{osCand}
	}

	best := pool[0]
	for _, c := range pool[1:] {
		if c.confidence > best.confidence ||
			(c.confidence == best.confidence && c.matchType.MoreSpecificThan(best.matchType)) {
			best = c
		}
	}

	// Keep every product pair that tied with the winner, for auditability.
	var matched []domain.MatchedProductPair
	for _, c := range pool {
		if c.pair != nil && c.matchType == best.matchType && c.confidence == best.confidence {
			matched = append(matched, *c.pair)
		}
	}

	return &domain.AssociationResult{
		ThreatID:        threat.ID,
		AssetID:         asset.ID,
		MatchType:       best.matchType,
		Confidence:      best.confidence,
		MatchedProducts: matched,
		OSMatch:         osMatched,
	}
}

// matchPair combines product-name and version matching for one pair.
// Version matching only runs when the product name matched; a product match
// whose versions contradict each other yields no candidate at all.
func (s *Service) matchPair(tp domain.ThreatProduct, ap domain.AssetProduct) *candidate {
	prod := s.products.Match(tp.Name, ap.Name, true)
	if !prod.IsMatch {
		return nil
	}

	ver := s.versions.Match(tp.Version, ap.Version, true)
	if !ver.Matched {
		return nil
	}

	mt := classifyMatch(prod.IsExact, ver.Kind)
	conf := baseConfidence[mt]
	if !prod.IsExact {
		conf *= prod.Similarity
	}
	if conf > 1.0 {
		conf = 1.0
	}

	return &candidate{
		matchType:  mt,
		confidence: conf,
		pair:       &domain.MatchedProductPair{ThreatProduct: tp, AssetProduct: ap},
	}
}

// matchOS records an OS candidate when a threat product typed as an
// operating system appears as a substring of the asset's OS free text.
func (s *Service) matchOS(threat *domain.Threat, asset domain.Asset) (candidate, bool) {
	osText := strings.ToLower(strings.TrimSpace(asset.OperatingSystem))
	if osText == "" {
		return candidate{}, false
	}

	for _, tp := range threat.Products {
		if tp.Kind != domain.ProductKindOperatingSystem {
			continue
		}
		name := s.products.Normalize(tp.Name)
		if name != "" && strings.Contains(osText, name) {
			return candidate{
				matchType:  domain.MatchOS,
				confidence: baseConfidence[domain.MatchOS],
			}, true
		}
	}
	return candidate{}, false
}

// classifyMatch maps the (product, version) outcome onto the MatchType enum.
func classifyMatch(productExact bool, versionKind VersionMatchKind) domain.MatchType {
	if productExact {
		switch versionKind {
		case VersionMatchExact:
			return domain.MatchExactProductExactVersion
		case VersionMatchRange:
			return domain.MatchExactProductVersionRange
		case VersionMatchMajor:
			return domain.MatchExactProductMajorVersion
		default:
			return domain.MatchExactProductNoVersion
		}
	}
	switch versionKind {
	case VersionMatchExact:
		return domain.MatchFuzzyProductExactVersion
	case VersionMatchRange:
		return domain.MatchFuzzyProductVersionRange
	case VersionMatchMajor:
		return domain.MatchFuzzyProductMajorVersion
	default:
		return domain.MatchFuzzyProductNoVersion
	}
}
