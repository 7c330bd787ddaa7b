package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatwatch-io/threatwatch/internal/core/domain"
)

func TestAnalyzeExactProductExactVersion(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-1",
		Products: []domain.ThreatProduct{
			{Name: "Microsoft SQL Server", Version: "2019"},
		},
	}
	asset := domain.Asset{
		ID: "ast-1",
		Products: []domain.AssetProduct{
			{Name: "Microsoft SQL Server", Version: "2019"},
		},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.MatchExactProductExactVersion, results[0].MatchType)
	assert.Equal(t, 1.0, results[0].Confidence)
	assert.Equal(t, "thr-1", results[0].ThreatID)
	assert.Equal(t, "ast-1", results[0].AssetID)
	require.Len(t, results[0].MatchedProducts, 1)
	assert.Equal(t, "Microsoft SQL Server", results[0].MatchedProducts[0].AssetProduct.Name)
}

func TestAnalyzeFuzzyProductExactVersion(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID:       "thr-2",
		Products: []domain.ThreatProduct{{Name: "SQL Server", Version: "2019"}},
	}
	asset := domain.Asset{
		ID:       "ast-2",
		Products: []domain.AssetProduct{{Name: "Microsoft SQL Server", Version: "2019"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, domain.MatchFuzzyProductExactVersion, results[0].MatchType)
	assert.GreaterOrEqual(t, results[0].Confidence, 0.7)
	assert.Less(t, results[0].Confidence, 1.0)
}

func TestAnalyzeNoOverlapEmitsNothing(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID:       "thr-3",
		Products: []domain.ThreatProduct{{Name: "Oracle Database", Version: "19c"}},
	}
	assets := []domain.Asset{
		{ID: "ast-3", OperatingSystem: "Ubuntu 22.04", Products: []domain.AssetProduct{{Name: "nginx", Version: "1.24"}}},
		{ID: "ast-4"}, // no products, no usable OS overlap
	}

	results, err := svc.Analyze(threat, assets)
	require.NoError(t, err)
	assert.Empty(t, results, "assets with no overlap must yield no results, not zero-confidence records")
}

func TestAnalyzeVersionContradictionEmitsNothing(t *testing.T) {
	svc := NewService()

	// Product matches but the asset runs a version outside the affected set.
	threat := &domain.Threat{
		ID:       "thr-4",
		Products: []domain.ThreatProduct{{Name: "PostgreSQL", Version: "14.2"}},
	}
	asset := domain.Asset{
		ID:       "ast-5",
		Products: []domain.AssetProduct{{Name: "PostgreSQL", Version: "15.1"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestAnalyzeThreatWithoutVersionAffectsAll(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID:       "thr-5",
		Products: []domain.ThreatProduct{{Name: "PostgreSQL"}},
	}
	asset := domain.Asset{
		ID:       "ast-6",
		Products: []domain.AssetProduct{{Name: "postgres", Version: "15.1"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExactProductNoVersion, results[0].MatchType)
	assert.InDelta(t, 0.70, results[0].Confidence, 1e-9)
}

func TestAnalyzeVersionRangeAndMajor(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-6",
		Products: []domain.ThreatProduct{
			{Name: "VMware ESXi", Version: "7.0.x"},
		},
	}
	asset := domain.Asset{
		ID:       "ast-7",
		Products: []domain.AssetProduct{{Name: "ESXi", Version: "7.0.3"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExactProductVersionRange, results[0].MatchType)
	assert.InDelta(t, 0.90, results[0].Confidence, 1e-9)

	threat.Products[0].Version = "7"
	results, err = svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExactProductMajorVersion, results[0].MatchType)
	assert.InDelta(t, 0.80, results[0].Confidence, 1e-9)
}

func TestAnalyzeOSMatch(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-7",
		Products: []domain.ThreatProduct{
			{Name: "Windows Server", Kind: domain.ProductKindOperatingSystem},
		},
	}
	asset := domain.Asset{
		ID:              "ast-8",
		OperatingSystem: "Windows Server 2019 Datacenter",
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchOS, results[0].MatchType)
	assert.InDelta(t, 0.80, results[0].Confidence, 1e-9)
	assert.True(t, results[0].OSMatch)
	assert.Empty(t, results[0].MatchedProducts)
}

func TestAnalyzeProductCandidateOutranksOSMatch(t *testing.T) {
	svc := NewService()

	// The product candidate (no-version, 0.70) is weaker in raw confidence
	// than the OS candidate (0.80), but product evidence always wins.
	threat := &domain.Threat{
		ID: "thr-8",
		Products: []domain.ThreatProduct{
			{Name: "Windows Server", Kind: domain.ProductKindOperatingSystem},
			{Name: "PostgreSQL"},
		},
	}
	asset := domain.Asset{
		ID:              "ast-9",
		OperatingSystem: "Windows Server 2022",
		Products:        []domain.AssetProduct{{Name: "PostgreSQL", Version: "15.1"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExactProductNoVersion, results[0].MatchType)
	assert.True(t, results[0].OSMatch, "the OS overlap is still recorded for audit")
}

func TestAnalyzeTiedPairsAllRecorded(t *testing.T) {
	svc := NewService()

	// Two distinct threat products both land exact-product/range-version at
	// 0.90 against the same asset product: the winner carries both pairs.
	threat := &domain.Threat{
		ID: "thr-9",
		Products: []domain.ThreatProduct{
			{Name: "Apache Tomcat", Version: "9.0.x"},
			{Name: "Tomcat", Version: ">= 9.0"},
		},
	}
	asset := domain.Asset{
		ID: "ast-10",
		Products: []domain.AssetProduct{
			{Name: "Apache Tomcat", Version: "9.0.1"},
		},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.MatchExactProductVersionRange, results[0].MatchType)
	assert.InDelta(t, 0.90, results[0].Confidence, 1e-9)
	assert.Len(t, results[0].MatchedProducts, 2, "tied pairs are all kept for audit")
}

func TestAnalyzeConfidenceBounds(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-10",
		Products: []domain.ThreatProduct{
			{Name: "Microsoft Exchange Server", Version: "2019"},
			{Name: "Exchange", Version: ">= 2016"},
			{Name: "Windows", Kind: domain.ProductKindOperatingSystem},
		},
	}
	assets := []domain.Asset{
		{ID: "a", OperatingSystem: "Windows Server 2019", Products: []domain.AssetProduct{{Name: "Exchange Server", Version: "2019"}}},
		{ID: "b", Products: []domain.AssetProduct{{Name: "Microsoft Exchange Server"}}},
		{ID: "c", OperatingSystem: "debian 12"},
	}

	results, err := svc.Analyze(threat, assets)
	require.NoError(t, err)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-11",
		Products: []domain.ThreatProduct{
			{Name: "SQL Server", Version: "2019"},
			{Name: "Windows Server", Kind: domain.ProductKindOperatingSystem},
		},
	}
	assets := []domain.Asset{
		{ID: "x", OperatingSystem: "Windows Server 2019", Products: []domain.AssetProduct{{Name: "Microsoft SQL Server", Version: "2019"}}},
		{ID: "y", Products: []domain.AssetProduct{{Name: "MySQL", Version: "8.0"}}},
	}

	first, err := svc.Analyze(threat, assets)
	require.NoError(t, err)
	second, err := svc.Analyze(threat, assets)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b), "repeated analysis must be byte-identical")
}

func TestAnalyzeNilThreat(t *testing.T) {
	svc := NewService()
	_, err := svc.Analyze(nil, []domain.Asset{{ID: "a"}})
	assert.ErrorIs(t, err, ErrNilThreat)
}

func TestAnalyzeAtMostOneResultPerAsset(t *testing.T) {
	svc := NewService()

	threat := &domain.Threat{
		ID: "thr-12",
		Products: []domain.ThreatProduct{
			{Name: "PostgreSQL", Version: "15.1"},
			{Name: "PostgreSQL"},
			{Name: "postgres", Version: "15"},
		},
	}
	asset := domain.Asset{
		ID:       "ast-12",
		Products: []domain.AssetProduct{{Name: "PostgreSQL", Version: "15.1"}},
	}

	results, err := svc.Analyze(threat, []domain.Asset{asset})
	require.NoError(t, err)
	require.Len(t, results, 1, "exactly one result per asset, for the winning candidate")
	assert.Equal(t, domain.MatchExactProductExactVersion, results[0].MatchType)
	assert.Equal(t, 1.0, results[0].Confidence)
}
