package analysis

import (
	"regexp"
	"strings"
)

// DefaultSimilarityThreshold is the minimum similarity for a fuzzy product match.
const DefaultSimilarityThreshold = 0.8

// defaultAliases rewrites well-known product name variants to a canonical
// form. Keys and values are in normalized (lower-case, cleaned) form.
var defaultAliases = map[string]string{
	"ms sql server":      "microsoft sql server",
	"mssql":              "microsoft sql server",
	"mssql server":       "microsoft sql server",
	"win server":         "windows server",
	"win":                "windows",
	"postgres":           "postgresql",
	"esxi":               "vmware esxi",
	"vcenter":            "vmware vcenter server",
	"ie":                 "internet explorer",
	"rhel":               "red hat enterprise linux",
	"exchange":           "microsoft exchange server",
	"exchange server":    "microsoft exchange server",
	"office":             "microsoft office",
	"apache":             "apache http server",
	"apache httpd":       "apache http server",
	"nginx web server":   "nginx",
	"tomcat":             "apache tomcat",
	"activemq":           "apache activemq",
	"elastic search":     "elasticsearch",
	"mongo":              "mongodb",
}

var (
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)
	punctuationRe   = regexp.MustCompile(`[^a-z0-9. ]+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
	versionTokenRe  = regexp.MustCompile(`^v?\d+(\.\d+)*$`)
)

// ProductMatchResult is the outcome of comparing two product names.
type ProductMatchResult struct {
	IsMatch    bool    `json:"is_match"`
	IsExact    bool    `json:"is_exact"`
	Similarity float64 `json:"similarity"` // 0.0-1.0, 1.0 for exact matches
}

// ProductNameMatcher normalizes and compares free-text product names.
// It is stateless after construction and safe for concurrent use.
type ProductNameMatcher struct {
	aliases   map[string]string
	threshold float64
}

// NewProductNameMatcher creates a matcher with the built-in alias table
// and the default similarity threshold.
func NewProductNameMatcher() *ProductNameMatcher {
	return NewProductNameMatcherWithConfig(nil, DefaultSimilarityThreshold)
}

// NewProductNameMatcherWithConfig creates a matcher with an injected alias
// table (merged over the defaults) and similarity threshold.
func NewProductNameMatcherWithConfig(aliases map[string]string, threshold float64) *ProductNameMatcher {
	merged := make(map[string]string, len(defaultAliases)+len(aliases))
	for k, v := range defaultAliases {
		merged[k] = v
	}
	for k, v := range aliases {
		merged[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}
	return &ProductNameMatcher{aliases: merged, threshold: threshold}
}

// Normalize lower-cases a product name, strips parentheticals, punctuation
// and trailing version tokens, collapses whitespace and rewrites known
// aliases. Pure and total: empty input yields "".
func (m *ProductNameMatcher) Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}

	s = parentheticalRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer("-", " ", "_", " ", "/", " ", ",", " ").Replace(s)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	// Drop trailing tokens that are really version numbers ("postgresql 14.2").
	tokens := strings.Fields(s)
	for len(tokens) > 1 && versionTokenRe.MatchString(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}
	s = strings.Join(tokens, " ")

	if canonical, ok := m.aliases[s]; ok {
		return canonical
	}
	return s
}

// ExactMatch reports whether two names normalize to the same non-empty form.
// Two empty names carry no signal and are treated as no-match.
func (m *ProductNameMatcher) ExactMatch(a, b string) bool {
	na, nb := m.Normalize(a), m.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}

// FuzzyMatch computes token-overlap similarity (Dice coefficient) between
// the normalized forms and reports a match when it reaches the threshold.
func (m *ProductNameMatcher) FuzzyMatch(a, b string) ProductMatchResult {
	na, nb := m.Normalize(a), m.Normalize(b)
	if na == "" || nb == "" {
		return ProductMatchResult{}
	}

	sim := diceSimilarity(strings.Fields(na), strings.Fields(nb))
	return ProductMatchResult{
		IsMatch:    sim >= m.threshold,
		Similarity: sim,
	}
}

// Match tries an exact comparison first and falls back to fuzzy matching
// when allowed. Malformed input degrades to no-match, never an error.
func (m *ProductNameMatcher) Match(a, b string, allowFuzzy bool) ProductMatchResult {
	if m.ExactMatch(a, b) {
		return ProductMatchResult{IsMatch: true, IsExact: true, Similarity: 1.0}
	}
	if !allowFuzzy {
		return ProductMatchResult{}
	}
	return m.FuzzyMatch(a, b)
}

// diceSimilarity is 2*|A∩B| / (|A|+|B|) over token sets.
func diceSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	common := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			common++
		}
	}

	return 2.0 * float64(common) / float64(len(setA)+len(setB))
}
