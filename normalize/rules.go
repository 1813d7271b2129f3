// Package normalize implements the entity-canonicalization cascade: an
// alias-table lookup, a rule-based rewriter, an edit-distance/vector
// similarity matcher, and an optional LLM confirmation step, backed by a
// persistent alias table with a bounded LRU/TTL cache.
package normalize

import (
	"regexp"
	"sort"

	"github.com/opencite/litgraph/model"
)

// CompiledRule pairs a NormalizationRule with its compiled, case-insensitive
// regular expression.
type CompiledRule struct {
	Rule model.NormalizationRule
	re   *regexp.Regexp
}

// RuleNormalizer applies a fixed set of regex rewrites to a surface form,
// in descending-priority order, each rule a candidate rewrite of the
// previous stage's output.
type RuleNormalizer struct {
	rules []CompiledRule
}

// NewRuleNormalizer compiles rules once at load, sorted by descending
// Priority; malformed patterns are skipped rather than failing the whole
// set, since one bad rule in an operator-edited rules file should not take
// down canonicalization entirely.
func NewRuleNormalizer(rules []model.NormalizationRule) *RuleNormalizer {
	sorted := make([]model.NormalizationRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	compiled := make([]CompiledRule, 0, len(sorted))
	for _, r := range sorted {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			continue
		}
		compiled = append(compiled, CompiledRule{Rule: r, re: re})
	}
	return &RuleNormalizer{rules: compiled}
}

// RuleResult is the outcome of applying the compiled rule set to one input.
type RuleResult struct {
	Output       string
	AppliedRules []string // Pattern of each rule that materially changed the string
	Confidence   float64
}

// Apply runs every compiled rule over input in priority order, each
// replacing all matches of its pattern. A rule "applies" only when it
// actually changes the string; the count of such rules drives confidence.
func (n *RuleNormalizer) Apply(input string) RuleResult {
	current := input
	var applied []string

	for _, cr := range n.rules {
		next := cr.re.ReplaceAllString(current, cr.Rule.Replacement)
		if next != current {
			applied = append(applied, cr.Rule.Pattern)
			current = next
		}
	}

	confidence := 0.5
	if len(applied) > 0 {
		confidence = 0.7 + 0.1*float64(len(applied))
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	return RuleResult{Output: current, AppliedRules: applied, Confidence: confidence}
}
