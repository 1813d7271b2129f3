package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opencite/litgraph/model"
)

// ruleFile is the on-disk shape of an operator-authored rule set.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Priority    int    `yaml:"priority"`
	Category    string `yaml:"category"`
}

// LoadRulesFromYAML reads a normalization rule set from a YAML file, so
// rule sets ship alongside the binary as data rather than code.
func LoadRulesFromYAML(path string) ([]model.NormalizationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("normalize: reading rules file %s: %w", path, err)
	}
	rules, err := ParseRulesYAML(data)
	if err != nil {
		return nil, fmt.Errorf("normalize: parsing rules file %s: %w", path, err)
	}
	return rules, nil
}

// ParseRulesYAML decodes a rule set from YAML bytes. An entry without a
// pattern is an error; empty replacements are allowed, since deletion is
// a legitimate rewrite.
func ParseRulesYAML(data []byte) ([]model.NormalizationRule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	rules := make([]model.NormalizationRule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		if entry.Pattern == "" {
			return nil, fmt.Errorf("rule %d has no pattern", i)
		}
		rules = append(rules, model.NormalizationRule{
			Pattern:     entry.Pattern,
			Replacement: entry.Replacement,
			Priority:    entry.Priority,
			Category:    entry.Category,
		})
	}
	return rules, nil
}
