package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/opencite/litgraph/graphstore"
	"github.com/opencite/litgraph/model"
	"github.com/opencite/litgraph/normalize"
)

var (
	normalizeKnown     []string
	normalizeLLM       bool
	normalizeRulesFile string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [term]",
	Short: "Run one surface form through the entity-canonicalization cascade",
	Args:  cobra.ExactArgs(1),
	RunE:  runNormalize,
}

func init() {
	normalizeCmd.Flags().StringSliceVar(&normalizeKnown, "known", nil, "comma-separated known canonical names for the similarity stage")
	normalizeCmd.Flags().BoolVar(&normalizeLLM, "llm-confirm", false, "fall back to an LLM confirmation stage below the threshold")
	normalizeCmd.Flags().StringVar(&normalizeRulesFile, "rules", "", "YAML file of normalization rules (defaults to the built-in set)")
}

func runNormalize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	svc, err := buildNormalizeService(store.Repository)
	if err != nil {
		return err
	}

	result := svc.Normalize(ctx, args[0], normalize.CallOptions{SkipLLM: !normalizeLLM})
	return printJSON(result)
}

func buildNormalizeService(repo graphstore.GraphRepository) (*normalize.Service, error) {
	ruleSet := defaultNormalizationRules()
	if normalizeRulesFile != "" {
		loaded, err := normalize.LoadRulesFromYAML(normalizeRulesFile)
		if err != nil {
			return nil, err
		}
		ruleSet = loaded
	}

	aliasMgr := normalize.NewAliasManager(repo, normalize.DefaultAliasManagerConfig())
	rules := normalize.NewRuleNormalizer(ruleSet)
	matcher := normalize.NewSimilarityMatcher(normalize.SimilarityMatcherConfig{})

	var confirmer *normalize.ModelConfirmer
	if provider := openLLMProvider(); provider != nil {
		confirmer = normalize.NewModelConfirmer(provider)
	}

	known := func(ctx context.Context) ([]string, error) { return normalizeKnown, nil }

	cfg := normalize.DefaultServiceConfig()
	cfg.UseLLMConfirmation = viper.GetBool("normalize.use_llm_confirmation") || normalizeLLM
	cfg.AutoRegisterAliases = true

	return normalize.NewService(aliasMgr, rules, matcher, confirmer, known, cfg), nil
}

// defaultNormalizationRules seeds the rule stage with a handful of common
// AI/ML model-name variants; the --rules flag replaces them with a rule set
// loaded from a YAML file.
func defaultNormalizationRules() []model.NormalizationRule {
	return []model.NormalizationRule{
		{Pattern: `GPT[-\s]?4[oO]?`, Replacement: "GPT4", Priority: 10, Category: "model-name"},
		{Pattern: `GPT[-\s]?3\.5`, Replacement: "GPT3.5", Priority: 10, Category: "model-name"},
		{Pattern: `BERT[-\s]?(base|large)?`, Replacement: "BERT", Priority: 5, Category: "model-name"},
	}
}
