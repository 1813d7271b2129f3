package normalize

import (
	"context"
	"strings"

	"github.com/opencite/litgraph/common"
	"github.com/opencite/litgraph/model"
)

const defaultLLMConfirmationThreshold = 0.85

// StageResult records what one cascade stage contributed, kept per-stage
// for callers that want to inspect how a normalization was reached (e.g.
// "stages.rule.appliedRules").
type StageResult struct {
	Ran          bool
	Canonical    string
	Confidence   float64
	Explanation  string
	AppliedRules []string
	Candidates   []Candidate
}

// Result is the outcome of running the full cascade over one surface form.
type Result struct {
	Input         string
	Normalized    string
	WasNormalized bool
	Confidence    float64
	FinalStage    string // "alias" | "rule" | "similarity" | "llm"
	Stages        map[string]StageResult
}

// ServiceConfig tunes the cascade's thresholds and optional behaviors.
type ServiceConfig struct {
	LLMConfirmationThreshold float64
	UseLLMConfirmation       bool
	AutoRegisterAliases      bool
}

// DefaultServiceConfig matches the documented defaults: confirm below
// 0.85 confidence, LLM confirmation and alias auto-registration both off
// until a caller opts in.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{LLMConfirmationThreshold: defaultLLMConfirmationThreshold}
}

// CallOptions overrides ServiceConfig for a single Normalize call.
type CallOptions struct {
	SkipLLM  bool
	ForceLLM bool
}

// KnownEntities supplies the similarity stage's comparison set; callers
// typically source this from the schema provider's cached entity names.
type KnownEntities func(ctx context.Context) ([]string, error)

// Service runs the three-stage canonicalization cascade (alias lookup,
// rule rewriting, similarity matching) with an optional model-confirmation
// fourth stage, short-circuiting as soon as a stage's confidence clears
// the configured threshold.
type Service struct {
	aliases    *AliasManager
	rules      *RuleNormalizer
	similarity *SimilarityMatcher
	confirmer  *ModelConfirmer
	known      KnownEntities
	cfg        ServiceConfig
	logger     *common.ContextLogger
}

// NewService wires the cascade's stages together. confirmer may be nil if
// no LLM is configured, in which case UseLLMConfirmation is effectively
// ignored.
func NewService(aliases *AliasManager, rules *RuleNormalizer, similarity *SimilarityMatcher, confirmer *ModelConfirmer, known KnownEntities, cfg ServiceConfig) *Service {
	if cfg.LLMConfirmationThreshold <= 0 {
		cfg.LLMConfirmationThreshold = defaultLLMConfirmationThreshold
	}
	return &Service{
		aliases:    aliases,
		rules:      rules,
		similarity: similarity,
		confirmer:  confirmer,
		known:      known,
		cfg:        cfg,
		logger:     common.ServiceLogger("normalize", "cascade"),
	}
}

// Normalize runs input through the cascade, stopping early once a stage's
// confidence clears the LLM confirmation threshold, then optionally
// auto-registers the result as a new alias.
func (s *Service) Normalize(ctx context.Context, input string, opts CallOptions) Result {
	result := Result{Input: input, Stages: make(map[string]StageResult)}

	if canonical, ok, err := s.runAliasStage(ctx, input, &result); err != nil {
		s.logger.WithError(err).Warn("alias stage failed")
	} else if ok {
		return s.finalize(input, canonical, 0.95, "alias", result)
	}

	ruleCanonical, ruleConfidence := s.runRuleStage(input, &result)
	if ruleConfidence >= s.cfg.LLMConfirmationThreshold {
		return s.finalize(input, ruleCanonical, ruleConfidence, "rule", result)
	}

	simCanonical, simConfidence := s.runSimilarityStage(ctx, ruleCanonical, &result)
	best := ruleCanonical
	bestConfidence := ruleConfidence
	bestStage := "rule"
	if simConfidence > bestConfidence {
		best, bestConfidence, bestStage = simCanonical, simConfidence, "similarity"
	}

	if bestConfidence >= s.cfg.LLMConfirmationThreshold && !opts.ForceLLM {
		return s.finalize(input, best, bestConfidence, bestStage, result)
	}

	if opts.SkipLLM || !s.cfg.UseLLMConfirmation || s.confirmer == nil {
		return s.finalize(input, best, bestConfidence, bestStage, result)
	}

	llmCanonical, llmConfidence, ok := s.runLLMStage(ctx, input, best, &result)
	if ok && llmConfidence > bestConfidence {
		best, bestConfidence, bestStage = llmCanonical, llmConfidence, "llm"
	}

	return s.finalize(input, best, bestConfidence, bestStage, result)
}

func (s *Service) runAliasStage(ctx context.Context, input string, result *Result) (string, bool, error) {
	if s.aliases == nil {
		return "", false, nil
	}
	canonical, found, err := s.aliases.ResolveAlias(ctx, input)
	if err != nil {
		return "", false, err
	}
	result.Stages["alias"] = StageResult{Ran: true, Canonical: canonical, Confidence: 0.95, Explanation: "Found in alias table"}
	return canonical, found, nil
}

func (s *Service) runRuleStage(input string, result *Result) (string, float64) {
	if s.rules == nil {
		result.Stages["rule"] = StageResult{Ran: false, Canonical: input, Confidence: 0.5}
		return input, 0.5
	}
	r := s.rules.Apply(input)
	result.Stages["rule"] = StageResult{Ran: true, Canonical: r.Output, Confidence: r.Confidence, AppliedRules: r.AppliedRules}
	return r.Output, r.Confidence
}

func (s *Service) runSimilarityStage(ctx context.Context, input string, result *Result) (string, float64) {
	if s.similarity == nil {
		return input, 0
	}
	var known []string
	if s.known != nil {
		if k, err := s.known(ctx); err == nil {
			known = k
		} else {
			s.logger.WithError(err).Warn("loading known entity set for similarity stage failed")
		}
	}

	sim, err := s.similarity.Match(ctx, input, known)
	if err != nil {
		s.logger.WithError(err).Warn("similarity stage failed")
		return input, 0
	}
	result.Stages["similarity"] = StageResult{Ran: true, Canonical: sim.Best, Confidence: sim.BestScore, Candidates: sim.Candidates}
	if sim.Best == "" {
		return input, 0
	}
	return sim.Best, sim.BestScore
}

func (s *Service) runLLMStage(ctx context.Context, input, candidate string, result *Result) (string, float64, bool) {
	var known []string
	if s.known != nil {
		if k, err := s.known(ctx); err == nil {
			known = k
		}
	}

	confirmation, err := s.confirmer.Confirm(ctx, input, candidate, known)
	if err != nil {
		s.logger.WithError(err).Warn("model confirmation stage failed")
		return "", 0, false
	}

	canonical := candidate
	if confirmation.Suggestion != "" {
		canonical = confirmation.Suggestion
	}
	result.Stages["llm"] = StageResult{Ran: true, Canonical: canonical, Confidence: confirmation.Confidence, Explanation: confirmation.Explanation}
	if !confirmation.Confirmed {
		return "", 0, false
	}
	return canonical, confirmation.Confidence, true
}

func (s *Service) finalize(input, canonical string, confidence float64, stage string, result Result) Result {
	result.Normalized = canonical
	result.Confidence = confidence
	result.FinalStage = stage
	result.WasNormalized = !strings.EqualFold(input, canonical)

	if s.cfg.AutoRegisterAliases && result.WasNormalized && s.aliases != nil {
		if err := s.aliases.RegisterAlias(context.Background(), input, canonical, confidence, stageToSource(stage)); err != nil {
			s.logger.WithError(err).Warn("auto-registering alias failed")
		}
	}
	return result
}

func stageToSource(stage string) model.AliasSource {
	switch stage {
	case "rule":
		return model.AliasSourceRule
	case "similarity":
		return model.AliasSourceSimilarity
	case "llm":
		return model.AliasSourceLLM
	default:
		return model.AliasSourceRule
	}
}
