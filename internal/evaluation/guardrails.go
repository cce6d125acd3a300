package evaluation

import "fmt"

// GuardrailConfig sets the floors a run must clear. Zero disables a check.
type GuardrailConfig struct {
	MinRecall         float64
	MinMRR            float64
	MinIntentAccuracy float64
	MaxFailed         int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Check returns one message per violated floor, empty when the run passes.
func (g *Guardrails) Check(s *EvalSummary) []string {
	var violations []string
	if g.config.MinRecall > 0 && s.AvgRecall < g.config.MinRecall {
		violations = append(violations, fmt.Sprintf("recall@%d %.3f below %.3f", s.K, s.AvgRecall, g.config.MinRecall))
	}
	if g.config.MinMRR > 0 && s.AvgMRR < g.config.MinMRR {
		violations = append(violations, fmt.Sprintf("mrr@%d %.3f below %.3f", s.K, s.AvgMRR, g.config.MinMRR))
	}
	if g.config.MinIntentAccuracy > 0 && s.IntentAccuracy < g.config.MinIntentAccuracy {
		violations = append(violations, fmt.Sprintf("intent accuracy %.3f below %.3f", s.IntentAccuracy, g.config.MinIntentAccuracy))
	}
	if s.FailedQueries > g.config.MaxFailed {
		violations = append(violations, fmt.Sprintf("%d failed queries, at most %d allowed", s.FailedQueries, g.config.MaxFailed))
	}
	return violations
}
