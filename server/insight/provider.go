package insight

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/habitpulse/habitpulse/internal/profile"
)

// Provider generates insights from habit histories. Implementations never
// return an error: any transport failure is converted into a deterministic
// fallback so callers always receive a valid result.
type Provider interface {
	GenerateInsight(ctx context.Context, history *HabitHistory, userCtx *UserContext) *Insight
	AnalyzePatterns(ctx context.Context, histories []*HabitHistory) *PatternAnalysis
}

// completionRequest is one text-generation call to the underlying transport.
type completionRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

// completeFunc is the transport strategy: it returns the raw model text or a
// transport error. Strategies differ only here.
type completeFunc func(ctx context.Context, req completionRequest) (string, error)

// provider is the shared implementation behind every strategy.
type provider struct {
	name     string
	complete completeFunc
	timeout  time.Duration
	logger   *slog.Logger
}

const defaultProviderTimeout = 30 * time.Second

func newProvider(name string, complete completeFunc) *provider {
	return &provider{
		name:     name,
		complete: complete,
		timeout:  defaultProviderTimeout,
		logger:   slog.Default(),
	}
}

// NewProvider selects the configured strategy. One provider is active per
// process; there is no runtime switching.
func NewProvider(prof *profile.Profile) (Provider, error) {
	switch prof.AIProvider {
	case "openai":
		return newOpenAIProvider(prof), nil
	case "anthropic":
		return newAnthropicProvider(prof), nil
	default:
		return nil, fmt.Errorf("unsupported insight provider: %s", prof.AIProvider)
	}
}

func (p *provider) GenerateInsight(ctx context.Context, history *HabitHistory, userCtx *UserContext) *Insight {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.complete(ctx, completionRequest{
		System:    insightSystemPrompt,
		Prompt:    buildInsightPrompt(history, userCtx),
		MaxTokens: 500,
	})
	if err != nil {
		p.logger.Warn("insight generation failed, using fallback",
			"provider", p.name,
			"habit_id", history.HabitID,
			"error", err,
		)
		return fallbackInsight(history)
	}

	return parseInsightResponse(raw)
}

func (p *provider) AnalyzePatterns(ctx context.Context, histories []*HabitHistory) *PatternAnalysis {
	if len(histories) == 0 {
		return emptyPatternAnalysis()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	raw, err := p.complete(ctx, completionRequest{
		System:    patternSystemPrompt,
		Prompt:    buildPatternPrompt(histories),
		MaxTokens: 800,
	})
	if err != nil {
		p.logger.Warn("pattern analysis failed, using empty result",
			"provider", p.name,
			"habits", len(histories),
			"error", err,
		)
		return emptyPatternAnalysis()
	}

	return parsePatternResponse(raw)
}

// fallbackInsight is the canned insight used when the transport fails.
// Content depends on streak state so the message stays useful offline.
func fallbackInsight(history *HabitHistory) *Insight {
	if history.Streak.CurrentStreak == 0 {
		return &Insight{
			Type:            TypeSuggestion,
			Title:           "Get Back on Track",
			Content:         fmt.Sprintf("Your %s habit needs attention. Try starting with smaller, more achievable goals to rebuild momentum.", history.HabitName),
			ConfidenceScore: 0.5,
		}
	}

	return &Insight{
		Type:            TypeEncouragement,
		Title:           "Keep Going!",
		Content:         fmt.Sprintf("Great job maintaining your %d-day streak! Consistency is key to building lasting habits.", history.Streak.CurrentStreak),
		ConfidenceScore: 0.5,
	}
}

func emptyPatternAnalysis() *PatternAnalysis {
	return &PatternAnalysis{
		Patterns:    []Pattern{},
		Suggestions: []string{},
	}
}
