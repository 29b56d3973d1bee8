// Package creative drives the multi-option content generation: prompt
// assembly, the provider fallback chain, the diversity gate with its bounded
// regeneration, and the post-render critique loop.
package creative

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
	"dreamapp/internal/providers/llm"
	"dreamapp/internal/trace"
	"dreamapp/internal/trends"
	"dreamapp/internal/vision"
)

const (
	defaultOptionCount = 3

	baseTemperature      = 0.8
	escalatedTemperature = 1.1
)

// GenerateInput is the context for one option-generation run.
type GenerateInput struct {
	Business     *domain.Business
	Report       vision.Report
	Type         domain.ArtifactType
	CampaignGoal string
	Trending     []string
	Memory       trends.Memory
	TraceID      string
}

// GenerateResult carries the accepted option set.
type GenerateResult struct {
	Options []domain.CreativeOption
	Mode    VisionMode
	TraceID string
}

// Generator produces diverse creative options through the LLM chain.
type Generator struct {
	chain    *llm.Chain
	recorder *trace.Recorder
	policy   GatePolicy
	logger   zerolog.Logger
	rng      *rand.Rand
}

// NewGenerator constructs a Generator. A zero policy falls back to
// DefaultGatePolicy.
func NewGenerator(chain *llm.Chain, recorder *trace.Recorder, policy GatePolicy, logger zerolog.Logger, rng *rand.Rand) *Generator {
	if policy.MaxAttempts <= 0 {
		policy = DefaultGatePolicy
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{chain: chain, recorder: recorder, policy: policy, logger: logger, rng: rng}
}

// Generate runs the prompt through the chain, gates the result for
// diversity, and regenerates once with an escalated prompt on violation.
// Exhausted attempts accept the last result (fail-open); a fully failed
// chain degrades to the canned legacy generator.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	mode := DeriveVisionMode(in.Report)

	optionCount := defaultOptionCount
	archetypeCount := 2 + g.rng.Intn(2)
	if mode == NoVision {
		optionCount = 1
		archetypeCount = 1
	}

	prompt := promptInput{
		Business:     in.Business,
		Report:       in.Report,
		Mode:         mode,
		Type:         in.Type,
		CampaignGoal: in.CampaignGoal,
		Trending:     in.Trending,
		Memory:       in.Memory,
		OptionCount:  optionCount,
		Spice:        pickSpice(in.Business, g.rng),
		Archetypes:   pickArchetypes(archetypeCount, g.rng),
	}

	var options []domain.CreativeOption
	temperature := baseTemperature
	var lastVerdict Verdict

	for attempt := 1; attempt <= g.policy.MaxAttempts; attempt++ {
		candidate, ok := g.invoke(ctx, in, buildPrompt(prompt), temperature, optionCount)
		if !ok {
			// Whole chain down: canned options, no gate (they are varied
			// by construction).
			options = legacyOptions(in.Business.Name, optionCount, in.Trending, g.rng)
			if g.recorder != nil {
				now := time.Now()
				g.recorder.Record(in.TraceID, trace.Span{
					Agent:      "OptionGenerator/" + legacyProviderName,
					Input:      "business=" + in.Business.ID,
					Output:     "canned option set",
					StartedAt:  now,
					FinishedAt: now,
				})
			}
			g.logger.Warn().Str("trace_id", in.TraceID).Msg("creative: llm chain exhausted, using canned options")
			return GenerateResult{Options: options, Mode: mode, TraceID: in.TraceID}, nil
		}

		lastVerdict = EvaluateDiversity(candidate, in.Memory, mode)
		options = candidate
		if lastVerdict.Accepted {
			return GenerateResult{Options: options, Mode: mode, TraceID: in.TraceID}, nil
		}

		g.logger.Info().
			Str("trace_id", in.TraceID).
			Int("attempt", attempt).
			Strs("reasons", lastVerdict.Reasons).
			Msg("creative: diversity gate rejected option set")
		prompt.Escalation = escalationPrompt(lastVerdict.Reasons)
		temperature = escalatedTemperature
	}

	if !g.policy.FailOpen {
		return GenerateResult{}, domain.ErrProviderFailure
	}
	// Soft failure: quality degradation, not an error.
	return GenerateResult{Options: options, Mode: mode, TraceID: in.TraceID}, nil
}

// invoke runs one chain call and records its trace span. ok is false only
// when every provider tier failed or produced unusable output.
func (g *Generator) invoke(ctx context.Context, in GenerateInput, prompt string, temperature float64, want int) ([]domain.CreativeOption, bool) {
	started := time.Now()
	result, err := g.chain.Complete(ctx, llm.Request{
		Prompt:      prompt,
		Temperature: temperature,
		JSONMode:    true,
	})
	finished := time.Now()

	agent := "OptionGenerator"
	if err != nil {
		g.record(in.TraceID, agent, in, "", prompt, started, finished)
		g.logger.Warn().Err(err).Str("trace_id", in.TraceID).Msg("creative: provider chain failed")
		return nil, false
	}
	g.record(in.TraceID, agent+"/"+result.Provider, in, result.Text, prompt, started, finished)

	options := parseOptions(result.Text, want)
	if len(options) == 0 {
		return nil, false
	}
	return options, true
}

func (g *Generator) record(traceID, agent string, in GenerateInput, output, prompt string, started, finished time.Time) {
	if g.recorder == nil {
		return
	}
	g.recorder.Record(traceID, trace.Span{
		Agent:      agent,
		Input:      "business=" + in.Business.ID + " type=" + string(in.Type) + " goal=" + in.CampaignGoal,
		Output:     output,
		Prompt:     prompt,
		StartedAt:  started,
		FinishedAt: finished,
	})
}
