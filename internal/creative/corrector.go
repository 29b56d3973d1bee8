package creative

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/domain"
	"dreamapp/internal/providers/llm"
	"dreamapp/internal/trace"
)

// Corrector patches a creative option after a failed vibe check. Patches are
// constrained to the fixed enums; anything out of range is repaired by
// applyDefaults before the re-render.
type Corrector struct {
	chain    *llm.Chain
	recorder *trace.Recorder
	logger   zerolog.Logger
}

// NewCorrector constructs a Corrector.
func NewCorrector(chain *llm.Chain, recorder *trace.Recorder, logger zerolog.Logger) *Corrector {
	return &Corrector{chain: chain, recorder: recorder, logger: logger}
}

// Correct mutates the option in place based on the critique reasoning. On
// any provider or parse failure the option is returned unchanged so the
// loop can still re-render.
func (c *Corrector) Correct(ctx context.Context, traceID string, option *domain.CreativeOption, verdict CritiqueVerdict) {
	prompt := correctorPrompt(*option, verdict)

	started := time.Now()
	result, err := c.chain.Complete(ctx, llm.Request{Prompt: prompt, Temperature: 0.6, JSONMode: true})
	finished := time.Now()
	if err != nil {
		c.logger.Warn().Err(err).Str("trace_id", traceID).Msg("corrector: chain failed, re-rendering unpatched option")
		return
	}

	var patched domain.CreativeOption
	if decodeErr := llm.DecodeJSON(result.Text, &patched); decodeErr != nil {
		c.logger.Warn().Err(decodeErr).Str("trace_id", traceID).Msg("corrector: unparsable patch, re-rendering unpatched option")
		return
	}
	applyDefaults(&patched)

	// Preserve fields the corrector is not allowed to touch.
	patched.SkipIndices = option.SkipIndices
	patched.TemplateHint = option.TemplateHint
	patched.Illustration = option.Illustration
	*option = patched

	if c.recorder != nil {
		c.recorder.Record(traceID, trace.Span{
			Agent:      "Re-corrector",
			Input:      "critique=" + verdict.Reasoning,
			Output:     result.Text,
			Prompt:     prompt,
			StartedAt:  started,
			FinishedAt: finished,
		})
	}
}

func correctorPrompt(option domain.CreativeOption, verdict CritiqueVerdict) string {
	return fmt.Sprintf(`A rendered social post failed its brand review.

REVIEWER FEEDBACK: %s
FIX HINT: %s

CURRENT PLAN:
hook: %q
layout: %s (allowed: magazine|poster|advertisement)
geometry: %s (allowed: ribbons|cards|floating)
fontFamily: %s, fontColor: %s, backgroundColor: %s, textPosition: %s (allowed: top|center|bottom)

Return the corrected plan as a single JSON object with the same fields as
the original option (hook, title, caption, typography, music, director,
qualityScore, energy, skipIndices, layout, geometry). Change only what the
feedback requires; keep values inside the allowed enums.`,
		verdict.Reasoning, verdict.FixHint,
		option.Hook, option.Layout, option.Geometry,
		option.Typography.FontFamily, option.Typography.FontColor,
		option.Typography.BackgroundColor, option.Typography.TextPosition)
}
