package creative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dreamapp/internal/providers/groq"
	"dreamapp/internal/providers/llm"
	"dreamapp/internal/trace"
)

// CritiqueVerdict is the vision model's vibe-check answer.
type CritiqueVerdict struct {
	Matches   bool   `json:"matches"`
	Reasoning string `json:"reasoning"`
	FixHint   string `json:"fixHint,omitempty"`
}

// VisionCritic compares a rendered post against brand references. It is
// satisfied by the Groq vision client and by test fakes.
type VisionCritic interface {
	DescribeImageURL(ctx context.Context, prompt, imgURL string) (string, error)
}

var _ VisionCritic = (*groq.Client)(nil)

// Critic runs the brand vibe check on freshly rendered posts.
type Critic struct {
	vision   VisionCritic
	recorder *trace.Recorder
	logger   zerolog.Logger
}

// NewCritic constructs a Critic. vision may be nil, which makes every check
// an automatic match.
func NewCritic(vision VisionCritic, recorder *trace.Recorder, logger zerolog.Logger) *Critic {
	return &Critic{vision: vision, recorder: recorder, logger: logger}
}

// Check compares the rendered URL against the logo and style references.
// A critic that errors answers "matches" -- availability over quality
// gating.
func (c *Critic) Check(ctx context.Context, traceID, renderedURL, logoURL string, styleRefs []string) CritiqueVerdict {
	if c.vision == nil || logoURL == "" {
		return CritiqueVerdict{Matches: true, Reasoning: "no critic configured"}
	}

	if len(styleRefs) > 3 {
		styleRefs = styleRefs[:3]
	}
	prompt := critiquePrompt(logoURL, styleRefs)

	started := time.Now()
	raw, err := c.vision.DescribeImageURL(ctx, prompt, renderedURL)
	finished := time.Now()
	if err != nil {
		c.logger.Warn().Err(err).Str("trace_id", traceID).Msg("critique: vision call failed, accepting render")
		return CritiqueVerdict{Matches: true, Reasoning: "critique unavailable: " + err.Error()}
	}

	verdict := CritiqueVerdict{Matches: true, Reasoning: raw}
	if decodeErr := llm.DecodeJSON(raw, &verdict); decodeErr != nil {
		// Unstructured answer: look for an explicit mismatch signal only.
		verdict.Matches = !strings.Contains(strings.ToLower(raw), "\"matches\": false")
		verdict.Reasoning = raw
	}

	if c.recorder != nil {
		c.recorder.Record(traceID, trace.Span{
			Agent:      "VibeCheck",
			Input:      "render=" + renderedURL,
			Output:     fmt.Sprintf("matches=%t reasoning=%s", verdict.Matches, verdict.Reasoning),
			Prompt:     prompt,
			StartedAt:  started,
			FinishedAt: finished,
		})
	}
	return verdict
}

func critiquePrompt(logoURL string, styleRefs []string) string {
	var sb strings.Builder
	sb.WriteString("You are a brand QA reviewer. The attached image is a freshly rendered social media post.\n")
	fmt.Fprintf(&sb, "Brand logo: %s\n", logoURL)
	if len(styleRefs) > 0 {
		fmt.Fprintf(&sb, "Style reference images: %s\n", strings.Join(styleRefs, ", "))
	}
	sb.WriteString(`Does the rendered post visually belong to this brand -- palette, typography weight, overall mood?
Respond with JSON: {"matches": true|false, "reasoning": "<one paragraph>", "fixHint": "<optional: what to change>"}`)
	return sb.String()
}
