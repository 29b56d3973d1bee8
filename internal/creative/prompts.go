package creative

import (
	"fmt"
	"math/rand"
	"strings"

	"dreamapp/internal/domain"
	"dreamapp/internal/trends"
	"dreamapp/internal/vision"
)

// VisionMode describes how much visual grounding the generator has.
type VisionMode string

const (
	FullVision    VisionMode = "FULL_VISION"
	PartialVision VisionMode = "PARTIAL_VISION"
	NoVision      VisionMode = "NO_VISION"
)

// fullVisionThreshold is the report length above which the report is
// considered rich enough for full grounding.
const fullVisionThreshold = 200

// DeriveVisionMode classifies the summarizer's report.
func DeriveVisionMode(report vision.Report) VisionMode {
	if report.Failed() || strings.TrimSpace(report.Text) == "" {
		return NoVision
	}
	if len(report.Text) >= fullVisionThreshold {
		return FullVision
	}
	return PartialVision
}

// creativeSpices are the rotating theme seeds. A brand style DNA pins the
// theme instead of drawing from this list.
var creativeSpices = []string{
	"golden-hour nostalgia",
	"late-night neon cravings",
	"farm-to-table honesty",
	"maximalist indulgence",
	"quiet luxury minimalism",
	"street-food chaos energy",
}

// variationArchetypes shape how the options differ from each other.
var variationArchetypes = []string{
	"the bold one-liner that stops the scroll",
	"the slow sensory close-up",
	"the insider secret told to a friend",
	"the playful challenge to the viewer",
	"the behind-the-counter confession",
}

// promptInput gathers everything the prompt builder needs.
type promptInput struct {
	Business     *domain.Business
	Report       vision.Report
	Mode         VisionMode
	Type         domain.ArtifactType
	CampaignGoal string
	Trending     []string
	Memory       trends.Memory
	OptionCount  int
	Spice        string
	Archetypes   []string
	Escalation   string
}

// pickSpice selects the run's creative theme. Style DNA overrides the random
// draw deterministically.
func pickSpice(b *domain.Business, rng *rand.Rand) string {
	if b != nil && b.StyleDNA != nil && strings.TrimSpace(b.StyleDNA.Theme) != "" {
		return b.StyleDNA.Theme
	}
	return creativeSpices[rng.Intn(len(creativeSpices))]
}

// pickArchetypes draws n distinct variation archetypes.
func pickArchetypes(n int, rng *rand.Rand) []string {
	if n > len(variationArchetypes) {
		n = len(variationArchetypes)
	}
	perm := rng.Perm(len(variationArchetypes))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, variationArchetypes[idx])
	}
	return out
}

func buildPrompt(in promptInput) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are the creative director for %q, a restaurant building its Instagram presence.\n", in.Business.Name)
	fmt.Fprintf(&sb, "Produce exactly %d distinct creative option(s) for a %s as a JSON object {\"options\": [...]}.\n\n", in.OptionCount, in.Type)

	switch in.Mode {
	case NoVision:
		sb.WriteString("No usable customer footage is available. Invent a single striking concept built around an illustrated subject instead.\n")
		sb.WriteString("FORBIDDEN: generic hooks starting with \"Discover...\" or \"Welcome...\". Be specific and surprising.\n\n")
	default:
		sb.WriteString("VISUAL REPORT of the customer footage:\n")
		sb.WriteString(in.Report.Text)
		sb.WriteString("\n")
		if len(in.Report.TopPicks) > 0 {
			fmt.Fprintf(&sb, "Strongest shots (batch indices): %v\n", in.Report.TopPicks)
		}
		if len(in.Report.SkipIndices) > 0 {
			fmt.Fprintf(&sb, "Shots to avoid (batch indices): %v\n", in.Report.SkipIndices)
		}
		sb.WriteString("\n")
	}

	if len(in.Trending) > 0 {
		fmt.Fprintf(&sb, "TRENDING AUDIO in the region right now (pick different ones per option): %s\n", strings.Join(in.Trending, "; "))
	}
	if len(in.Memory.UsedSongs) > 0 {
		fmt.Fprintf(&sb, "ALREADY USED SONGS, do not repeat: %s\n", strings.Join(in.Memory.UsedSongs, "; "))
	}
	if len(in.Memory.UsedHooks) > 0 {
		fmt.Fprintf(&sb, "ALREADY USED HOOKS, do not echo their wording: %s\n", strings.Join(in.Memory.UsedHooks, " | "))
	}

	fmt.Fprintf(&sb, "\nCREATIVE THEME for this run: %s\n", in.Spice)
	if len(in.Archetypes) > 0 {
		fmt.Fprintf(&sb, "Spread the options across these archetypes: %s\n", strings.Join(in.Archetypes, "; "))
	}

	if in.Business.PrimaryColor != "" || in.Business.AccentColor != "" {
		fmt.Fprintf(&sb, "Brand colors: primary %s, accent %s.\n", in.Business.PrimaryColor, in.Business.AccentColor)
	}
	if in.Business.UpcomingEvent != "" {
		fmt.Fprintf(&sb, "Upcoming calendar event to optionally reference: %s\n", in.Business.UpcomingEvent)
	}
	if in.CampaignGoal != "" {
		fmt.Fprintf(&sb, "CAMPAIGN GOAL the content must serve: %s\n", in.CampaignGoal)
	}
	if dna := in.Business.StyleDNA; dna != nil {
		fmt.Fprintf(&sb, "Mimic this brand style DNA -- typography: %s; layout: %s; visual: %s; copy voice: %s.\n",
			dna.Typography, dna.Layout, dna.Visual, dna.Copy)
	}

	sb.WriteString("\nEach option object must have: hook, title, caption, ")
	sb.WriteString(`typography {fontFamily, fontColor, backgroundColor, textPosition one of top|center|bottom}, `)
	sb.WriteString(`music {mood, trendingAudioTip, rationale}, `)
	sb.WriteString(`director {transition, effect, saturation, brightness, duckAudio}, `)
	sb.WriteString(`qualityScore 1-10, energy one of chill|upbeat|high-octane, skipIndices, `)
	sb.WriteString(`layout one of magazine|poster|advertisement, geometry one of ribbons|cards|floating`)
	if in.Mode == NoVision {
		sb.WriteString(`, illustrationSubject`)
	}
	sb.WriteString(", and optionally templateHint.\n")

	if in.Escalation != "" {
		sb.WriteString("\n")
		sb.WriteString(in.Escalation)
		sb.WriteString("\n")
	}

	return sb.String()
}

// escalationPrompt names the diversity failure and demands bolder output for
// the single bounded regeneration attempt.
func escalationPrompt(reasons []string) string {
	return fmt.Sprintf(
		"PREVIOUS ATTEMPT REJECTED for lack of diversity: %s. Be drastically bolder. Every option must use a different song, an unrelated hook, and a different visual style. Do not reuse any wording from the rejected attempt.",
		strings.Join(reasons, "; "))
}
