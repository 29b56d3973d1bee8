package creative

import (
	"fmt"
	"strings"

	"dreamapp/internal/domain"
	"dreamapp/internal/trends"
)

// Heuristic thresholds. The values mirror long-standing production tuning;
// treat them as tunable knobs, not derived constants.
const (
	hookOverlapThreshold    = 0.6
	historyOverlapThreshold = 0.8
	minDivergenceAxes       = 2
	significantWordLen      = 3
)

// GatePolicy makes the diversity retry bound and its fail-open behavior an
// explicit configuration value so tests can assert on both.
type GatePolicy struct {
	// MaxAttempts counts total generation attempts (original + retries).
	MaxAttempts int
	// FailOpen accepts the last result when attempts are exhausted.
	FailOpen bool
}

// DefaultGatePolicy is one regeneration, then accept regardless.
var DefaultGatePolicy = GatePolicy{MaxAttempts: 2, FailOpen: true}

// Verdict is the gate's evaluation result.
type Verdict struct {
	Accepted bool
	Reasons  []string
}

// EvaluateDiversity scores an option set against itself and against recent
// history. An empty reason list means acceptance.
func EvaluateDiversity(options []domain.CreativeOption, memory trends.Memory, mode VisionMode) Verdict {
	var reasons []string

	for i := 0; i+1 < len(options); i++ {
		a, b := options[i], options[i+1]

		if ratio := hookOverlap(a.Hook, b.Hook); ratio > hookOverlapThreshold {
			reasons = append(reasons, fmt.Sprintf("hooks %d and %d overlap %.0f%%", i, i+1, ratio*100))
		}
		if divergence(a, b) < minDivergenceAxes {
			reasons = append(reasons, fmt.Sprintf("options %d and %d diverge on fewer than %d of hook/song/style", i, i+1, minDivergenceAxes))
		}
	}

	seenSongs := make(map[string]int)
	for i, o := range options {
		song := strings.ToLower(strings.TrimSpace(o.Music.TrendingAudioTip))
		if song == "" {
			continue
		}
		if prev, dup := seenSongs[song]; dup {
			reasons = append(reasons, fmt.Sprintf("options %d and %d share the audio tip %q", prev, i, o.Music.TrendingAudioTip))
		}
		seenSongs[song] = i
	}

	for i, o := range options {
		for _, used := range memory.UsedHooks {
			if historyOverlap(o.Hook, used) > historyOverlapThreshold {
				reasons = append(reasons, fmt.Sprintf("option %d hook rehashes recent hook %q", i, used))
			}
		}
		for _, used := range memory.UsedSongs {
			if strings.EqualFold(strings.TrimSpace(o.Music.TrendingAudioTip), strings.TrimSpace(used)) {
				reasons = append(reasons, fmt.Sprintf("option %d reuses recent song %q", i, used))
			}
		}
		if mode == NoVision {
			lower := strings.ToLower(o.Hook)
			if strings.Contains(lower, "discover") || strings.Contains(lower, "welcome") {
				reasons = append(reasons, fmt.Sprintf("option %d uses a forbidden generic hook", i))
			}
		}
	}

	return Verdict{Accepted: len(reasons) == 0, Reasons: reasons}
}

// hookOverlap is the word-overlap ratio between two hooks, tokenized on
// whitespace and lower-cased, relative to the smaller hook.
func hookOverlap(a, b string) float64 {
	wordsA := tokenize(a)
	wordsB := tokenize(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := setA[w]; ok {
			shared++
		}
	}
	denom := len(setA)
	if len(seen) < denom {
		denom = len(seen)
	}
	return float64(shared) / float64(denom)
}

// historyOverlap compares only significant words (longer than
// significantWordLen) against a historical hook.
func historyOverlap(hook, used string) float64 {
	significant := func(words []string) map[string]struct{} {
		out := make(map[string]struct{})
		for _, w := range words {
			if len(w) > significantWordLen {
				out[w] = struct{}{}
			}
		}
		return out
	}
	cur := significant(tokenize(hook))
	old := significant(tokenize(used))
	if len(cur) == 0 || len(old) == 0 {
		return 0
	}
	shared := 0
	for w := range cur {
		if _, ok := old[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(cur))
}

// divergence counts how many of the hook/song/visual-style axes differ
// between two consecutive options.
func divergence(a, b domain.CreativeOption) int {
	count := 0
	if !strings.EqualFold(strings.TrimSpace(a.Hook), strings.TrimSpace(b.Hook)) {
		count++
	}
	if !strings.EqualFold(strings.TrimSpace(a.Music.TrendingAudioTip), strings.TrimSpace(b.Music.TrendingAudioTip)) {
		count++
	}
	if a.VisualStyle() != b.VisualStyle() {
		count++
	}
	return count
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
