package creative

import (
	"strings"
	"testing"

	"dreamapp/internal/domain"
	"dreamapp/internal/trends"
)

func option(hook, song string, layout domain.LayoutStyle, geometry domain.GeometryStyle) domain.CreativeOption {
	return domain.CreativeOption{
		Hook:       hook,
		Title:      hook,
		Caption:    hook,
		Music:      domain.MusicDirectives{Mood: "warm", TrendingAudioTip: song},
		Layout:     layout,
		Geometry:   geometry,
		Typography: domain.Typography{FontFamily: "Montserrat"},
	}
}

func distinctSet() []domain.CreativeOption {
	return []domain.CreativeOption{
		option("steam rising off a midnight bowl", "Song A", domain.LayoutMagazine, domain.GeometryRibbons),
		option("the counter seat nobody tells you about", "Song B", domain.LayoutPoster, domain.GeometryCards),
		option("crispy edges, loud friends, zero leftovers", "Song C", domain.LayoutAdvertisement, domain.GeometryFloating),
	}
}

func TestDiversityAcceptsDistinctSet(t *testing.T) {
	verdict := EvaluateDiversity(distinctSet(), trends.Memory{}, FullVision)
	if !verdict.Accepted {
		t.Fatalf("expected acceptance, got reasons %v", verdict.Reasons)
	}
}

func TestDiversityRejectsDuplicateAudioTips(t *testing.T) {
	set := distinctSet()
	set[2].Music.TrendingAudioTip = set[0].Music.TrendingAudioTip
	verdict := EvaluateDiversity(set, trends.Memory{}, FullVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection for shared audio tip")
	}
	if !reasonsContain(verdict.Reasons, "audio tip") {
		t.Fatalf("reasons = %v, want a shared-audio-tip reason", verdict.Reasons)
	}
}

func TestDiversityRejectsOverlappingHooks(t *testing.T) {
	set := distinctSet()
	set[0].Hook = "smoky ramen midnight"
	set[1].Hook = "smoky ramen feast"
	verdict := EvaluateDiversity(set, trends.Memory{}, FullVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection for overlapping consecutive hooks")
	}
	if !reasonsContain(verdict.Reasons, "overlap") {
		t.Fatalf("reasons = %v, want a hook-overlap reason", verdict.Reasons)
	}
}

func TestDiversityRejectsLowDivergence(t *testing.T) {
	set := distinctSet()
	// Same song and same visual style between neighbors leaves only the
	// hook axis differing.
	set[1].Music.TrendingAudioTip = set[0].Music.TrendingAudioTip
	set[1].Layout = set[0].Layout
	set[1].Geometry = set[0].Geometry
	verdict := EvaluateDiversity(set[:2], trends.Memory{}, FullVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection when only one axis diverges")
	}
}

func TestDiversityRejectsRecentSongReuse(t *testing.T) {
	set := distinctSet()
	memory := trends.Memory{UsedSongs: []string{"song b"}}
	verdict := EvaluateDiversity(set, memory, FullVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection for reused recent song")
	}
	if !reasonsContain(verdict.Reasons, "reuses recent song") {
		t.Fatalf("reasons = %v", verdict.Reasons)
	}
}

func TestDiversityRejectsRehashedHistoricalHook(t *testing.T) {
	set := distinctSet()
	memory := trends.Memory{UsedHooks: []string{"steam rising off a midnight bowl"}}
	verdict := EvaluateDiversity(set, memory, FullVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection for rehashed historical hook")
	}
}

func TestDiversityForbidsGenericHooksWithoutVision(t *testing.T) {
	set := []domain.CreativeOption{
		option("Discover the flavors of Milano", "Song A", domain.LayoutPoster, domain.GeometryCards),
	}
	verdict := EvaluateDiversity(set, trends.Memory{}, NoVision)
	if verdict.Accepted {
		t.Fatalf("expected rejection for generic hook in no-vision mode")
	}
	// The same hook is fine when the generator actually saw the media.
	verdict = EvaluateDiversity(set, trends.Memory{}, FullVision)
	if !verdict.Accepted {
		t.Fatalf("vision modes other than no-vision must not forbid the hook: %v", verdict.Reasons)
	}
}

func TestHookOverlapRelativeToSmallerHook(t *testing.T) {
	if got := hookOverlap("smoky ramen midnight", "smoky ramen feast"); got <= hookOverlapThreshold {
		t.Fatalf("overlap = %.2f, want above threshold", got)
	}
	if got := hookOverlap("completely different words", "another set entirely"); got != 0 {
		t.Fatalf("overlap = %.2f, want 0", got)
	}
	if got := hookOverlap("", "anything"); got != 0 {
		t.Fatalf("empty hook overlap = %.2f, want 0", got)
	}
}

func TestHistoryOverlapIgnoresShortWords(t *testing.T) {
	// "the" and "of" are below the significant-word length and must not count.
	got := historyOverlap("the best noodles of the city", "the best noodles of the block")
	if got <= historyOverlapThreshold-0.2 {
		t.Fatalf("overlap = %.2f, expected significant-word match to dominate", got)
	}
	if historyOverlap("a b c", "the of in") != 0 {
		t.Fatalf("all-short-word hooks must not overlap")
	}
}

func reasonsContain(reasons []string, fragment string) bool {
	for _, r := range reasons {
		if strings.Contains(r, fragment) {
			return true
		}
	}
	return false
}
