package trends

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"testing"

	"dreamapp/internal/domain"
)

type fakeGeo struct {
	code string
	err  error
}

func (f *fakeGeo) CountryCode(string) (string, error) {
	return f.code, f.err
}

type fakeTraces struct {
	hooks []string
	songs []string
	err   error
}

func (f *fakeTraces) SaveSpans(context.Context, []domain.TraceSpan) error { return nil }

func (f *fakeTraces) ListByTraceID(context.Context, string) ([]domain.TraceSpan, error) {
	return nil, nil
}

func (f *fakeTraces) AttachReward(context.Context, string, float64) error { return nil }

func (f *fakeTraces) RecentCreative(context.Context, string, int) ([]string, []string, error) {
	return f.hooks, f.songs, f.err
}

func newTestProvider(geo *fakeGeo, traces *fakeTraces) *Provider {
	rng := rand.New(rand.NewSource(1))
	switch {
	case geo == nil && traces == nil:
		return NewProvider(nil, nil, rng)
	case geo == nil:
		return NewProvider(nil, traces, rng)
	case traces == nil:
		return NewProvider(geo, nil, rng)
	default:
		return NewProvider(geo, traces, rng)
	}
}

func TestRegionBusinessHintWins(t *testing.T) {
	p := newTestProvider(&fakeGeo{code: "GB"}, nil)
	if got := p.Region("id", "8.8.8.8"); got != "ID" {
		t.Fatalf("region = %q, want ID", got)
	}
}

func TestRegionFallsBackToGeoIP(t *testing.T) {
	p := newTestProvider(&fakeGeo{code: "GB"}, nil)
	if got := p.Region("", "8.8.8.8"); got != "GB" {
		t.Fatalf("region = %q, want GB", got)
	}
}

func TestRegionDefaultsOnUnknownChart(t *testing.T) {
	p := newTestProvider(&fakeGeo{code: "ZZ"}, nil)
	if got := p.Region("XX", "8.8.8.8"); got != DefaultRegion {
		t.Fatalf("region = %q, want default", got)
	}
}

func TestRegionDefaultsOnGeoError(t *testing.T) {
	p := newTestProvider(&fakeGeo{err: errors.New("db missing")}, nil)
	if got := p.Region("", "8.8.8.8"); got != DefaultRegion {
		t.Fatalf("region = %q, want default", got)
	}
}

func TestTrendingAudioFiltersUsedSongs(t *testing.T) {
	p := newTestProvider(nil, nil)
	used := []string{"espresso - sabrina carpenter"}
	out := p.TrendingAudio("US", used)
	if len(out) != len(charts["US"])-1 {
		t.Fatalf("len = %d, want chart minus used", len(out))
	}
	for _, title := range out {
		if title == "Espresso - Sabrina Carpenter" {
			t.Fatalf("used song survived the filter")
		}
	}
}

func TestTrendingAudioFullChartWhenAllUsed(t *testing.T) {
	p := newTestProvider(nil, nil)
	out := p.TrendingAudio("AU", charts["AU"])
	if len(out) != len(charts["AU"]) {
		t.Fatalf("len = %d, want full chart fallback", len(out))
	}
	want := append([]string(nil), charts["AU"]...)
	got := append([]string(nil), out...)
	sort.Strings(want)
	sort.Strings(got)
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("chart contents changed: %v vs %v", out, charts["AU"])
		}
	}
}

func TestTrendingAudioUnknownRegionUsesDefault(t *testing.T) {
	p := newTestProvider(nil, nil)
	out := p.TrendingAudio("ZZ", nil)
	if len(out) != len(charts[DefaultRegion]) {
		t.Fatalf("len = %d, want default chart", len(out))
	}
}

func TestRecentMemoryDegradesOnError(t *testing.T) {
	p := newTestProvider(nil, &fakeTraces{err: errors.New("query failed")})
	memory := p.RecentMemory(context.Background(), "biz-1")
	if len(memory.UsedHooks) != 0 || len(memory.UsedSongs) != 0 {
		t.Fatalf("memory = %+v, want empty on error", memory)
	}
}

func TestRecentMemoryLoadsHistory(t *testing.T) {
	p := newTestProvider(nil, &fakeTraces{hooks: []string{"h1"}, songs: []string{"s1"}})
	memory := p.RecentMemory(context.Background(), "biz-1")
	if len(memory.UsedHooks) != 1 || len(memory.UsedSongs) != 1 {
		t.Fatalf("memory = %+v", memory)
	}
}
