// Package trends supplies regional trending-audio titles and the business's
// recent creative history, both of which bias the generator away from
// repeating itself.
package trends

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"dreamapp/internal/domain"
	"dreamapp/internal/infra/geoip"
)

// DefaultRegion is used when neither the business nor geoip yields a region.
const DefaultRegion = "US"

// charts holds a curated trending-audio list per ISO country code. The lists
// are refreshed out of band; order roughly reflects chart position.
var charts = map[string][]string{
	"US": {
		"Espresso - Sabrina Carpenter",
		"Million Dollar Baby - Tommy Richman",
		"Not Like Us - Kendrick Lamar",
		"Beautiful Things - Benson Boone",
		"A Bar Song (Tipsy) - Shaboozey",
		"Good Luck, Babe! - Chappell Roan",
	},
	"GB": {
		"Stargazing - Myles Smith",
		"Espresso - Sabrina Carpenter",
		"Austin - Dasha",
		"Too Sweet - Hozier",
		"Beautiful Things - Benson Boone",
	},
	"ID": {
		"Sial - Mahalini",
		"Tak Segampang Itu - Anggi Marito",
		"Komang - Raim Laode",
		"Hati-Hati di Jalan - Tulus",
		"Sialan - Juicy Luicy",
	},
	"AU": {
		"Too Sweet - Hozier",
		"Stick Season - Noah Kahan",
		"Espresso - Sabrina Carpenter",
		"Lose Control - Teddy Swims",
	},
}

// Memory is the recent-generation history consulted for avoid lists.
type Memory struct {
	UsedHooks []string
	UsedSongs []string
}

// Provider resolves regional charts and business memory.
type Provider struct {
	geo    geoip.CountryResolver
	traces domain.TraceRepository
	rng    *rand.Rand
}

// NewProvider constructs a Provider. geo may be nil when no GeoIP database
// is configured; traces may be nil in tests.
func NewProvider(geo geoip.CountryResolver, traces domain.TraceRepository, rng *rand.Rand) *Provider {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Provider{geo: geo, traces: traces, rng: rng}
}

// Region picks the chart region: the business hint wins, then a geoip lookup
// of the requester IP, then DefaultRegion.
func (p *Provider) Region(businessRegion, requesterIP string) string {
	if r := strings.ToUpper(strings.TrimSpace(businessRegion)); r != "" {
		if _, ok := charts[r]; ok {
			return r
		}
	}
	if p.geo != nil && requesterIP != "" {
		if code, err := p.geo.CountryCode(requesterIP); err == nil {
			if _, ok := charts[strings.ToUpper(code)]; ok {
				return strings.ToUpper(code)
			}
		}
	}
	return DefaultRegion
}

// TrendingAudio returns the region's chart with recently-used songs filtered
// out when enough titles remain, reshuffled so the generator does not lock
// onto chart order. When filtering would empty the list, the full chart is
// returned instead.
func (p *Provider) TrendingAudio(region string, usedSongs []string) []string {
	chart, ok := charts[strings.ToUpper(region)]
	if !ok {
		chart = charts[DefaultRegion]
	}

	used := make(map[string]struct{}, len(usedSongs))
	for _, s := range usedSongs {
		used[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	fresh := make([]string, 0, len(chart))
	for _, title := range chart {
		if _, seen := used[strings.ToLower(title)]; !seen {
			fresh = append(fresh, title)
		}
	}
	if len(fresh) == 0 {
		fresh = append(fresh, chart...)
	}

	out := make([]string, len(fresh))
	copy(out, fresh)
	p.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// RecentMemory loads the business's used hooks and songs from the trace
// store. Failures degrade to empty memory; diversity then simply has less
// history to avoid.
func (p *Provider) RecentMemory(ctx context.Context, businessID string) Memory {
	if p.traces == nil {
		return Memory{}
	}
	hooks, songs, err := p.traces.RecentCreative(ctx, businessID, 10)
	if err != nil {
		return Memory{}
	}
	return Memory{UsedHooks: hooks, UsedSongs: songs}
}
