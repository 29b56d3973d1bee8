package creative

import (
	"fmt"
	"math/rand"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dreamapp/internal/domain"
)

// legacyProviderName marks trace spans produced by the canned generator.
const legacyProviderName = "legacy-canned"

var legacyHooks = []string{
	"the dish everyone photographs first",
	"what regulars order when nobody's looking",
	"three seconds of steam, zero restraint",
	"proof the kitchen shows off after dark",
	"the plate that ends group-order debates",
}

var legacyMoods = []string{"warm", "electric", "nostalgic", "playful", "cinematic"}

// legacyOptions is the last-resort metadata generator: canned but varied, so
// a total LLM outage still yields renderable options.
func legacyOptions(businessName string, count int, trending []string, rng *rand.Rand) []domain.CreativeOption {
	titleCase := cases.Title(language.English)
	layouts := []domain.LayoutStyle{domain.LayoutMagazine, domain.LayoutPoster, domain.LayoutAdvertisement}
	geometries := []domain.GeometryStyle{domain.GeometryRibbons, domain.GeometryCards, domain.GeometryFloating}

	options := make([]domain.CreativeOption, 0, count)
	perm := rng.Perm(len(legacyHooks))
	for i := 0; i < count; i++ {
		hook := legacyHooks[perm[i%len(perm)]]
		song := ""
		if len(trending) > 0 {
			song = trending[i%len(trending)]
		}
		option := domain.CreativeOption{
			Hook:    titleCase.String(hook),
			Title:   fmt.Sprintf("%s: %s", businessName, titleCase.String(hook)),
			Caption: fmt.Sprintf("%s. Come hungry.", titleCase.String(hook)),
			Music: domain.MusicDirectives{
				Mood:             legacyMoods[i%len(legacyMoods)],
				TrendingAudioTip: song,
				Rationale:        "regional chart pick",
			},
			QualityScore: 6,
			Layout:       layouts[i%len(layouts)],
			Geometry:     geometries[i%len(geometries)],
		}
		applyDefaults(&option)
		options = append(options, option)
	}
	return options
}
