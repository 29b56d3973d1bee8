package creative

import (
	"strings"

	"dreamapp/internal/domain"
	"dreamapp/internal/providers/llm"
)

type optionsPayload struct {
	Options []domain.CreativeOption `json:"options"`
}

// parseOptions decodes the LLM output and repairs it field by field.
// Malformed output never aborts the generation: missing fields receive
// defaults instead.
func parseOptions(raw string, want int) []domain.CreativeOption {
	var payload optionsPayload
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		// Some models return a bare array instead of the wrapper object.
		var bare []domain.CreativeOption
		if err := llm.DecodeJSON(raw, &bare); err != nil {
			return nil
		}
		payload.Options = bare
	}
	options := payload.Options
	if len(options) > want {
		options = options[:want]
	}
	for i := range options {
		applyDefaults(&options[i])
	}
	return options
}

var (
	validLayouts = map[domain.LayoutStyle]struct{}{
		domain.LayoutMagazine: {}, domain.LayoutPoster: {}, domain.LayoutAdvertisement: {},
	}
	validGeometries = map[domain.GeometryStyle]struct{}{
		domain.GeometryRibbons: {}, domain.GeometryCards: {}, domain.GeometryFloating: {},
	}
	validEnergies = map[domain.EnergyLevel]struct{}{
		domain.EnergyChill: {}, domain.EnergyUpbeat: {}, domain.EnergyHighOctane: {},
	}
	validPositions = map[domain.TextPosition]struct{}{
		domain.TextTop: {}, domain.TextCenter: {}, domain.TextBottom: {},
	}
)

// applyDefaults substitutes per-field fallbacks so downstream renderers can
// rely on every field being populated and enum-valid.
func applyDefaults(o *domain.CreativeOption) {
	if strings.TrimSpace(o.Hook) == "" {
		o.Hook = "Tonight's plate tells its own story"
	}
	if strings.TrimSpace(o.Title) == "" {
		o.Title = o.Hook
	}
	if strings.TrimSpace(o.Caption) == "" {
		o.Caption = o.Hook
	}
	if o.Typography.FontFamily == "" {
		o.Typography.FontFamily = "Montserrat"
	}
	if o.Typography.FontColor == "" {
		o.Typography.FontColor = "#FFFFFF"
	}
	if o.Typography.BackgroundColor == "" {
		o.Typography.BackgroundColor = "#1A1A1A"
	}
	if _, ok := validPositions[o.Typography.TextPosition]; !ok {
		o.Typography.TextPosition = domain.TextBottom
	}
	if strings.TrimSpace(o.Music.Mood) == "" {
		o.Music.Mood = "warm"
	}
	if o.QualityScore < 1 || o.QualityScore > 10 {
		o.QualityScore = 7
	}
	if _, ok := validEnergies[o.Energy]; !ok {
		o.Energy = domain.EnergyUpbeat
	}
	if _, ok := validLayouts[o.Layout]; !ok {
		o.Layout = domain.LayoutPoster
	}
	if _, ok := validGeometries[o.Geometry]; !ok {
		o.Geometry = domain.GeometryCards
	}
	if o.Director.Transition == "" {
		o.Director.Transition = "fade"
	}
	if o.Director.Effect == "" {
		o.Director.Effect = "zoomIn"
	}
	if o.Director.Saturation == 0 {
		o.Director.Saturation = 1.0
	}
	if o.Director.Brightness == 0 {
		o.Director.Brightness = 1.0
	}
}
