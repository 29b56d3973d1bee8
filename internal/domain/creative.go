package domain

// ArtifactType enumerates the two generated content categories.
type ArtifactType string

const (
	ArtifactTypeReel ArtifactType = "REEL"
	ArtifactTypePost ArtifactType = "POST"
)

// LayoutStyle enumerates the static post layout archetypes.
type LayoutStyle string

const (
	LayoutMagazine      LayoutStyle = "magazine"
	LayoutPoster        LayoutStyle = "poster"
	LayoutAdvertisement LayoutStyle = "advertisement"
)

// GeometryStyle enumerates decorative geometry treatments for static posts.
type GeometryStyle string

const (
	GeometryRibbons  GeometryStyle = "ribbons"
	GeometryCards    GeometryStyle = "cards"
	GeometryFloating GeometryStyle = "floating"
)

// EnergyLevel describes the pacing of a creative option.
type EnergyLevel string

const (
	EnergyChill      EnergyLevel = "chill"
	EnergyUpbeat     EnergyLevel = "upbeat"
	EnergyHighOctane EnergyLevel = "high-octane"
)

// TextPosition enumerates where overlay text is anchored.
type TextPosition string

const (
	TextTop    TextPosition = "top"
	TextCenter TextPosition = "center"
	TextBottom TextPosition = "bottom"
)

// Typography groups the font directives of a creative option. Each field is
// drawn from a small enumerated set enforced at parse time.
type Typography struct {
	FontFamily      string       `json:"fontFamily"`
	FontColor       string       `json:"fontColor"`
	BackgroundColor string       `json:"backgroundColor"`
	TextPosition    TextPosition `json:"textPosition"`
}

// MusicDirectives carries the soundtrack intent of a creative option.
type MusicDirectives struct {
	Mood             string `json:"mood"`
	TrendingAudioTip string `json:"trendingAudioTip"`
	Rationale        string `json:"rationale"`
}

// DirectorParams tune the video timeline for reels.
type DirectorParams struct {
	Transition string  `json:"transition"`
	Effect     string  `json:"effect"`
	Saturation float64 `json:"saturation"`
	Brightness float64 `json:"brightness"`
	DuckAudio  bool    `json:"duckAudio"`
}

// CreativeOption is one candidate AI-authored content plan prior to
// rendering. It is created by the option generator, possibly patched in
// place by the re-corrector, and consumed exactly once by the dispatcher.
type CreativeOption struct {
	Hook         string          `json:"hook"`
	Title        string          `json:"title"`
	Caption      string          `json:"caption"`
	Typography   Typography      `json:"typography"`
	Music        MusicDirectives `json:"music"`
	Director     DirectorParams  `json:"director"`
	QualityScore int             `json:"qualityScore"`
	Energy       EnergyLevel     `json:"energy"`
	SkipIndices  []int           `json:"skipIndices"`
	Layout       LayoutStyle     `json:"layout"`
	Geometry     GeometryStyle   `json:"geometry"`
	Illustration string          `json:"illustrationSubject,omitempty"`
	TemplateHint string          `json:"templateHint,omitempty"`
}

// VisualStyle summarizes the fields the diversity gate treats as one
// "visual style" axis when counting divergence between options.
func (o CreativeOption) VisualStyle() string {
	return string(o.Layout) + "/" + string(o.Geometry) + "/" + o.Typography.FontFamily
}
