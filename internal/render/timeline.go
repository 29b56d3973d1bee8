package render

import (
	"dreamapp/internal/domain"
)

// Timeline is the multi-track video-editing payload submitted to the render
// queue.
type Timeline struct {
	Background string  `json:"background,omitempty"`
	Soundtrack *Audio  `json:"soundtrack,omitempty"`
	Tracks     []Track `json:"tracks"`
}

// Audio is the global soundtrack of a timeline.
type Audio struct {
	Src    string  `json:"src"`
	Effect string  `json:"effect,omitempty"`
	Volume float64 `json:"volume,omitempty"`
}

// Track is one ordered clip lane; earlier tracks render on top.
type Track struct {
	Clips []Clip `json:"clips"`
}

// Clip places an asset on the timeline.
type Clip struct {
	Asset      Asset   `json:"asset"`
	Start      float64 `json:"start"`
	Length     float64 `json:"length"`
	Fit        string  `json:"fit,omitempty"`
	Scale      float64 `json:"scale,omitempty"`
	Position   string  `json:"position,omitempty"`
	Effect     string  `json:"effect,omitempty"`
	Transition *Fade   `json:"transition,omitempty"`
	Filter     string  `json:"filter,omitempty"`
	Opacity    float64 `json:"opacity,omitempty"`
}

// Fade describes clip in/out transitions.
type Fade struct {
	In  string `json:"in,omitempty"`
	Out string `json:"out,omitempty"`
}

// Asset is the clip payload: a video/image source or a styled title card.
type Asset struct {
	Type       string  `json:"type"`
	Src        string  `json:"src,omitempty"`
	Text       string  `json:"text,omitempty"`
	Style      string  `json:"style,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	Position   string  `json:"position,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
}

// Output selects the rendered container and resolution.
type Output struct {
	Format      string `json:"format"`
	Resolution  string `json:"resolution"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// ReelOutput is the standard vertical reel output.
var ReelOutput = Output{Format: "mp4", Resolution: "hd", AspectRatio: "9:16"}

const clipSeconds = 2.5

// BuildReelTimeline assembles the reel's multi-track timeline: a blurred,
// scaled copy of each item as the background lane, the item itself fitted
// on top, an optional hook text overlay, and the resolved soundtrack.
func BuildReelTimeline(option domain.CreativeOption, mediaURLs []string, audioURL string) Timeline {
	var background, foreground, overlay Track

	for i, src := range mediaURLs {
		start := float64(i) * clipSeconds
		assetType := "image"

		background.Clips = append(background.Clips, Clip{
			Asset:   Asset{Type: assetType, Src: src},
			Start:   start,
			Length:  clipSeconds,
			Fit:     "crop",
			Scale:   1.4,
			Filter:  "blur",
			Opacity: 0.8,
		})
		foreground.Clips = append(foreground.Clips, Clip{
			Asset:  Asset{Type: assetType, Src: src},
			Start:  start,
			Length: clipSeconds,
			Fit:    "contain",
			Effect: option.Director.Effect,
			Transition: &Fade{
				In:  option.Director.Transition,
				Out: option.Director.Transition,
			},
		})
	}

	total := float64(len(mediaURLs)) * clipSeconds
	if option.Hook != "" {
		overlay.Clips = append(overlay.Clips, Clip{
			Asset: Asset{
				Type:       "title",
				Text:       option.Hook,
				Style:      "blockbuster",
				Color:      option.Typography.FontColor,
				Background: option.Typography.BackgroundColor,
				Position:   string(option.Typography.TextPosition),
			},
			Start:  0,
			Length: total,
		})
	}

	timeline := Timeline{Background: "#000000"}
	// Overlay first: the queue renders earlier tracks above later ones.
	if len(overlay.Clips) > 0 {
		timeline.Tracks = append(timeline.Tracks, overlay)
	}
	timeline.Tracks = append(timeline.Tracks, foreground, background)

	if audioURL != "" {
		soundtrack := &Audio{Src: audioURL, Effect: "fadeInFadeOut"}
		if option.Director.DuckAudio {
			soundtrack.Volume = 0.6
		}
		timeline.Soundtrack = soundtrack
	}
	return timeline
}
