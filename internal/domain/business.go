package domain

import "time"

// Business represents one tenant restaurant collecting customer media.
type Business struct {
	ID            string
	Name          string
	PrimaryColor  string
	AccentColor   string
	LogoURL       string
	StyleRefURLs  []string
	Region        string
	StyleDNA      *StyleDNA
	UpcomingEvent string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StyleDNA is a structured profile extracted from user-liked reference
// images. When present it pins the creative theme instead of the random
// spice and contributes mimetic directives to the generation prompt.
type StyleDNA struct {
	Typography string `json:"typography"`
	Layout     string `json:"layout"`
	Visual     string `json:"visual"`
	Copy       string `json:"copy"`
	Theme      string `json:"theme"`
}

// MediaKind enumerates uploaded media types.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MediaItem is one customer-submitted photo or video awaiting generation.
type MediaItem struct {
	ID         string
	BusinessID string
	URL        string
	Kind       MediaKind
	Processed  bool
	CreatedAt  time.Time
}
