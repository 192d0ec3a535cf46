// Package script assembles the declarative rendering script consumed by the
// external render service.
package script

// Script is the flattened declarative script for one storyboard.
type Script struct {
	Title           string            `json:"title"`
	Style           string            `json:"style,omitempty"`
	Beats           []Beat            `json:"beats"`
	Voices          map[string]string `json:"voices"`
	BackgroundAudio *BackgroundAudio  `json:"backgroundAudio,omitempty"`
	Captions        *Captions         `json:"captions,omitempty"`
	ReferenceImages map[string]string `json:"referenceImages,omitempty"`
}

// Beat is one flattened unit of the script: one spoken line plus its visual
// context. LineID is the stable dialogue-line identifier carried over from
// the storyboard.
type Beat struct {
	LineID      string `json:"lineId"`
	SceneID     string `json:"sceneId"`
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	ImagePrompt string `json:"imagePrompt,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// BackgroundAudio holds resolved background-audio parameters. Absent from
// the script entirely when the user selected no background audio.
type BackgroundAudio struct {
	Track  string  `json:"track"`
	Volume float64 `json:"volume"`
	Custom bool    `json:"custom"`
}

// Captions holds caption parameters for the rendered video.
type Captions struct {
	Enabled  bool   `json:"enabled"`
	Language string `json:"language"`
	Position string `json:"position"`
	FontSize int    `json:"fontSize"`
}
