package storyboards

import (
	"encoding/json"
	"time"
)

const (
	StatusDraft     = "draft"
	StatusCompleted = "completed"
)

// Storyboard is the canonical, progressively enriched representation of one
// authored project. Layered fields fill in as the workflow advances.
type Storyboard struct {
	ID          string
	UserID      string
	Title       string
	Status      string
	StoryText   string
	SceneCount  int
	Summary     *Summary
	Acts        []Act
	Characters  []Character
	Scenes      []Scene
	Audio       *AudioSettings
	Style       *StyleSettings
	Captions    *CaptionSettings
	FinalScript json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary holds the high-level framing of the story.
type Summary struct {
	Title   string `json:"title"`
	Premise string `json:"premise"`
	Genre   string `json:"genre"`
	Tone    string `json:"tone"`
}

// Act is one of the five structural acts; its scene stubs are outline-level
// only, detailed scenes live on Storyboard.Scenes.
type Act struct {
	ActNumber   int         `json:"actNumber"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Scenes      []SceneStub `json:"scenes"`
}

// SceneStub is an outline-level scene slot inside an act.
type SceneStub struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

// Character is one roster entry.
type Character struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	Personality       string `json:"personality"`
	VisualDescription string `json:"visualDescription"`
	VoiceType         string `json:"voiceType"`
	FaceImageKey      string `json:"faceImageKey,omitempty"`
}

// DialogueLine is one spoken line. The ID is assigned at generation time and
// carried through to the flattened script beat.
type DialogueLine struct {
	ID      string `json:"id"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Scene is a detailed scene produced by outline expansion and refined by
// later steps. EditedImagePrompt overrides ImagePrompt when non-empty.
type Scene struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	Dialogue          []DialogueLine `json:"dialogue"`
	ImagePrompt       string         `json:"imagePrompt"`
	EditedImagePrompt string         `json:"editedImagePrompt,omitempty"`
	ImageURL          string         `json:"imageUrl,omitempty"`
	CustomImageKey    string         `json:"customImageKey,omitempty"`
}

// BGMNone selects no background audio at all.
const BGMNone = "none"

// AudioSettings holds voice assignments and background-audio choices.
// CustomBGMKey, when set, wins over BGMSelection.
type AudioSettings struct {
	VoiceSettings map[string]string `json:"voiceSettings"`
	BGMSelection  string            `json:"bgmSelection"`
	BGMVolume     float64           `json:"bgmVolume"`
	CustomBGMKey  string            `json:"customBgmKey,omitempty"`
}

// StyleSettings holds the visual style descriptor plus per-scene prompt
// overrides applied last during script assembly.
type StyleSettings struct {
	VisualStyle     string            `json:"visualStyle"`
	PromptOverrides map[string]string `json:"promptOverrides,omitempty"`
}

// CaptionSettings controls burned-in captions on the rendered video.
type CaptionSettings struct {
	Enabled  bool   `json:"enabled"`
	Language string `json:"language"`
	Position string `json:"position"`
	FontSize int    `json:"fontSize"`
}

// DialogueLineCount is the total number of dialogue lines across all scenes.
func (s *Storyboard) DialogueLineCount() int {
	n := 0
	for i := range s.Scenes {
		n += len(s.Scenes[i].Dialogue)
	}
	return n
}

// SceneByID returns a pointer into s.Scenes for in-place edits, or nil.
func (s *Storyboard) SceneByID(id string) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].ID == id {
			return &s.Scenes[i]
		}
	}
	return nil
}
