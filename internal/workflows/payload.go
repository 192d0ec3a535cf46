package workflows

import (
	"encoding/json"
	"fmt"

	"storyboard-backend/internal/script"
	"storyboard-backend/internal/storyboards"
)

// Per-step submission payloads. One concrete type per step keeps all seven
// transition cases covered at compile time; DecodeStepOutput is the single
// place a raw payload meets its step number.

// Step1Output confirms (or edits) the raw story material.
type Step1Output struct {
	Title      string `json:"title"`
	StoryText  string `json:"storyText"`
	SceneCount int    `json:"sceneCount"`
}

// Step2Output is the user-edited title and act structure, accepted verbatim.
type Step2Output struct {
	Title string            `json:"title"`
	Acts  []storyboards.Act `json:"acts"`
}

// Step3Output is the detailed character roster.
type Step3Output struct {
	Characters []storyboards.Character `json:"characters"`
}

// SceneEdit is one per-scene override, merged into scenes by id.
type SceneEdit struct {
	ID             string                     `json:"id"`
	Title          string                     `json:"title,omitempty"`
	ImagePrompt    string                     `json:"imagePrompt,omitempty"`
	Dialogue       []storyboards.DialogueLine `json:"dialogue,omitempty"`
	ImageURL       string                     `json:"imageUrl,omitempty"`
	CustomImageKey string                     `json:"customImageKey,omitempty"`
}

// Step4Output carries per-scene edits; untouched scenes are omitted.
type Step4Output struct {
	Scenes []SceneEdit `json:"scenes"`
}

// Step5Output assigns a voice per character name.
type Step5Output struct {
	VoiceSettings map[string]string `json:"voiceSettings"`
}

// Step6Output selects background audio, captions and final visual style.
type Step6Output struct {
	BGMSelection    string                       `json:"bgmSelection"`
	BGMVolume       float64                      `json:"bgmVolume"`
	CustomBGMKey    string                       `json:"customBgmKey,omitempty"`
	VisualStyle     string                       `json:"visualStyle,omitempty"`
	PromptOverrides map[string]string            `json:"promptOverrides,omitempty"`
	Captions        *storyboards.CaptionSettings `json:"captions,omitempty"`
}

// DecodeStepOutput decodes a raw submission for the given step into its
// typed payload. Step 7 carries no payload and decodes to nil.
func DecodeStepOutput(step int, raw json.RawMessage) (any, error) {
	decode := func(v any) (any, error) {
		if len(raw) == 0 {
			return nil, fmt.Errorf("%w: step %d requires a payload", ErrInvalidPayload, step)
		}
		if err := json.Unmarshal(raw, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return v, nil
	}

	switch step {
	case 1:
		return decode(&Step1Output{})
	case 2:
		return decode(&Step2Output{})
	case 3:
		return decode(&Step3Output{})
	case 4:
		return decode(&Step4Output{})
	case 5:
		return decode(&Step5Output{})
	case 6:
		return decode(&Step6Output{})
	case 7:
		return nil, nil
	default:
		return nil, ErrInvalidStep
	}
}

// Per-step derived read-models. Step 1 has no derivation beyond echoing the
// entry-point material.

type Step1Input struct {
	Title      string `json:"title"`
	StoryText  string `json:"storyText"`
	SceneCount int    `json:"sceneCount"`
}

type Step2Input struct {
	Summary          *storyboards.Summary `json:"summary"`
	Acts             []storyboards.Act    `json:"acts"`
	CharacterSummary []string             `json:"characterSummary"`
}

type Step3Input struct {
	Characters []storyboards.Character `json:"characters"`
	Tone       string                  `json:"tone"`
}

type Step4Input struct {
	Scenes      []storyboards.Scene `json:"scenes"`
	VisualStyle string              `json:"visualStyle"`
}

// VoiceCandidate pairs a roster character with a suggested voice.
type VoiceCandidate struct {
	CharacterID    string `json:"characterId"`
	Name           string `json:"name"`
	SuggestedVoice string `json:"suggestedVoice"`
	LineCount      int    `json:"lineCount"`
}

// SceneDialogue exposes one scene's spoken lines for voice assignment.
type SceneDialogue struct {
	SceneID  string                     `json:"sceneId"`
	Title    string                     `json:"title"`
	Dialogue []storyboards.DialogueLine `json:"dialogue"`
}

type Step5Input struct {
	Characters []VoiceCandidate `json:"characters"`
	Scenes     []SceneDialogue  `json:"scenes"`
}

type Step6Input struct {
	BGMLibrary []string                     `json:"bgmLibrary"`
	Audio      *storyboards.AudioSettings   `json:"audio"`
	Captions   *storyboards.CaptionSettings `json:"captions"`
}

// Step7Input is the final-review read-model: a provisional script skeleton
// plus headline counts.
type Step7Input struct {
	Preview    script.Script `json:"preview"`
	SceneCount int           `json:"sceneCount"`
	BeatCount  int           `json:"beatCount"`
}
