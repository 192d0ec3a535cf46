package workflows

import (
	"fmt"

	"storyboard-backend/internal/script"
	"storyboard-backend/internal/storyboards"
)

// BGMLibrary is the built-in background-audio catalogue offered at step 6.
var BGMLibrary = []string{
	"calm_piano",
	"epic_orchestral",
	"lofi_beats",
	"ambient_drone",
	storyboards.BGMNone,
}

const defaultBGMTrack = "calm_piano"

// DeriveStepInput computes the read-model a user sees for one step from the
// storyboard alone. It never mutates the storyboard; calling it twice on
// unchanged state yields identical output.
func DeriveStepInput(step int, sb storyboards.Storyboard) (any, error) {
	switch step {
	case 1:
		return Step1Input{Title: sb.Title, StoryText: sb.StoryText, SceneCount: sb.SceneCount}, nil
	case 2:
		return deriveStep2(sb), nil
	case 3:
		return deriveStep3(sb), nil
	case 4:
		return deriveStep4(sb), nil
	case 5:
		return deriveStep5(sb), nil
	case 6:
		return deriveStep6(sb), nil
	case 7:
		return deriveStep7(sb), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
}

func deriveStep2(sb storyboards.Storyboard) Step2Input {
	summary := make([]string, 0, len(sb.Characters))
	for _, ch := range sb.Characters {
		entry := ch.Name
		if ch.Role != "" {
			entry = fmt.Sprintf("%s (%s)", ch.Name, ch.Role)
		}
		summary = append(summary, entry)
	}
	return Step2Input{Summary: sb.Summary, Acts: sb.Acts, CharacterSummary: summary}
}

func deriveStep3(sb storyboards.Storyboard) Step3Input {
	tone := ""
	if sb.Summary != nil {
		tone = sb.Summary.Tone
	}
	return Step3Input{Characters: sb.Characters, Tone: tone}
}

func deriveStep4(sb storyboards.Storyboard) Step4Input {
	style := ""
	if sb.Style != nil {
		style = sb.Style.VisualStyle
	}
	return Step4Input{Scenes: sb.Scenes, VisualStyle: style}
}

func deriveStep5(sb storyboards.Storyboard) Step5Input {
	lineCounts := make(map[string]int)
	scenes := make([]SceneDialogue, 0, len(sb.Scenes))
	for _, sc := range sb.Scenes {
		scenes = append(scenes, SceneDialogue{SceneID: sc.ID, Title: sc.Title, Dialogue: sc.Dialogue})
		for _, line := range sc.Dialogue {
			lineCounts[line.Speaker]++
		}
	}

	candidates := make([]VoiceCandidate, 0, len(sb.Characters))
	for _, ch := range sb.Characters {
		suggested := ch.VoiceType
		if suggested == "" {
			suggested = script.DefaultVoice
		}
		candidates = append(candidates, VoiceCandidate{
			CharacterID:    ch.ID,
			Name:           ch.Name,
			SuggestedVoice: suggested,
			LineCount:      lineCounts[ch.Name],
		})
	}
	return Step5Input{Characters: candidates, Scenes: scenes}
}

func deriveStep6(sb storyboards.Storyboard) Step6Input {
	return Step6Input{BGMLibrary: BGMLibrary, Audio: sb.Audio, Captions: sb.Captions}
}

func deriveStep7(sb storyboards.Storyboard) Step7Input {
	preview := script.Assemble(sb)
	return Step7Input{
		Preview:    preview,
		SceneCount: len(sb.Scenes),
		BeatCount:  len(preview.Beats),
	}
}
