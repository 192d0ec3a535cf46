package script

import (
	"strings"

	"storyboard-backend/internal/storyboards"
)

// DefaultVoice is assigned to speakers that resolve to no roster character.
const DefaultVoice = "narrator_neutral"

// Assemble flattens a storyboard into one declarative script.
//
// Beats are produced by walking scenes in order and each scene's dialogue
// lines in order. Scene-level overrides (image URL, edited prompt) are then
// applied onto the flat beat array with a running cursor that advances by
// each scene's dialogue-line count, so the beat array and the per-scene
// dialogue arrays must stay index-aligned. Per-scene style overrides apply
// last, unconditionally.
func Assemble(sb storyboards.Storyboard) Script {
	title := sb.Title
	if sb.Summary != nil && sb.Summary.Title != "" {
		title = sb.Summary.Title
	}

	beats := flattenBeats(sb.Scenes)
	applySceneOverrides(beats, sb.Scenes)
	applyStyleOverrides(beats, sb.Style)

	out := Script{
		Title:  title,
		Beats:  beats,
		Voices: resolveVoices(beats, sb.Characters, voiceAssignments(sb.Audio)),
	}
	if sb.Style != nil {
		out.Style = sb.Style.VisualStyle
	}
	out.BackgroundAudio = resolveBackgroundAudio(sb.Audio)
	if sb.Captions != nil && sb.Captions.Enabled {
		out.Captions = &Captions{
			Enabled:  true,
			Language: sb.Captions.Language,
			Position: sb.Captions.Position,
			FontSize: sb.Captions.FontSize,
		}
	}
	out.ReferenceImages = referenceImages(beats, sb.Characters)
	return out
}

func flattenBeats(scenes []storyboards.Scene) []Beat {
	beats := make([]Beat, 0)
	for i := range scenes {
		for _, line := range scenes[i].Dialogue {
			beats = append(beats, Beat{
				LineID:      line.ID,
				SceneID:     scenes[i].ID,
				Speaker:     line.Speaker,
				Text:        line.Text,
				ImagePrompt: scenes[i].ImagePrompt,
			})
		}
	}
	return beats
}

// applySceneOverrides walks the flat beat array with a cursor advancing by
// each scene's dialogue-line count and stamps scene-level image URL and
// edited-prompt overrides onto that scene's beats.
func applySceneOverrides(beats []Beat, scenes []storyboards.Scene) {
	beatIndex := 0
	for i := range scenes {
		count := len(scenes[i].Dialogue)
		for j := 0; j < count && beatIndex+j < len(beats); j++ {
			b := &beats[beatIndex+j]
			if scenes[i].EditedImagePrompt != "" {
				b.ImagePrompt = scenes[i].EditedImagePrompt
			}
			switch {
			case scenes[i].CustomImageKey != "":
				b.ImageURL = scenes[i].CustomImageKey
			case scenes[i].ImageURL != "":
				b.ImageURL = scenes[i].ImageURL
			}
		}
		beatIndex += count
	}
}

func applyStyleOverrides(beats []Beat, style *storyboards.StyleSettings) {
	if style == nil || len(style.PromptOverrides) == 0 {
		return
	}
	for i := range beats {
		if override, ok := style.PromptOverrides[beats[i].SceneID]; ok && override != "" {
			beats[i].ImagePrompt = override
		}
	}
}

func voiceAssignments(audio *storyboards.AudioSettings) map[string]string {
	if audio == nil {
		return nil
	}
	return audio.VoiceSettings
}

// resolveVoices builds the speaker-to-voice map for every distinct speaker
// in the beats. Exact roster-name match wins, then substring match in either
// direction, then DefaultVoice.
func resolveVoices(beats []Beat, characters []storyboards.Character, assignments map[string]string) map[string]string {
	voices := make(map[string]string)
	for i := range beats {
		speaker := beats[i].Speaker
		if _, done := voices[speaker]; done {
			continue
		}
		voices[speaker] = resolveVoice(speaker, characters, assignments)
	}
	return voices
}

func resolveVoice(speaker string, characters []storyboards.Character, assignments map[string]string) string {
	for i := range characters {
		if characters[i].Name == speaker {
			return voiceFor(characters[i], assignments)
		}
	}
	for i := range characters {
		name := characters[i].Name
		if name == "" {
			continue
		}
		if strings.Contains(speaker, name) || strings.Contains(name, speaker) {
			return voiceFor(characters[i], assignments)
		}
	}
	return DefaultVoice
}

func voiceFor(ch storyboards.Character, assignments map[string]string) string {
	if v, ok := assignments[ch.Name]; ok && v != "" {
		return v
	}
	if ch.VoiceType != "" {
		return ch.VoiceType
	}
	return DefaultVoice
}

// resolveBackgroundAudio picks the custom uploaded track over a library
// selection. A "none" selection (or nothing at all) emits no parameters.
func resolveBackgroundAudio(audio *storyboards.AudioSettings) *BackgroundAudio {
	if audio == nil {
		return nil
	}
	if audio.CustomBGMKey != "" {
		return &BackgroundAudio{Track: audio.CustomBGMKey, Volume: audio.BGMVolume, Custom: true}
	}
	if audio.BGMSelection == "" || audio.BGMSelection == storyboards.BGMNone {
		return nil
	}
	return &BackgroundAudio{Track: audio.BGMSelection, Volume: audio.BGMVolume}
}

func referenceImages(beats []Beat, characters []storyboards.Character) map[string]string {
	var refs map[string]string
	for i := range beats {
		speaker := beats[i].Speaker
		for j := range characters {
			if characters[j].Name == speaker && characters[j].FaceImageKey != "" {
				if refs == nil {
					refs = make(map[string]string)
				}
				refs[speaker] = characters[j].FaceImageKey
				break
			}
		}
	}
	return refs
}
