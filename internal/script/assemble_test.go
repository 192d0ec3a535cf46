package script

import (
	"testing"

	"storyboard-backend/internal/storyboards"
)

func sceneWithLines(id string, prompt string, speakers ...string) storyboards.Scene {
	sc := storyboards.Scene{ID: id, Title: id, ImagePrompt: prompt}
	for i, sp := range speakers {
		sc.Dialogue = append(sc.Dialogue, storyboards.DialogueLine{
			ID:      id + "-line-" + string(rune('a'+i)),
			Speaker: sp,
			Text:    "line from " + sp,
		})
	}
	return sc
}

func TestAssembleBeatCountMatchesDialogueTotal(t *testing.T) {
	sb := storyboards.Storyboard{
		Title: "Test",
		Scenes: []storyboards.Scene{
			sceneWithLines("scene-1", "p1", "Alice", "Bob"),
			sceneWithLines("scene-2", "p2", "Alice"),
			sceneWithLines("scene-3", "p3", "Bob", "Carol", "Alice"),
		},
	}

	out := Assemble(sb)

	want := sb.DialogueLineCount()
	if len(out.Beats) != want {
		t.Fatalf("beat count = %d, want %d", len(out.Beats), want)
	}
}

func TestAssembleVoiceMapCoversExactlyTheSpeakers(t *testing.T) {
	sb := storyboards.Storyboard{
		Scenes: []storyboards.Scene{
			sceneWithLines("scene-1", "p", "Alice", "Bob", "Alice"),
			sceneWithLines("scene-2", "p", "Narrator"),
		},
		Characters: []storyboards.Character{
			{ID: "c1", Name: "Alice", VoiceType: "female_warm"},
		},
	}

	out := Assemble(sb)

	wantSpeakers := map[string]bool{"Alice": true, "Bob": true, "Narrator": true}
	if len(out.Voices) != len(wantSpeakers) {
		t.Fatalf("voice map has %d entries, want %d: %v", len(out.Voices), len(wantSpeakers), out.Voices)
	}
	for sp := range wantSpeakers {
		if _, ok := out.Voices[sp]; !ok {
			t.Errorf("voice map missing speaker %q", sp)
		}
	}
}

func TestResolveVoiceFallbackOrder(t *testing.T) {
	characters := []storyboards.Character{
		{ID: "c1", Name: "Anna", VoiceType: "exact_voice"},
		{ID: "c2", Name: "Anna the Brave", VoiceType: "substring_voice"},
	}

	tests := []struct {
		name    string
		speaker string
		want    string
	}{
		{"exact match wins", "Anna", "exact_voice"},
		{"substring when no exact", "The Brave", "substring_voice"},
		{"speaker contains roster name", "Old Anna the Brave II", "exact_voice"},
		{"default when nothing matches", "Stranger", DefaultVoice},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveVoice(tc.speaker, characters, nil)
			if got != tc.want {
				t.Fatalf("resolveVoice(%q) = %q, want %q", tc.speaker, got, tc.want)
			}
		})
	}
}

func TestResolveVoicePrefersAssignmentOverVoiceType(t *testing.T) {
	characters := []storyboards.Character{
		{ID: "c1", Name: "Anna", VoiceType: "roster_voice"},
	}
	assignments := map[string]string{"Anna": "assigned_voice"}

	if got := resolveVoice("Anna", characters, assignments); got != "assigned_voice" {
		t.Fatalf("got %q, want assigned_voice", got)
	}
}

func TestSceneOverrideUpdatesOnlyThatScenesBeats(t *testing.T) {
	sb := storyboards.Storyboard{
		Scenes: []storyboards.Scene{
			sceneWithLines("scene-1", "p1", "A", "B"),
			sceneWithLines("scene-2", "p2", "A", "B", "C"),
			sceneWithLines("scene-3", "p3", "A", "B"),
			sceneWithLines("scene-4", "p4", "C"),
		},
	}
	sb.Scenes[2].EditedImagePrompt = "edited scene three"

	out := Assemble(sb)

	// scene-3 occupies beats [5,7) given 2+3 earlier lines.
	for i, b := range out.Beats {
		want := sb.Scenes[0].ImagePrompt
		switch {
		case i >= 2 && i < 5:
			want = "p2"
		case i >= 5 && i < 7:
			want = "edited scene three"
		case i >= 7:
			want = "p4"
		}
		if b.ImagePrompt != want {
			t.Errorf("beat %d prompt = %q, want %q", i, b.ImagePrompt, want)
		}
	}
}

func TestStyleOverrideAppliesLast(t *testing.T) {
	sb := storyboards.Storyboard{
		Scenes: []storyboards.Scene{
			sceneWithLines("scene-1", "generated", "A"),
		},
		Style: &storyboards.StyleSettings{
			VisualStyle:     "anime",
			PromptOverrides: map[string]string{"scene-1": "style override"},
		},
	}
	sb.Scenes[0].EditedImagePrompt = "edited"

	out := Assemble(sb)

	if out.Beats[0].ImagePrompt != "style override" {
		t.Fatalf("prompt = %q, want style override", out.Beats[0].ImagePrompt)
	}
	if out.Style != "anime" {
		t.Fatalf("style = %q, want anime", out.Style)
	}
}

func TestBackgroundAudioResolution(t *testing.T) {
	tests := []struct {
		name  string
		audio *storyboards.AudioSettings
		want  *BackgroundAudio
	}{
		{"nil audio", nil, nil},
		{"none selection", &storyboards.AudioSettings{BGMSelection: "none"}, nil},
		{"empty selection", &storyboards.AudioSettings{}, nil},
		{
			"library selection",
			&storyboards.AudioSettings{BGMSelection: "calm_piano", BGMVolume: 0.4},
			&BackgroundAudio{Track: "calm_piano", Volume: 0.4},
		},
		{
			"custom track wins over selection",
			&storyboards.AudioSettings{BGMSelection: "calm_piano", CustomBGMKey: "user/track.mp3", BGMVolume: 0.8},
			&BackgroundAudio{Track: "user/track.mp3", Volume: 0.8, Custom: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := resolveBackgroundAudio(tc.audio)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("got %+v, want %+v", *got, *tc.want)
			}
		})
	}
}

func TestAssembleCarriesLineIDsAndImageURLs(t *testing.T) {
	sb := storyboards.Storyboard{
		Scenes: []storyboards.Scene{
			sceneWithLines("scene-1", "p1", "A"),
			sceneWithLines("scene-2", "p2", "B"),
		},
	}
	sb.Scenes[0].ImageURL = "https://img/scene1.png"
	sb.Scenes[1].ImageURL = "https://img/scene2.png"
	sb.Scenes[1].CustomImageKey = "uploads/custom2.png"

	out := Assemble(sb)

	if out.Beats[0].LineID != "scene-1-line-a" {
		t.Fatalf("line id not carried: %q", out.Beats[0].LineID)
	}
	if out.Beats[0].ImageURL != "https://img/scene1.png" {
		t.Errorf("scene-1 image url = %q", out.Beats[0].ImageURL)
	}
	if out.Beats[1].ImageURL != "uploads/custom2.png" {
		t.Errorf("custom image should win: %q", out.Beats[1].ImageURL)
	}
}

func TestAssembleOmitsDisabledCaptions(t *testing.T) {
	sb := storyboards.Storyboard{
		Scenes:   []storyboards.Scene{sceneWithLines("scene-1", "p", "A")},
		Captions: &storyboards.CaptionSettings{Enabled: false, Language: "en"},
	}
	if out := Assemble(sb); out.Captions != nil {
		t.Fatalf("captions should be omitted when disabled, got %+v", out.Captions)
	}

	sb.Captions.Enabled = true
	out := Assemble(sb)
	if out.Captions == nil || out.Captions.Language != "en" {
		t.Fatalf("captions should be present when enabled, got %+v", out.Captions)
	}
}
