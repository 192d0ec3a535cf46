package workflows

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"storyboard-backend/internal/storyboards"
)

func voiceTestBoard() storyboards.Storyboard {
	return storyboards.Storyboard{
		ID:         "sb-1",
		UserID:     "user-1",
		Title:      "A Tale",
		StoryText:  "Once upon a time.",
		SceneCount: 2,
		Summary:    &storyboards.Summary{Title: "A Tale", Tone: "whimsical"},
		Characters: []storyboards.Character{
			{ID: "c1", Name: "Hero", VoiceType: "male_deep"},
			{ID: "c2", Name: "Guide"},
		},
		Scenes: []storyboards.Scene{
			{ID: "scene-1", Title: "Opening", Dialogue: []storyboards.DialogueLine{
				{ID: "l1", Speaker: "Hero", Text: "Where am I?"},
				{ID: "l2", Speaker: "Guide", Text: "Lost, like everyone."},
				{ID: "l3", Speaker: "Hero", Text: "Then lead on."},
			}},
			{ID: "scene-2", Title: "Closing"},
		},
	}
}

func TestDeriveStepInputIsIdempotent(t *testing.T) {
	sb := voiceTestBoard()
	for step := FirstStep; step <= FinalStep; step++ {
		first, err := DeriveStepInput(step, sb)
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		second, err := DeriveStepInput(step, sb)
		if err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("step %d: derivation not stable", step)
		}
	}
}

func TestDeriveStepInputRejectsUnknownStep(t *testing.T) {
	for _, step := range []int{0, 8, -1} {
		if _, err := DeriveStepInput(step, storyboards.Storyboard{}); !errors.Is(err, ErrInvalidStep) {
			t.Errorf("step %d: expected ErrInvalidStep, got %v", step, err)
		}
	}
}

func TestDeriveStep2CharacterSummary(t *testing.T) {
	sb := voiceTestBoard()
	sb.Characters[1].Role = "mentor"

	in := deriveStep2(sb)
	want := []string{"Hero", "Guide (mentor)"}
	if !reflect.DeepEqual(in.CharacterSummary, want) {
		t.Fatalf("character summary = %v, want %v", in.CharacterSummary, want)
	}
}

func TestDeriveStep5CountsLinesAndSuggestsVoices(t *testing.T) {
	in := deriveStep5(voiceTestBoard())

	if len(in.Characters) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(in.Characters))
	}
	hero, guide := in.Characters[0], in.Characters[1]
	if hero.LineCount != 2 || guide.LineCount != 1 {
		t.Fatalf("line counts = %d, %d", hero.LineCount, guide.LineCount)
	}
	if hero.SuggestedVoice != "male_deep" {
		t.Fatalf("hero suggested voice = %q", hero.SuggestedVoice)
	}
	if guide.SuggestedVoice != "narrator_neutral" {
		t.Fatalf("guide suggested voice = %q", guide.SuggestedVoice)
	}
	if len(in.Scenes) != 2 {
		t.Fatalf("expected 2 scene dialogues, got %d", len(in.Scenes))
	}
}

func TestDeriveStep6ExposesLibrary(t *testing.T) {
	in := deriveStep6(storyboards.Storyboard{})
	if len(in.BGMLibrary) == 0 {
		t.Fatal("expected non-empty bgm library")
	}
	found := false
	for _, track := range in.BGMLibrary {
		if track == storyboards.BGMNone {
			found = true
		}
	}
	if !found {
		t.Fatal("library must include the none option")
	}
}

func TestDeriveStep7PreviewCounts(t *testing.T) {
	in := deriveStep7(voiceTestBoard())
	if in.SceneCount != 2 {
		t.Fatalf("scene count = %d", in.SceneCount)
	}
	if in.BeatCount != 3 {
		t.Fatalf("beat count = %d", in.BeatCount)
	}
	if len(in.Preview.Beats) != in.BeatCount {
		t.Fatalf("preview beats = %d", len(in.Preview.Beats))
	}
}

func TestDecodeStepOutput(t *testing.T) {
	t.Run("step 1 payload", func(t *testing.T) {
		payload, err := DecodeStepOutput(1, json.RawMessage(`{"title":"T","storyText":"s","sceneCount":5}`))
		if err != nil {
			t.Fatal(err)
		}
		out, ok := payload.(*Step1Output)
		if !ok {
			t.Fatalf("unexpected payload type %T", payload)
		}
		if out.SceneCount != 5 {
			t.Fatalf("sceneCount = %d", out.SceneCount)
		}
	})

	t.Run("empty payload rejected", func(t *testing.T) {
		for step := 1; step <= 6; step++ {
			if _, err := DecodeStepOutput(step, nil); !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("step %d: expected ErrInvalidPayload, got %v", step, err)
			}
		}
	})

	t.Run("malformed payload rejected", func(t *testing.T) {
		if _, err := DecodeStepOutput(2, json.RawMessage(`{`)); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
	})

	t.Run("step 7 has no payload", func(t *testing.T) {
		payload, err := DecodeStepOutput(7, nil)
		if err != nil || payload != nil {
			t.Fatalf("got %v, %v", payload, err)
		}
	})

	t.Run("unknown step rejected", func(t *testing.T) {
		if _, err := DecodeStepOutput(9, json.RawMessage(`{}`)); !errors.Is(err, ErrInvalidStep) {
			t.Fatalf("expected ErrInvalidStep, got %v", err)
		}
	})
}

func TestCascades(t *testing.T) {
	for step := 1; step <= 3; step++ {
		if !Cascades(step) {
			t.Errorf("step %d should cascade", step)
		}
	}
	for step := 4; step <= 7; step++ {
		if Cascades(step) {
			t.Errorf("step %d should not cascade", step)
		}
	}
}
