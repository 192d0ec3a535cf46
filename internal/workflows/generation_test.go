package workflows

import (
	"strconv"
	"testing"
)

func TestDistributeScenes(t *testing.T) {
	cases := []struct {
		total int
		want  [5]int
	}{
		{0, [5]int{0, 0, 0, 0, 0}},
		{1, [5]int{1, 0, 0, 0, 0}},
		{3, [5]int{1, 1, 1, 0, 0}},
		{5, [5]int{1, 1, 1, 1, 1}},
		{7, [5]int{2, 2, 1, 1, 1}},
		{12, [5]int{3, 3, 2, 2, 2}},
		{23, [5]int{5, 5, 5, 4, 4}},
	}
	for _, tc := range cases {
		got := distributeScenes(tc.total)
		if got != tc.want {
			t.Errorf("distributeScenes(%d) = %v, want %v", tc.total, got, tc.want)
		}
	}
}

func TestBuildActsEmptyOutline(t *testing.T) {
	acts := buildActs(nil, 7)

	if len(acts) != 5 {
		t.Fatalf("expected 5 acts, got %d", len(acts))
	}
	wantSizes := [5]int{2, 2, 1, 1, 1}
	sceneNumber := 1
	for i, act := range acts {
		if act.ActNumber != i+1 {
			t.Errorf("act %d: actNumber = %d", i, act.ActNumber)
		}
		if len(act.Scenes) != wantSizes[i] {
			t.Errorf("act %d: %d scenes, want %d", i+1, len(act.Scenes), wantSizes[i])
		}
		for _, stub := range act.Scenes {
			wantID := "scene-" + strconv.Itoa(sceneNumber)
			if stub.ID != wantID {
				t.Errorf("stub id = %q, want %q", stub.ID, wantID)
			}
			sceneNumber++
		}
	}
}

func TestBuildActsKeepsGeneratedTitles(t *testing.T) {
	generated := []outlineAct{
		{Title: "The Setup", Description: "intro", Scenes: []outlineSceneStub{
			{Title: "Arrival", Synopsis: "hero arrives"},
		}},
	}
	acts := buildActs(generated, 5)

	if acts[0].Title != "The Setup" {
		t.Fatalf("act 1 title = %q", acts[0].Title)
	}
	if acts[0].Scenes[0].Title != "Arrival" || acts[0].Scenes[0].Synopsis != "hero arrives" {
		t.Fatalf("stub not carried: %+v", acts[0].Scenes[0])
	}
	// Acts beyond the generated outline fall back to placeholders.
	if acts[1].Title != "Act 2" {
		t.Fatalf("act 2 title = %q", acts[1].Title)
	}
}

func TestBuildCharactersFallsBackToNarrator(t *testing.T) {
	for _, generated := range [][]outlineCharacter{
		nil,
		{{Name: "   "}},
	} {
		chars := buildCharacters(generated)
		if len(chars) != 1 || chars[0].Name != "Narrator" || chars[0].Role != "narrator" {
			t.Fatalf("expected narrator fallback, got %+v", chars)
		}
		if chars[0].ID == "" {
			t.Fatal("expected generated character id")
		}
	}
}

func TestBuildScenesAssignsIDs(t *testing.T) {
	scenes := buildScenes([]generatedScene{
		{Title: "Opening", ImagePrompt: "a forest", Dialogue: []generatedLine{
			{Speaker: "Hero", Text: "hello"},
		}},
		{},
	})

	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(scenes))
	}
	if scenes[0].ID != "scene-1" || scenes[1].ID != "scene-2" {
		t.Fatalf("scene ids = %q, %q", scenes[0].ID, scenes[1].ID)
	}
	if scenes[1].Title != "Scene 2" {
		t.Fatalf("placeholder title = %q", scenes[1].Title)
	}
	if scenes[0].Dialogue[0].ID == "" {
		t.Fatal("expected dialogue line id")
	}
}
