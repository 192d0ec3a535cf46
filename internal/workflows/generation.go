package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/storygen"
)

const genRetryBaseDelay = 300 * time.Millisecond

type retryingGen struct {
	base       storygen.Client
	workflowID string
}

func newRetryingGen(base storygen.Client, workflowID string) storygen.Client {
	if base == nil {
		return nil
	}
	return retryingGen{base: base, workflowID: workflowID}
}

func (r retryingGen) GenerateOutline(ctx context.Context, input storygen.OutlineInput) (json.RawMessage, error) {
	resp, err := r.base.GenerateOutline(ctx, input)
	if err == nil || !shouldRetryGen(err) {
		return resp, err
	}
	log.Printf("storygen retry attempt=1 workflow_id=%s call=outline error=%v", r.workflowID, err)
	select {
	case <-time.After(genRetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.base.GenerateOutline(ctx, input)
}

func (r retryingGen) GenerateScenes(ctx context.Context, input storygen.ScenesInput) (json.RawMessage, error) {
	resp, err := r.base.GenerateScenes(ctx, input)
	if err == nil || !shouldRetryGen(err) {
		return resp, err
	}
	log.Printf("storygen retry attempt=1 workflow_id=%s call=scenes error=%v", r.workflowID, err)
	select {
	case <-time.After(genRetryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.base.GenerateScenes(ctx, input)
}

func shouldRetryGen(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}
	return false
}

// Decode shapes for the raw generation documents.

type outlineResult struct {
	Summary    storyboards.Summary `json:"summary"`
	Acts       []outlineAct        `json:"acts"`
	Characters []outlineCharacter  `json:"characters"`
}

type outlineAct struct {
	ActNumber   int                `json:"actNumber"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Scenes      []outlineSceneStub `json:"scenes"`
}

type outlineSceneStub struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
}

type outlineCharacter struct {
	Name              string `json:"name"`
	Role              string `json:"role"`
	Personality       string `json:"personality"`
	VisualDescription string `json:"visualDescription"`
	VoiceType         string `json:"voiceType"`
}

type scenesResult struct {
	Scenes []generatedScene `json:"scenes"`
}

type generatedScene struct {
	Title       string          `json:"title"`
	ImagePrompt string          `json:"imagePrompt"`
	Dialogue    []generatedLine `json:"dialogue"`
}

type generatedLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func decodeOutline(raw json.RawMessage) (outlineResult, error) {
	var out outlineResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return outlineResult{}, fmt.Errorf("outline decode: %w", err)
	}
	return out, nil
}

func decodeScenes(raw json.RawMessage) (scenesResult, error) {
	var out scenesResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return scenesResult{}, fmt.Errorf("scenes decode: %w", err)
	}
	return out, nil
}

// distributeScenes splits total scenes across five act buckets, assigning
// the remainder to the earliest acts. total=7 yields {2,2,1,1,1}.
func distributeScenes(total int) [5]int {
	var buckets [5]int
	if total <= 0 {
		return buckets
	}
	base := total / 5
	remainder := total % 5
	for i := 0; i < 5; i++ {
		buckets[i] = base
		if i < remainder {
			buckets[i]++
		}
	}
	return buckets
}

// buildActs forces the generated outline into a five-act structure whose
// scene-stub counts match the requested total. Missing stubs get numbered
// placeholders, excess stubs are dropped.
func buildActs(generated []outlineAct, sceneCount int) []storyboards.Act {
	buckets := distributeScenes(sceneCount)
	acts := make([]storyboards.Act, 5)
	sceneNumber := 1
	for i := 0; i < 5; i++ {
		act := storyboards.Act{ActNumber: i + 1, Title: fmt.Sprintf("Act %d", i+1)}
		var stubs []outlineSceneStub
		if i < len(generated) {
			if generated[i].Title != "" {
				act.Title = generated[i].Title
			}
			act.Description = generated[i].Description
			stubs = generated[i].Scenes
		}
		for j := 0; j < buckets[i]; j++ {
			stub := storyboards.SceneStub{
				ID:    fmt.Sprintf("scene-%d", sceneNumber),
				Title: fmt.Sprintf("Scene %d", sceneNumber),
			}
			if j < len(stubs) {
				if stubs[j].Title != "" {
					stub.Title = stubs[j].Title
				}
				stub.Synopsis = stubs[j].Synopsis
			}
			act.Scenes = append(act.Scenes, stub)
			sceneNumber++
		}
		acts[i] = act
	}
	return acts
}

func buildCharacters(generated []outlineCharacter) []storyboards.Character {
	if len(generated) == 0 {
		return defaultCharacters()
	}
	out := make([]storyboards.Character, 0, len(generated))
	for _, ch := range generated {
		if strings.TrimSpace(ch.Name) == "" {
			continue
		}
		out = append(out, storyboards.Character{
			ID:                uuid.NewString(),
			Name:              ch.Name,
			Role:              ch.Role,
			Personality:       ch.Personality,
			VisualDescription: ch.VisualDescription,
			VoiceType:         ch.VoiceType,
		})
	}
	if len(out) == 0 {
		return defaultCharacters()
	}
	return out
}

func defaultCharacters() []storyboards.Character {
	return []storyboards.Character{{
		ID:   uuid.NewString(),
		Name: "Narrator",
		Role: "narrator",
	}}
}

// buildScenes turns generated scenes into storyboard scenes, stamping stable
// scene and dialogue-line identifiers.
func buildScenes(generated []generatedScene) []storyboards.Scene {
	out := make([]storyboards.Scene, 0, len(generated))
	for i, gs := range generated {
		scene := storyboards.Scene{
			ID:          fmt.Sprintf("scene-%d", i+1),
			Title:       gs.Title,
			ImagePrompt: gs.ImagePrompt,
		}
		if scene.Title == "" {
			scene.Title = fmt.Sprintf("Scene %d", i+1)
		}
		for _, line := range gs.Dialogue {
			scene.Dialogue = append(scene.Dialogue, storyboards.DialogueLine{
				ID:      uuid.NewString(),
				Speaker: line.Speaker,
				Text:    line.Text,
			})
		}
		out = append(out, scene)
	}
	return out
}
