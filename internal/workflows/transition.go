package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/script"
	"storyboard-backend/internal/shared/telemetry"
	"storyboard-backend/internal/storyboards"
	"storyboard-backend/internal/storygen"
)

const defaultGenTimeout = 90 * time.Second

// Transitioner applies one step's submitted output to a storyboard. The
// generation client is the only blocking collaborator; every call to it is
// bounded by GenTimeout.
type Transitioner struct {
	Gen        storygen.Client
	GenTimeout time.Duration
}

func (t *Transitioner) genTimeout() time.Duration {
	if t.GenTimeout > 0 {
		return t.GenTimeout
	}
	return defaultGenTimeout
}

// Apply mutates sb in place according to the step's transition rule. The
// caller works on a copy so a failed transition never leaks partial writes.
func (t *Transitioner) Apply(ctx context.Context, workflowID string, step int, payload any, sb *storyboards.Storyboard) error {
	switch step {
	case 1:
		out, ok := payload.(*Step1Output)
		if !ok {
			return ErrInvalidPayload
		}
		return t.applyStep1(ctx, workflowID, out, sb)
	case 2:
		out, ok := payload.(*Step2Output)
		if !ok {
			return ErrInvalidPayload
		}
		return applyStep2(out, sb)
	case 3:
		out, ok := payload.(*Step3Output)
		if !ok {
			return ErrInvalidPayload
		}
		return t.applyStep3(ctx, workflowID, out, sb)
	case 4:
		out, ok := payload.(*Step4Output)
		if !ok {
			return ErrInvalidPayload
		}
		return applyStep4(out, sb)
	case 5:
		out, ok := payload.(*Step5Output)
		if !ok {
			return ErrInvalidPayload
		}
		return applyStep5(out, sb)
	case 6:
		out, ok := payload.(*Step6Output)
		if !ok {
			return ErrInvalidPayload
		}
		return applyStep6(out, sb)
	case 7:
		return applyStep7(sb)
	default:
		return ErrInvalidStep
	}
}

// applyStep1 synthesizes the five-act structure and character roster from
// the raw story text. Generation failure degrades to numbered-placeholder
// acts and a narrator-only roster instead of failing the transition.
func (t *Transitioner) applyStep1(ctx context.Context, workflowID string, out *Step1Output, sb *storyboards.Storyboard) error {
	if strings.TrimSpace(out.StoryText) != "" {
		sb.StoryText = out.StoryText
	}
	if out.SceneCount > 0 {
		sb.SceneCount = out.SceneCount
	}
	if strings.TrimSpace(out.Title) != "" {
		sb.Title = out.Title
	}
	if strings.TrimSpace(sb.StoryText) == "" {
		return fmt.Errorf("%w: storyText is required", ErrInvalidPayload)
	}
	if sb.SceneCount <= 0 {
		return fmt.Errorf("%w: sceneCount must be positive", ErrInvalidPayload)
	}

	outline, err := t.generateOutline(ctx, workflowID, sb.StoryText, sb.SceneCount)
	if err != nil {
		telemetry.Error("workflow.generation", map[string]any{
			"workflow_id": workflowID,
			"call":        "outline",
			"error":       err.Error(),
		})
		outline = outlineResult{Summary: storyboards.Summary{Title: sb.Title}}
	}
	if outline.Summary.Title == "" {
		outline.Summary.Title = sb.Title
	}

	sb.Summary = &outline.Summary
	sb.Acts = buildActs(outline.Acts, sb.SceneCount)
	sb.Characters = buildCharacters(outline.Characters)
	sb.Title = outline.Summary.Title
	return nil
}

func (t *Transitioner) generateOutline(ctx context.Context, workflowID, storyText string, sceneCount int) (outlineResult, error) {
	if t.Gen == nil {
		return outlineResult{}, storygen.ErrNotImplemented
	}
	genCtx, cancel := context.WithTimeout(ctx, t.genTimeout())
	defer cancel()

	gen := newRetryingGen(t.Gen, workflowID)
	raw, err := gen.GenerateOutline(genCtx, storygen.OutlineInput{StoryText: storyText, SceneCount: sceneCount})
	if err != nil {
		return outlineResult{}, err
	}
	outline, err := decodeOutline(raw)
	if err != nil {
		raw, retryErr := gen.GenerateOutline(storygen.WithFixJSON(genCtx, string(raw)), storygen.OutlineInput{StoryText: storyText, SceneCount: sceneCount})
		if retryErr != nil {
			return outlineResult{}, retryErr
		}
		return decodeOutline(raw)
	}
	return outline, nil
}

// applyStep2 accepts the user's edited title and act list verbatim.
func applyStep2(out *Step2Output, sb *storyboards.Storyboard) error {
	if strings.TrimSpace(out.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPayload)
	}
	if len(out.Acts) == 0 {
		return fmt.Errorf("%w: acts are required", ErrInvalidPayload)
	}
	if sb.Summary == nil {
		sb.Summary = &storyboards.Summary{}
	}
	sb.Summary.Title = out.Title
	sb.Title = out.Title
	sb.Acts = out.Acts
	return nil
}

// applyStep3 writes the detailed roster, then expands acts into concrete
// scenes. Scene generation failure falls back to an empty scene list rather
// than aborting the transition.
func (t *Transitioner) applyStep3(ctx context.Context, workflowID string, out *Step3Output, sb *storyboards.Storyboard) error {
	if len(out.Characters) > 0 {
		for i := range out.Characters {
			if out.Characters[i].ID == "" {
				out.Characters[i].ID = uuid.NewString()
			}
		}
		sb.Characters = out.Characters
	}
	if len(sb.Characters) == 0 {
		sb.Characters = defaultCharacters()
	}

	scenes, err := t.generateScenes(ctx, workflowID, sb)
	if err != nil {
		telemetry.Error("workflow.generation", map[string]any{
			"workflow_id": workflowID,
			"call":        "scenes",
			"error":       err.Error(),
		})
		sb.Scenes = []storyboards.Scene{}
		return nil
	}
	sb.Scenes = scenes
	return nil
}

func (t *Transitioner) generateScenes(ctx context.Context, workflowID string, sb *storyboards.Storyboard) ([]storyboards.Scene, error) {
	if t.Gen == nil {
		return nil, storygen.ErrNotImplemented
	}
	actsJSON, err := json.Marshal(sb.Acts)
	if err != nil {
		return nil, err
	}
	charactersJSON, err := json.Marshal(sb.Characters)
	if err != nil {
		return nil, err
	}
	tone := ""
	if sb.Summary != nil {
		tone = sb.Summary.Tone
	}
	input := storygen.ScenesInput{
		ActsJSON:       string(actsJSON),
		CharactersJSON: string(charactersJSON),
		Tone:           tone,
	}

	genCtx, cancel := context.WithTimeout(ctx, t.genTimeout())
	defer cancel()

	gen := newRetryingGen(t.Gen, workflowID)
	raw, err := gen.GenerateScenes(genCtx, input)
	if err != nil {
		return nil, err
	}
	result, err := decodeScenes(raw)
	if err != nil {
		raw, retryErr := gen.GenerateScenes(storygen.WithFixJSON(genCtx, string(raw)), input)
		if retryErr != nil {
			return nil, retryErr
		}
		result, err = decodeScenes(raw)
		if err != nil {
			return nil, err
		}
	}
	return buildScenes(result.Scenes), nil
}

// applyStep4 merges per-scene edits into the scene list by id; scenes
// absent from the edit set stay untouched.
func applyStep4(out *Step4Output, sb *storyboards.Storyboard) error {
	for _, edit := range out.Scenes {
		scene := sb.SceneByID(edit.ID)
		if scene == nil {
			continue
		}
		if edit.Title != "" {
			scene.Title = edit.Title
		}
		if edit.ImagePrompt != "" {
			scene.EditedImagePrompt = edit.ImagePrompt
		}
		if edit.ImageURL != "" {
			scene.ImageURL = edit.ImageURL
		}
		if edit.CustomImageKey != "" {
			scene.CustomImageKey = edit.CustomImageKey
		}
		if edit.Dialogue != nil {
			lines := make([]storyboards.DialogueLine, len(edit.Dialogue))
			copy(lines, edit.Dialogue)
			for i := range lines {
				if lines[i].ID == "" {
					lines[i].ID = uuid.NewString()
				}
			}
			scene.Dialogue = lines
		}
	}
	return nil
}

// applyStep5 stores voice assignments and seeds a default background track.
func applyStep5(out *Step5Output, sb *storyboards.Storyboard) error {
	if len(out.VoiceSettings) == 0 {
		return fmt.Errorf("%w: voiceSettings are required", ErrInvalidPayload)
	}
	audio := sb.Audio
	if audio == nil {
		audio = &storyboards.AudioSettings{}
	}
	audio.VoiceSettings = out.VoiceSettings
	if audio.BGMSelection == "" && audio.CustomBGMKey == "" {
		audio.BGMSelection = defaultBGMTrack
		audio.BGMVolume = 0.5
	}
	sb.Audio = audio
	return nil
}

// applyStep6 writes background audio, captions and visual style.
func applyStep6(out *Step6Output, sb *storyboards.Storyboard) error {
	audio := sb.Audio
	if audio == nil {
		audio = &storyboards.AudioSettings{}
	}
	audio.BGMSelection = out.BGMSelection
	audio.BGMVolume = out.BGMVolume
	audio.CustomBGMKey = out.CustomBGMKey
	sb.Audio = audio

	if out.Captions != nil {
		captions := *out.Captions
		sb.Captions = &captions
	}

	if out.VisualStyle != "" || len(out.PromptOverrides) > 0 {
		style := sb.Style
		if style == nil {
			style = &storyboards.StyleSettings{}
		}
		if out.VisualStyle != "" {
			style.VisualStyle = out.VisualStyle
		}
		if len(out.PromptOverrides) > 0 {
			style.PromptOverrides = out.PromptOverrides
		}
		sb.Style = style
	}
	return nil
}

// applyStep7 assembles the final declarative script and completes the
// storyboard.
func applyStep7(sb *storyboards.Storyboard) error {
	if len(sb.Scenes) == 0 {
		return fmt.Errorf("%w: no scenes to assemble", ErrInvalidPayload)
	}
	assembled := script.Assemble(*sb)
	data, err := json.Marshal(assembled)
	if err != nil {
		return err
	}
	sb.FinalScript = data
	sb.Status = storyboards.StatusCompleted
	return nil
}
